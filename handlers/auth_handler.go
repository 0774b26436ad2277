package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/varunnandan321-gif/blood-connect/database"
	"github.com/varunnandan321-gif/blood-connect/models"
	"github.com/varunnandan321-gif/blood-connect/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt" // 用於密碼哈希
)

// RegisterUser 處理使用者註冊請求
func RegisterUser(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	// 基本的輸入驗證
	if registerReq.Email == "" || registerReq.Name == "" || registerReq.Password == "" {
		sendJSONError(w, "Email, name, and password are required", http.StatusBadRequest)
		return
	}

	// 先檢查 Email，如果存在則直接返回
	// （真正的唯一性由 users.email 的唯一索引保證，這裡只是提早回報）
	_, err := database.GetUserByEmail(registerReq.Email)
	if err == nil {
		sendJSONError(w, "Email already registered", http.StatusConflict)
		return
	}
	if err != mongo.ErrNoDocuments { // 如果不是找不到文件，而是其他錯誤
		log.Printf("Error checking existing email: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 哈希密碼
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registerReq.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 創建新使用者；配置的管理員 Email 註冊時直接取得 admin 角色
	role := "user"
	if registerReq.Email == cfg.AdminEmail {
		role = "admin"
	}
	user := models.User{
		Email:     registerReq.Email,
		Name:      registerReq.Name,
		Password:  string(hashedPassword),
		Role:      role,
		Available: true,
		CreatedAt: time.Now(),
	}

	// 插入新使用者到資料庫
	result, err := database.InsertUser(user)
	if err != nil {
		log.Printf("Error inserting user: %v", err)
		sendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	userID := result.InsertedID.(primitive.ObjectID)

	// 註冊成功後直接發 token，前端不需要再登入一次
	token, err := utils.GenerateJWT(userID, user.Name, user.Email, cfg.JWTSecret)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Printf("User registered successfully: %v", userID.Hex())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated) // 201 Created
	json.NewEncoder(w).Encode(map[string]string{
		"message": "User registered successfully",
		"id":      userID.Hex(),
		"name":    user.Name,
		"role":    user.Role,
		"token":   token,
	})
}

// LoginUser 處理使用者登入請求
func LoginUser(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	// 基本的輸入驗證
	if credentials.Email == "" || credentials.Password == "" {
		sendJSONError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	// 透過 Email 尋找使用者
	user, err := database.GetUserByEmail(credentials.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		} else {
			log.Printf("Error finding user by email: %v", err)
			sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// 比較哈希後的密碼
	// Google 登入的帳號沒有密碼，這裡的比較必定失敗，走 OAuth 流程才能登入
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(credentials.Password)); err != nil {
		sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Name, user.Email, cfg.JWTSecret)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 登入成功
	log.Printf("User logged in successfully: %s", user.Email)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // 200 OK
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Login successful",
		"id":      user.ID.Hex(), // 將 ObjectID 轉換為 Hex 字串
		"name":    user.Name,
		"role":    user.Role,
		"token":   token,
	})
}
