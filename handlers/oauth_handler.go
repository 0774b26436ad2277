package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/varunnandan321-gif/blood-connect/database"
	"github.com/varunnandan321-gif/blood-connect/models"
	"github.com/varunnandan321-gif/blood-connect/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// googleOAuthConfig 根據配置組出 Google OAuth2 設定
func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleLogin 將使用者導向 Google 的授權頁面
// state 同時寫入 cookie，callback 時比對以防 CSRF
func GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if cfg.GoogleClientID == "" {
		sendJSONError(w, "Google login is not configured", http.StatusNotImplemented)
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Printf("Error generating OAuth state: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	state := base64.URLEncoding.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
	})

	url := googleOAuthConfig().AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// googleUserInfo 是 Google userinfo 端點回傳的欄位（只取需要的部份）
type googleUserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleCallback 處理 Google 授權完成後的回呼
// 交換 code 取得 token、讀取使用者資訊，之後的流程與一般登入相同：
// 不存在的帳號先建立（密碼留空），最後發出自己的 JWT
func GoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		sendJSONError(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		sendJSONError(w, "Authorization code is required", http.StatusBadRequest)
		return
	}

	conf := googleOAuthConfig()
	token, err := conf.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("Error exchanging OAuth code: %v", err)
		sendJSONError(w, "Failed to authenticate with Google", http.StatusUnauthorized)
		return
	}

	// 用取得的 token 讀取使用者資訊
	client := conf.Client(r.Context(), token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		log.Printf("Error fetching Google user info: %v", err)
		sendJSONError(w, "Failed to fetch user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		log.Printf("Error decoding Google user info: %v", err)
		sendJSONError(w, "Failed to fetch user info", http.StatusInternalServerError)
		return
	}
	if info.Email == "" {
		sendJSONError(w, "Google account has no email", http.StatusBadRequest)
		return
	}

	// 既有帳號直接登入，否則建立新帳號
	user, err := database.GetUserByEmail(info.Email)
	if err == mongo.ErrNoDocuments {
		role := "user"
		if info.Email == cfg.AdminEmail {
			role = "admin"
		}
		newUser := models.User{
			Email:     info.Email,
			Name:      info.Name,
			Role:      role,
			Available: true,
			CreatedAt: time.Now(),
		}
		result, insertErr := database.InsertUser(newUser)
		if insertErr != nil {
			log.Printf("Error inserting Google user: %v", insertErr)
			sendJSONError(w, "Failed to create user", http.StatusInternalServerError)
			return
		}
		newUser.ID = result.InsertedID.(primitive.ObjectID)
		user = &newUser
	} else if err != nil {
		log.Printf("Error finding user by email: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	jwtToken, err := utils.GenerateJWT(user.ID, user.Name, user.Email, cfg.JWTSecret)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Printf("User logged in via Google: %s", user.Email)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Login successful",
		"id":      user.ID.Hex(),
		"name":    user.Name,
		"role":    user.Role,
		"token":   jwtToken,
	})
}
