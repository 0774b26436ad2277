package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/varunnandan321-gif/blood-connect/database"
	"github.com/varunnandan321-gif/blood-connect/models"
	"github.com/varunnandan321-gif/blood-connect/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetProfile 返回目前登入使用者的個人資料
func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := database.GetUserByID(userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			sendJSONError(w, "User not found", http.StatusNotFound)
		} else {
			log.Printf("Error finding user: %v", err)
			sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// UpdateProfile 更新目前登入使用者的捐血者資料
// 成功更新後該使用者會被標記為已登記的捐血者
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var updateReq models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	// 血型一旦填寫就必須是合法的值
	if updateReq.BloodGroup != "" && !models.IsValidBloodGroup(updateReq.BloodGroup) {
		sendJSONError(w, "Invalid blood group", http.StatusBadRequest)
		return
	}

	if err := database.UpdateUserProfile(userID, updateReq); err != nil {
		log.Printf("Error updating profile: %v", err)
		sendJSONError(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	// 回傳更新後的完整資料
	user, err := database.GetUserByID(userID)
	if err != nil {
		log.Printf("Error reloading user after update: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Printf("Profile updated for user: %s", userID.Hex())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// GetAllUsers 返回所有使用者，僅限管理員
func GetAllUsers(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		sendJSONError(w, "Admin access required", http.StatusForbidden)
		return
	}

	users, err := database.GetAllUsers()
	if err != nil {
		log.Printf("Error fetching users: %v", err)
		sendJSONError(w, "Failed to fetch users", http.StatusInternalServerError)
		return
	}

	// 清除密碼欄位，避免哈希值外洩
	for i := range users {
		users[i].Password = ""
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// DeleteUser 刪除指定使用者，僅限管理員
func DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		sendJSONError(w, "Admin access required", http.StatusForbidden)
		return
	}

	vars := mux.Vars(r)
	targetID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		sendJSONError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	deleted, err := database.DeleteUser(targetID)
	if err != nil {
		log.Printf("Error deleting user: %v", err)
		sendJSONError(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	if !deleted {
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	log.Printf("User deleted: %s", targetID.Hex())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "User deleted successfully"})
}
