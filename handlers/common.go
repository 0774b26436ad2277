package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/varunnandan321-gif/blood-connect/chat"
	"github.com/varunnandan321-gif/blood-connect/config"
	"github.com/varunnandan321-gif/blood-connect/mirror"
	"github.com/varunnandan321-gif/blood-connect/models"
	"github.com/varunnandan321-gif/blood-connect/utils"
)

// 由 main 在啟動時注入的依賴
var (
	cfg           *config.Config
	requestMirror *mirror.Mirror
	chatManager   *chat.Manager
)

// Configure 設定 handlers 套件需要的依賴，必須在註冊路由前呼叫
func Configure(c *config.Config, m *mirror.Mirror, cm *chat.Manager) {
	cfg = c
	requestMirror = m
	chatManager = cm
}

// sendJSONError 統一發送 JSON 格式錯誤響應
func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	var errorResponse models.ErrorResponse
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errorResponse.Message = message
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("Failed to write error response: %v", err)
	}
}

// isAdmin 判斷目前請求的使用者是否為管理員
// 管理員身分由配置中的 ADMIN_EMAIL 決定
func isAdmin(r *http.Request) bool {
	email, err := utils.GetUserEmailFromContext(r.Context())
	if err != nil {
		return false
	}
	return email != "" && email == cfg.AdminEmail
}
