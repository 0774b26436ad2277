package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/varunnandan321-gif/blood-connect/database"
	"github.com/varunnandan321-gif/blood-connect/models"
	"github.com/varunnandan321-gif/blood-connect/utils"
	"github.com/varunnandan321-gif/blood-connect/websocket"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// isParticipant 檢查使用者是否為該聊天室的參與者
func isParticipant(chat *models.Chat, userID primitive.ObjectID) bool {
	for _, p := range chat.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// StartChat 由捐血者對一筆請求發起聊天
// 同一請求、同一對參與者只會有一個聊天室，重複發起時返回既有的那一個
func StartChat(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		RequestID string `json:"requestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	requestID, err := primitive.ObjectIDFromHex(body.RequestID)
	if err != nil {
		sendJSONError(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	request, err := database.GetRequestByID(requestID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			sendJSONError(w, "Request not found", http.StatusNotFound)
		} else {
			log.Printf("Error finding request: %v", err)
			sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// 不能與自己的請求開聊天室，也不對已完成的請求發起新的聊天
	if request.RequesterID == userID {
		sendJSONError(w, "Cannot start a chat on your own request", http.StatusBadRequest)
		return
	}
	if request.Status != models.RequestStatusActive {
		sendJSONError(w, "Request is no longer active", http.StatusConflict)
		return
	}

	donor, err := database.GetUserByID(userID)
	if err != nil {
		log.Printf("Error finding user: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	chat, created, err := chatManager.ResolveOrCreate(r.Context(), request, donor)
	if err != nil {
		log.Printf("Error resolving chat: %v", err)
		sendJSONError(w, "Failed to start chat", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		log.Printf("Chat created: %s (request %s)", chat.ID.Hex(), requestID.Hex())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(chat)
}

// GetUserChats 返回目前使用者參與的所有聊天室，按最後更新時間排序
func GetUserChats(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chats, err := database.GetUserChats(userID)
	if err != nil {
		log.Printf("Error fetching chats: %v", err)
		sendJSONError(w, "Failed to fetch chats", http.StatusInternalServerError)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chats)
}

// loadChatForParticipant 讀取聊天室並確認目前使用者是參與者
// 失敗時已寫出錯誤響應，呼叫端直接返回即可
func loadChatForParticipant(w http.ResponseWriter, r *http.Request) (*models.Chat, primitive.ObjectID, bool) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, primitive.NilObjectID, false
	}

	vars := mux.Vars(r)
	chatID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		sendJSONError(w, "Invalid chat ID", http.StatusBadRequest)
		return nil, primitive.NilObjectID, false
	}

	chat, err := database.GetChatByID(chatID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			sendJSONError(w, "Chat not found", http.StatusNotFound)
		} else {
			log.Printf("Error finding chat: %v", err)
			sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return nil, primitive.NilObjectID, false
	}

	if !isParticipant(chat, userID) {
		sendJSONError(w, "You are not a participant of this chat", http.StatusForbidden)
		return nil, primitive.NilObjectID, false
	}
	return chat, userID, true
}

// GetChatMessages 返回聊天室的歷史訊息，按時間由舊到新
func GetChatMessages(w http.ResponseWriter, r *http.Request) {
	chat, _, ok := loadChatForParticipant(w, r)
	if !ok {
		return
	}

	messages, err := database.GetChatMessages(chat.ID)
	if err != nil {
		log.Printf("Error fetching messages: %v", err)
		sendJSONError(w, "Failed to fetch messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

// SendMessage 發送訊息到聊天室，並即時推送給連線中的參與者
func SendMessage(w http.ResponseWriter, r *http.Request) {
	chat, userID, ok := loadChatForParticipant(w, r)
	if !ok {
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		sendJSONError(w, "Message text is required", http.StatusBadRequest)
		return
	}

	message, err := chatManager.SendMessage(r.Context(), chat.ID, userID, body.Text)
	if err != nil {
		log.Printf("Error sending message: %v", err)
		sendJSONError(w, "Failed to send message", http.StatusInternalServerError)
		return
	}

	// 透過 WebSocket 即時推送給聊天室的參與者
	websocket.GlobalHub.BroadcastChat(*message, chat.Participants)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(message)
}
