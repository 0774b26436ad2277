package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/varunnandan321-gif/blood-connect/database"
	"github.com/varunnandan321-gif/blood-connect/matching"
	"github.com/varunnandan321-gif/blood-connect/models"
	"github.com/varunnandan321-gif/blood-connect/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateRequest 發布新的血液請求
func CreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body models.CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	// 基本的輸入驗證
	if body.PatientName == "" || body.Location == "" || body.Contact == "" {
		sendJSONError(w, "Patient name, location, and contact are required", http.StatusBadRequest)
		return
	}
	if !models.IsValidBloodGroup(body.BloodGroup) {
		sendJSONError(w, "Invalid blood group", http.StatusBadRequest)
		return
	}
	if body.UnitsRequired <= 0 {
		sendJSONError(w, "Units required must be positive", http.StatusBadRequest)
		return
	}

	request := models.Request{
		PatientName:   body.PatientName,
		BloodGroup:    body.BloodGroup,
		Location:      body.Location,
		Contact:       body.Contact,
		Urgency:       body.Urgency,
		UnitsRequired: body.UnitsRequired,
		RequiredBy:    body.RequiredBy,
		RequesterID:   userID,
		Status:        models.RequestStatusActive,
		CreatedAt:     time.Now(),
	}

	result, err := database.InsertRequest(request)
	if err != nil {
		log.Printf("Error inserting request: %v", err)
		sendJSONError(w, "Failed to create request", http.StatusInternalServerError)
		return
	}
	request.ID = result.InsertedID.(primitive.ObjectID)

	// 通知鏡像重新讀取，所有連線中的客戶端會收到新的快照
	requestMirror.Invalidate()

	log.Printf("Blood request created: %s (%s)", request.ID.Hex(), request.BloodGroup)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(request)
}

// GetRequests 依檢視模式返回過濾後的請求列表
// 查詢參數: view (feed / my-requests / matches)、q (搜尋字串)、group (血型或 All)
func GetRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// matches 檢視需要知道使用者登記的血型
	user, err := database.GetUserByID(userID)
	if err != nil {
		log.Printf("Error finding user: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	filter := matching.Filter{
		View:  matching.View(r.URL.Query().Get("view")),
		Query: r.URL.Query().Get("q"),
		Group: r.URL.Query().Get("group"),
	}
	if filter.View == "" {
		filter.View = matching.ViewFeed
	}
	if filter.Group == "" {
		filter.Group = matching.GroupAny
	}

	// 優先使用鏡像的快照，鏡像尚未就緒時退回直接查詢資料庫
	snapshot := requestMirror.Latest()
	if snapshot == nil {
		snapshot, err = database.GetAllRequests(r.Context())
		if err != nil {
			log.Printf("Error fetching requests: %v", err)
			sendJSONError(w, "Failed to fetch requests", http.StatusInternalServerError)
			return
		}
	}

	viewer := matching.Viewer{ID: userID}
	if user.IsRegisteredDonor {
		viewer.BloodGroup = user.BloodGroup
	}

	filtered := matching.FilterRequests(snapshot, filter, viewer)
	if filtered == nil {
		filtered = []models.Request{} // 以空陣列而非 null 回應
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(filtered)
}

// FulfillRequest 將自己的請求標記為已完成
// 只有請求者本人能執行，且狀態只能從 active 前進到 fulfilled
func FulfillRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	requestID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		sendJSONError(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	modified, err := database.FulfillRequest(requestID, userID)
	if err != nil {
		log.Printf("Error fulfilling request: %v", err)
		sendJSONError(w, "Failed to fulfill request", http.StatusInternalServerError)
		return
	}

	if !modified {
		// 沒有更新到文件：再查一次以區分不存在、非本人、或已經完成
		request, findErr := database.GetRequestByID(requestID)
		switch {
		case findErr == mongo.ErrNoDocuments:
			sendJSONError(w, "Request not found", http.StatusNotFound)
		case findErr != nil:
			log.Printf("Error finding request: %v", findErr)
			sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		case request.RequesterID != userID:
			sendJSONError(w, "Only the requester can fulfill this request", http.StatusForbidden)
		default:
			sendJSONError(w, "Request is already fulfilled", http.StatusConflict)
		}
		return
	}

	requestMirror.Invalidate()

	log.Printf("Request fulfilled: %s", requestID.Hex())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Request fulfilled successfully"})
}

// DeleteRequest 強制刪除一筆請求，僅限管理員
func DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		sendJSONError(w, "Admin access required", http.StatusForbidden)
		return
	}

	vars := mux.Vars(r)
	requestID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		sendJSONError(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	if err := database.DeleteRequest(requestID); err != nil {
		log.Printf("Error deleting request: %v", err)
		sendJSONError(w, "Failed to delete request", http.StatusInternalServerError)
		return
	}

	requestMirror.Invalidate()

	log.Printf("Request deleted by admin: %s", requestID.Hex())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Request deleted successfully"})
}
