package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/varunnandan321-gif/blood-connect/database"
	"github.com/varunnandan321-gif/blood-connect/matching"
	"github.com/varunnandan321-gif/blood-connect/models"
)

// GetFacilities 返回血庫與醫院列表
// 查詢參數: q (不分大小寫搜尋名稱或地點)、group (只留下該血型有庫存的設施)
func GetFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := database.GetAllFacilities()
	if err != nil {
		log.Printf("Error fetching facilities: %v", err)
		sendJSONError(w, "Failed to fetch facilities", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query().Get("q")
	group := r.URL.Query().Get("group")
	if group == "" {
		group = matching.GroupAny
	}

	filtered := matching.FilterFacilities(facilities, query, group)
	if filtered == nil {
		filtered = []models.Facility{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(filtered)
}
