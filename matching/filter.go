package matching

import (
	"strings"

	"github.com/varunnandan321-gif/blood-connect/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// View 代表請求列表的檢視模式
type View string

const (
	ViewFeed    View = "feed"        // 預設動態牆：所有進行中的請求
	ViewMine    View = "my-requests" // 自己發布的請求（包含已完成的）
	ViewMatches View = "matches"     // 與自己登記血型相符的請求
)

// GroupAny 表示不按血型過濾
const GroupAny = "All"

// Viewer 是傳入過濾函式的當前使用者資訊
// 以明確的參數傳遞，而不是全域狀態，方便撰寫純函式測試
type Viewer struct {
	ID         primitive.ObjectID
	BloodGroup string // 捐血者登記的血型；未登記時為空字串
}

// Filter 定義一次請求過濾的條件
type Filter struct {
	View  View
	Query string // 不分大小寫的子字串搜尋（地點或病患姓名）
	Group string // GroupAny 或八種血型之一；matches 檢視下會被忽略
}

// matchesQuery 檢查請求的地點或病患姓名是否包含搜尋字串（不分大小寫）
// 空字串會匹配所有請求
func matchesQuery(req models.Request, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(req.Location), q) ||
		strings.Contains(strings.ToLower(req.PatientName), q)
}

// matchesGroup 檢查血型過濾條件
func matchesGroup(req models.Request, group string) bool {
	return group == "" || group == GroupAny || req.BloodGroup == group
}

// FilterRequests 依照檢視模式、搜尋字串與血型過濾條件，計算要顯示的請求子集
// 輸入切片必須是鏡像提供的順序（最新在前），輸出會保留相同順序
//
// 規則的優先順序：
//  1. my-requests：只顯示自己發布的請求，包含已完成的
//  2. 其他檢視一律隱藏非 active 的請求
//  3. matches：需要已登記血型，只顯示血型相符的請求（忽略血型過濾條件）
//  4. feed：同時套用血型與搜尋過濾
func FilterRequests(reqs []models.Request, f Filter, viewer Viewer) []models.Request {
	filtered := make([]models.Request, 0, len(reqs))

	for _, req := range reqs {
		// 「我的請求」檢視：即使已完成也要顯示，讓請求者能看到歷史紀錄
		if f.View == ViewMine {
			if req.RequesterID == viewer.ID && matchesGroup(req, f.Group) && matchesQuery(req, f.Query) {
				filtered = append(filtered, req)
			}
			continue
		}

		// 已完成的請求不出現在任何公開檢視中
		if req.Status != models.RequestStatusActive {
			continue
		}

		if f.View == ViewMatches {
			// 使用者還沒登記血型時結果為空，由前端提示「請先更新捐血者資料」
			if viewer.BloodGroup == "" {
				continue
			}
			if req.BloodGroup == viewer.BloodGroup && matchesQuery(req, f.Query) {
				filtered = append(filtered, req)
			}
			continue
		}

		// 預設動態牆
		if matchesGroup(req, f.Group) && matchesQuery(req, f.Query) {
			filtered = append(filtered, req)
		}
	}

	return filtered
}

// FilterFacilities 過濾醫院/血庫列表
// 搜尋字串比對名稱或地點；血型過濾條件代表「該血型目前庫存 > 0」
func FilterFacilities(facs []models.Facility, query, group string) []models.Facility {
	filtered := make([]models.Facility, 0, len(facs))
	q := strings.ToLower(query)

	for _, fac := range facs {
		matchesSearch := q == "" ||
			strings.Contains(strings.ToLower(fac.Name), q) ||
			strings.Contains(strings.ToLower(fac.Location), q)
		matchesStock := group == "" || group == GroupAny ||
			(fac.Inventory != nil && fac.Inventory[group] > 0)

		if matchesSearch && matchesStock {
			filtered = append(filtered, fac)
		}
	}

	return filtered
}
