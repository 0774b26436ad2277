package matching

import (
	"fmt"
	"time"

	"github.com/varunnandan321-gif/blood-connect/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertDuration 是配對提醒自動消失的時間
const AlertDuration = 5 * time.Second

// Alert 代表一次「緊急配對」提醒
type Alert struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	RequestID   primitive.ObjectID `json:"requestId"` // 觸發提醒的最新請求
	raisedAt    time.Time
}

// Notifier 觀察連續的請求快照，當有新的請求與使用者登記的血型相符時發出提醒
//
// 新請求的判斷用 ID 集合比對前後兩次快照，而不是只比較長度；
// 即使兩次快照之間一次到達多筆請求，每一筆都會被檢查到。
// 每次快照轉換最多發出一則提醒（取最新的一筆配對），維持單一提示的行為。
type Notifier struct {
	viewer  Viewer
	seen    map[primitive.ObjectID]struct{} // 上一次快照中的請求 ID
	primed  bool                            // 是否已收到第一次快照
	current *Alert
}

// NewNotifier 建立一個追蹤特定使用者的 Notifier
func NewNotifier(viewer Viewer) *Notifier {
	return &Notifier{
		viewer: viewer,
		seen:   make(map[primitive.ObjectID]struct{}),
	}
}

// Observe 接收一次新的快照（最新在前），返回這次轉換產生的提醒
//
// 第一次快照只記錄狀態、不發出提醒（使用者剛上線時不需要被歷史請求轟炸）。
// 返回值為 nil 表示這次轉換沒有新的配對。
func (n *Notifier) Observe(now time.Time, snapshot []models.Request) *Alert {
	// 快照被整批替換，重建 ID 集合
	ids := make(map[primitive.ObjectID]struct{}, len(snapshot))
	for _, req := range snapshot {
		ids[req.ID] = struct{}{}
	}

	if !n.primed {
		n.primed = true
		n.seen = ids
		return nil
	}

	// 找出所有這次才出現、且與使用者血型相符的新請求
	var newest *models.Request
	for i := range snapshot {
		req := snapshot[i]
		if _, ok := n.seen[req.ID]; ok {
			continue
		}
		if req.Status != models.RequestStatusActive {
			continue
		}
		if n.viewer.BloodGroup == "" || req.BloodGroup != n.viewer.BloodGroup {
			continue
		}
		if req.RequesterID == n.viewer.ID {
			// 自己發布的請求不需要提醒自己
			continue
		}
		if newest == nil {
			// 快照是最新在前，第一筆符合的就是最新的配對
			newest = &req
		}
	}

	n.seen = ids

	if newest == nil {
		return nil
	}

	alert := &Alert{
		Title:       "Emergency Match!",
		Description: fmt.Sprintf("A new request for %s just arrived in %s.", newest.BloodGroup, newest.Location),
		RequestID:   newest.ID,
		raisedAt:    now,
	}
	n.current = alert
	return alert
}

// Active 返回目前是否有還沒過期的提醒
// 提醒在發出 5 秒後自動失效
func (n *Notifier) Active(now time.Time) bool {
	if n.current == nil {
		return false
	}
	if now.Sub(n.current.raisedAt) >= AlertDuration {
		n.current = nil
		return false
	}
	return true
}

// Dismiss 立即清除目前的提醒（使用者點擊提醒時呼叫，前端同時切換到 matches 檢視）
func (n *Notifier) Dismiss() {
	n.current = nil
}
