// Package chat 負責聊天的建立與訊息發送
//
// 同一個 (請求, 捐血者, 請求者) 組合最多只會有一筆聊天：
// 建立前先查詢既有聊天，找到就直接重用。
package chat

import (
	"context"
	"time"

	"github.com/varunnandan321-gif/blood-connect/models"
	"github.com/varunnandan321-gif/blood-connect/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store 定義 Manager 需要的持久化操作，方便在測試中替換成 mock
type Store interface {
	// FindByRequestAndParticipants 尋找既有聊天，participants 為排序後的標準順序；找不到時返回 (nil, nil)
	FindByRequestAndParticipants(ctx context.Context, requestID primitive.ObjectID, participants []primitive.ObjectID) (*models.Chat, error)
	InsertChat(ctx context.Context, chat models.Chat) (primitive.ObjectID, error)
	InsertMessage(ctx context.Context, message models.Message) (primitive.ObjectID, error)
	SetLastMessage(ctx context.Context, chatID primitive.ObjectID, text string, at time.Time) error
}

// Manager 管理聊天的生命週期
type Manager struct {
	store Store
}

// NewManager 建立聊天管理器
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// ResolveOrCreate 為 (請求, 捐血者) 解析既有聊天，不存在時才建立新的
//
// 去重只在這裡檢查（資料庫端沒有唯一性約束），
// 重複點擊「我可以捐血」會得到同一筆聊天
func (m *Manager) ResolveOrCreate(ctx context.Context, req *models.Request, donor *models.User) (*models.Chat, bool, error) {
	// 參與者固定以排序後的順序儲存，查詢條件才能直接比對
	participants := []primitive.ObjectID{donor.ID, req.RequesterID}
	utils.SortObjectIDs(participants)

	existing, err := m.store.FindByRequestAndParticipants(ctx, req.ID, participants)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now()
	newChat := models.Chat{
		RequestID: req.ID,
		RequestDetails: models.RequestSummary{
			PatientName: req.PatientName,
			BloodGroup:  req.BloodGroup,
			Location:    req.Location,
		},
		DonorID:         donor.ID,
		DonorBloodGroup: donorGroupOrUnknown(donor),
		Participants:    participants,
		Users: map[string]string{
			donor.ID.Hex(): donor.Name,
			// 請求者這邊先用病患姓名當顯示名稱
			req.RequesterID.Hex(): req.PatientName,
		},
		LastMessage: "Chat initiated",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := m.store.InsertChat(ctx, newChat)
	if err != nil {
		return nil, false, err
	}
	newChat.ID = id
	return &newChat, true, nil
}

// SendMessage 在聊天中發送一則訊息
//
// 這是兩次獨立的寫入：先插入訊息，再更新聊天的 lastMessage/updatedAt。
// 兩次寫入之間沒有交易保護，第二次寫入失敗時訊息已經存在但摘要是舊的
func (m *Manager) SendMessage(ctx context.Context, chatID, senderID primitive.ObjectID, text string) (*models.Message, error) {
	now := time.Now()
	message := models.Message{
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: now,
	}

	id, err := m.store.InsertMessage(ctx, message)
	if err != nil {
		return nil, err
	}
	message.ID = id

	if err := m.store.SetLastMessage(ctx, chatID, text, now); err != nil {
		return nil, err
	}
	return &message, nil
}

func donorGroupOrUnknown(donor *models.User) string {
	if donor.BloodGroup == "" {
		return "Unknown"
	}
	return donor.BloodGroup
}
