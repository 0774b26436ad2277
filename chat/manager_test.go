package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/varunnandan321-gif/blood-connect/models"
	"github.com/varunnandan321-gif/blood-connect/utils"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

func testRequestAndDonor() (*models.Request, *models.User) {
	req := &models.Request{
		ID:          primitive.NewObjectID(),
		PatientName: "Chen",
		BloodGroup:  "O-",
		Location:    "Taipei",
		RequesterID: primitive.NewObjectID(),
		Status:      models.RequestStatusActive,
	}
	donor := &models.User{
		ID:         primitive.NewObjectID(),
		Name:       "Lin",
		BloodGroup: "O-",
	}
	return req, donor
}

func TestResolveOrCreate_CreatesNewChat(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	mgr := NewManager(store)

	req, donor := testRequestAndDonor()
	chatID := primitive.NewObjectID()

	// 參與者應該以排序後的標準順序查詢與儲存
	wantParticipants := []primitive.ObjectID{donor.ID, req.RequesterID}
	utils.SortObjectIDs(wantParticipants)

	store.EXPECT().
		FindByRequestAndParticipants(gomock.Any(), req.ID, wantParticipants).
		Return(nil, nil)
	store.EXPECT().
		InsertChat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, chat models.Chat) (primitive.ObjectID, error) {
			// 驗證冗餘欄位都有帶上
			assert.Equal(t, req.ID, chat.RequestID)
			assert.Equal(t, "O-", chat.RequestDetails.BloodGroup)
			assert.Equal(t, "Taipei", chat.RequestDetails.Location)
			assert.Equal(t, wantParticipants, chat.Participants)
			assert.Equal(t, "Lin", chat.Users[donor.ID.Hex()])
			assert.Equal(t, "Chen", chat.Users[req.RequesterID.Hex()])
			assert.Equal(t, "Chat initiated", chat.LastMessage)
			return chatID, nil
		})

	chat, created, err := mgr.ResolveOrCreate(context.Background(), req, donor)
	assert.NoError(t, err)
	assert.True(t, created, "沒有既有聊天時應該建立新的")
	assert.Equal(t, chatID, chat.ID)
}

func TestResolveOrCreate_ReturnsExistingChat(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	mgr := NewManager(store)

	req, donor := testRequestAndDonor()
	existing := &models.Chat{ID: primitive.NewObjectID(), RequestID: req.ID}

	// 找到既有聊天時不應該呼叫 InsertChat
	store.EXPECT().
		FindByRequestAndParticipants(gomock.Any(), req.ID, gomock.Any()).
		Return(existing, nil)

	chat, created, err := mgr.ResolveOrCreate(context.Background(), req, donor)
	assert.NoError(t, err)
	assert.False(t, created, "已有聊天時不應該重複建立")
	assert.Equal(t, existing.ID, chat.ID)
}

func TestResolveOrCreate_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	mgr := NewManager(store)

	req, donor := testRequestAndDonor()
	chatID := primitive.NewObjectID()

	// 模擬連續點擊兩次「我可以捐血」：
	// 第一次建立聊天，第二次查到同一筆
	first := store.EXPECT().
		FindByRequestAndParticipants(gomock.Any(), req.ID, gomock.Any()).
		Return(nil, nil)
	store.EXPECT().
		InsertChat(gomock.Any(), gomock.Any()).
		Return(chatID, nil)
	store.EXPECT().
		FindByRequestAndParticipants(gomock.Any(), req.ID, gomock.Any()).
		Return(&models.Chat{ID: chatID, RequestID: req.ID}, nil).
		After(first)

	chat1, _, err := mgr.ResolveOrCreate(context.Background(), req, donor)
	assert.NoError(t, err)
	chat2, created, err := mgr.ResolveOrCreate(context.Background(), req, donor)
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, chat1.ID, chat2.ID, "兩次呼叫應該得到同一筆聊天")
}

func TestResolveOrCreate_UnknownDonorGroup(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	mgr := NewManager(store)

	req, donor := testRequestAndDonor()
	donor.BloodGroup = "" // 未登記血型的捐血者也能開始聊天

	store.EXPECT().
		FindByRequestAndParticipants(gomock.Any(), req.ID, gomock.Any()).
		Return(nil, nil)
	store.EXPECT().
		InsertChat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, chat models.Chat) (primitive.ObjectID, error) {
			assert.Equal(t, "Unknown", chat.DonorBloodGroup)
			return primitive.NewObjectID(), nil
		})

	_, _, err := mgr.ResolveOrCreate(context.Background(), req, donor)
	assert.NoError(t, err)
}

func TestSendMessage_TwoWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	mgr := NewManager(store)

	chatID := primitive.NewObjectID()
	senderID := primitive.NewObjectID()
	msgID := primitive.NewObjectID()

	// 先插入訊息，再更新父聊天的摘要
	gomock.InOrder(
		store.EXPECT().
			InsertMessage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg models.Message) (primitive.ObjectID, error) {
				assert.Equal(t, chatID, msg.ChatID)
				assert.Equal(t, senderID, msg.SenderID)
				assert.Equal(t, "I can donate tomorrow", msg.Text)
				return msgID, nil
			}),
		store.EXPECT().
			SetLastMessage(gomock.Any(), chatID, "I can donate tomorrow", gomock.Any()).
			Return(nil),
	)

	msg, err := mgr.SendMessage(context.Background(), chatID, senderID, "I can donate tomorrow")
	assert.NoError(t, err)
	assert.Equal(t, msgID, msg.ID)
}

func TestSendMessage_InsertFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	mgr := NewManager(store)

	// 第一次寫入失敗時不應該再更新聊天摘要
	store.EXPECT().
		InsertMessage(gomock.Any(), gomock.Any()).
		Return(primitive.NilObjectID, errors.New("insert failed"))

	_, err := mgr.SendMessage(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "hello")
	assert.Error(t, err)
}
