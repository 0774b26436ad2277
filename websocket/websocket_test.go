package websocket

import (
	"testing"
	"time"

	"github.com/varunnandan321-gif/blood-connect/matching"
	"github.com/varunnandan321-gif/blood-connect/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newTestClient 建立一個沒有實際連線的客戶端，直接從 send 通道讀取事件
func newTestClient(h *Hub, userID primitive.ObjectID, bloodGroup string) *Client {
	return &Client{
		hub:      h,
		send:     make(chan Event, 16),
		UserID:   userID,
		notifier: matching.NewNotifier(matching.Viewer{ID: userID, BloodGroup: bloodGroup}),
	}
}

// receiveEvent 從客戶端通道讀取一個事件，超時則讓測試失敗
func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case event := <-c.send:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("等待事件超時")
		return Event{}
	}
}

func TestHub_SnapshotBroadcastAndMatchAlert(t *testing.T) {
	h := NewHub()
	go h.Run()

	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	client := newTestClient(h, me, "O-")
	h.register <- client

	// 第一次快照：廣播快照但不觸發提醒
	existing := models.Request{
		ID: primitive.NewObjectID(), BloodGroup: "A+", Location: "Taipei",
		RequesterID: other, Status: models.RequestStatusActive,
	}
	h.PushSnapshot([]models.Request{existing})

	event := receiveEvent(t, client)
	assert.Equal(t, EventRequestsSnapshot, event.Type)
	assert.Len(t, event.Requests, 1)

	// 血型相符的新請求到達：先收到快照、再收到提醒
	arrived := models.Request{
		ID: primitive.NewObjectID(), BloodGroup: "O-", Location: "Kaohsiung",
		RequesterID: other, Status: models.RequestStatusActive,
	}
	h.PushSnapshot([]models.Request{arrived, existing})

	event = receiveEvent(t, client)
	assert.Equal(t, EventRequestsSnapshot, event.Type)
	assert.Len(t, event.Requests, 2)

	event = receiveEvent(t, client)
	assert.Equal(t, EventMatchAlert, event.Type, "血型相符的新請求應該觸發提醒")
	assert.Equal(t, arrived.ID, event.Alert.RequestID)
}

func TestHub_DismissAlert(t *testing.T) {
	h := NewHub()
	go h.Run()

	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	client := newTestClient(h, me, "O-")
	h.register <- client

	existing := models.Request{
		ID: primitive.NewObjectID(), BloodGroup: "A+",
		RequesterID: other, Status: models.RequestStatusActive,
	}
	h.PushSnapshot([]models.Request{existing})
	receiveEvent(t, client) // snapshot

	arrived := models.Request{
		ID: primitive.NewObjectID(), BloodGroup: "O-", Location: "Tainan",
		RequesterID: other, Status: models.RequestStatusActive,
	}
	h.PushSnapshot([]models.Request{arrived, existing})
	receiveEvent(t, client) // snapshot
	receiveEvent(t, client) // alert

	// 使用者關閉提醒後應該收到清除事件
	h.dismiss <- client
	event := receiveEvent(t, client)
	assert.Equal(t, EventMatchAlertClear, event.Type)
}

func TestHub_ChatDeliveryOnlyToParticipants(t *testing.T) {
	h := NewHub()
	go h.Run()

	donor := primitive.NewObjectID()
	requester := primitive.NewObjectID()
	bystander := primitive.NewObjectID()

	donorClient := newTestClient(h, donor, "")
	bystanderClient := newTestClient(h, bystander, "")
	h.register <- donorClient
	h.register <- bystanderClient

	msg := models.Message{
		ID:       primitive.NewObjectID(),
		ChatID:   primitive.NewObjectID(),
		SenderID: requester,
		Text:     "Are you available today?",
	}
	h.BroadcastChat(msg, []primitive.ObjectID{donor, requester})

	// 參與者收到訊息
	event := receiveEvent(t, donorClient)
	assert.Equal(t, EventChatMessage, event.Type)
	assert.Equal(t, msg.ID, event.Message.ID)

	// 非參與者不應該收到任何事件
	select {
	case event := <-bystanderClient.send:
		t.Fatalf("非參與者不應該收到事件，卻收到了 %s", event.Type)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHub_LateClientGetsCurrentSnapshot(t *testing.T) {
	h := NewHub()
	go h.Run()

	other := primitive.NewObjectID()
	first := newTestClient(h, primitive.NewObjectID(), "")
	h.register <- first

	existing := models.Request{
		ID: primitive.NewObjectID(), BloodGroup: "A+",
		RequesterID: other, Status: models.RequestStatusActive,
	}
	h.PushSnapshot([]models.Request{existing})
	receiveEvent(t, first)

	// 晚連上的客戶端應該立即收到目前的快照
	late := newTestClient(h, primitive.NewObjectID(), "O-")
	h.register <- late
	event := receiveEvent(t, late)
	assert.Equal(t, EventRequestsSnapshot, event.Type)
	assert.Len(t, event.Requests, 1)

	// 初始快照不應該觸發提醒，即使裡面有血型相符的請求
	select {
	case event := <-late.send:
		t.Fatalf("初始快照不應該觸發提醒，卻收到了 %s", event.Type)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := newTestClient(h, primitive.NewObjectID(), "")
	h.register <- client
	h.unregister <- client

	assert.Eventually(t, func() bool {
		select {
		case _, open := <-client.send:
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "取消註冊後 send 通道應該被關閉")
}
