package mirror

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/varunnandan321-gif/blood-connect/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeSource 是測試用的資料來源，可以隨時替換快照內容
type fakeSource struct {
	mu   sync.Mutex
	data []models.Request
}

func (f *fakeSource) set(data []models.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = data
}

func (f *fakeSource) fetch(ctx context.Context) ([]models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, nil
}

// receiveSnapshot 從通道讀取一次快照，超時則讓測試失敗
func receiveSnapshot(t *testing.T, ch <-chan []models.Request) []models.Request {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("等待快照超時")
		return nil
	}
}

func TestMirror_InitialSnapshotAndInvalidate(t *testing.T) {
	req1 := models.Request{ID: primitive.NewObjectID(), BloodGroup: "A+"}
	source := &fakeSource{data: []models.Request{req1}}

	m := New(source.fetch)
	id, ch := m.Subscribe()
	defer m.Unsubscribe(id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// 初始讀取後就會收到第一次快照
	snap := receiveSnapshot(t, ch)
	assert.Len(t, snap, 1)
	assert.Equal(t, req1.ID, snap[0].ID)

	// 資料變動 + Invalidate 後收到整批替換的新快照
	req2 := models.Request{ID: primitive.NewObjectID(), BloodGroup: "O-"}
	source.set([]models.Request{req2, req1})
	m.Invalidate()

	snap = receiveSnapshot(t, ch)
	assert.Len(t, snap, 2, "快照應該被整批替換")
	assert.Equal(t, req2.ID, snap[0].ID, "最新的請求應該在最前面")
}

func TestMirror_LateSubscriberGetsCurrentSnapshot(t *testing.T) {
	req := models.Request{ID: primitive.NewObjectID()}
	source := &fakeSource{data: []models.Request{req}}

	m := New(source.fetch)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// 等待初始讀取完成
	assert.Eventually(t, func() bool {
		return len(m.Latest()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// 之後才訂閱的人應該立即收到目前的快照
	id, ch := m.Subscribe()
	defer m.Unsubscribe(id)

	snap := receiveSnapshot(t, ch)
	assert.Len(t, snap, 1)
}

func TestMirror_UnsubscribeClosesChannel(t *testing.T) {
	source := &fakeSource{}
	m := New(source.fetch)

	id, ch := m.Subscribe()
	m.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open, "取消訂閱後通道應該被關閉")

	// 重複取消訂閱不應該 panic
	m.Unsubscribe(id)
}

func TestMirror_SlowSubscriberGetsLatest(t *testing.T) {
	req1 := models.Request{ID: primitive.NewObjectID()}
	source := &fakeSource{data: []models.Request{req1}}

	m := New(source.fetch)
	id, ch := m.Subscribe()
	defer m.Unsubscribe(id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	// 等有了初始快照之後連續觸發兩次更新，訂閱者都沒有取走
	assert.Eventually(t, func() bool { return len(m.Latest()) == 1 }, 2*time.Second, 10*time.Millisecond)

	req2 := models.Request{ID: primitive.NewObjectID()}
	source.set([]models.Request{req2, req1})
	m.Invalidate()
	assert.Eventually(t, func() bool { return len(m.Latest()) == 2 }, 2*time.Second, 10*time.Millisecond)

	req3 := models.Request{ID: primitive.NewObjectID()}
	source.set([]models.Request{req3, req2, req1})
	m.Invalidate()
	assert.Eventually(t, func() bool { return len(m.Latest()) == 3 }, 2*time.Second, 10*time.Millisecond)

	// 慢的訂閱者取到的應該是最新的快照，中間狀態被丟棄
	var snap []models.Request
	for {
		s := receiveSnapshot(t, ch)
		if len(s) >= 3 {
			snap = s
			break
		}
	}
	assert.Equal(t, req3.ID, snap[0].ID)
}
