// Package mirror 維護 requests 集合的即時記憶體鏡像
//
// 每次資料變動時整批重新讀取完整的有序集合（最新在前），
// 並把新的快照推送給所有訂閱者；訂閱者看到的永遠是完整替換後的結果，
// 不需要處理增量差異。
package mirror

import (
	"context"
	"log"
	"sync"

	"github.com/varunnandan321-gif/blood-connect/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// FetchFunc 重新讀取完整快照的函式，方便在測試中替換
type FetchFunc func(ctx context.Context) ([]models.Request, error)

// Mirror 是 requests 集合的即時鏡像
type Mirror struct {
	fetch FetchFunc

	mu     sync.RWMutex
	subs   map[int64]chan []models.Request
	nextID int64
	latest []models.Request
	primed bool

	kick chan struct{} // 重新整理的訊號，容量 1，多餘的訊號會被合併
}

// New 建立一個鏡像，需要再呼叫 Run 才會開始更新
func New(fetch FetchFunc) *Mirror {
	return &Mirror{
		fetch: fetch,
		subs:  make(map[int64]chan []models.Request),
		kick:  make(chan struct{}, 1),
	}
}

// Subscribe 註冊一個訂閱者，返回訂閱 ID 與接收快照的通道
// 如果鏡像已經有資料，訂閱後會立即收到目前的快照。
// 呼叫者必須在離開時呼叫 Unsubscribe，否則會洩漏訂閱
func (m *Mirror) Subscribe() (int64, <-chan []models.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	ch := make(chan []models.Request, 1)
	m.subs[id] = ch

	if m.primed {
		ch <- m.latest
	}
	return id, ch
}

// Unsubscribe 移除訂閱者並釋放通道
func (m *Mirror) Unsubscribe(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch, ok := m.subs[id]; ok {
		delete(m.subs, id)
		close(ch)
	}
}

// Latest 返回目前的快照（唯讀，呼叫者不可修改）
func (m *Mirror) Latest() []models.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// Invalidate 通知鏡像資料已經變動、需要重新讀取
// 不會阻塞；短時間內的多次呼叫會合併成一次重新讀取
func (m *Mirror) Invalidate() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Run 啟動鏡像的更新迴圈，直到 ctx 被取消
// 先做一次初始讀取，之後每次收到 Invalidate 訊號就重新讀取並廣播
func (m *Mirror) Run(ctx context.Context) {
	m.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.kick:
			m.refresh(ctx)
		}
	}
}

// refresh 重新讀取完整快照並推送給所有訂閱者
func (m *Mirror) refresh(ctx context.Context) {
	snapshot, err := m.fetch(ctx)
	if err != nil {
		// 訂閱失敗不會中斷鏡像，保留上一次的快照等下一次訊號
		log.Printf("Error refreshing request mirror: %v", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest = snapshot
	m.primed = true

	for id, ch := range m.subs {
		select {
		case ch <- snapshot:
		default:
			// 訂閱者還沒取走上一次的快照：丟掉舊的、放入最新的
			// 快照是整批替換，跳過中間狀態不影響正確性
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
				log.Printf("Mirror subscriber %d is not keeping up, dropped snapshot", id)
			}
		}
	}
}

// WatchRequests 透過 MongoDB change stream 監聽 requests 集合的變動
// 每次變動都觸發鏡像重新整理。Change stream 需要 replica set，
// 不可用時記錄訊息後返回，鏡像改為只依賴寫入端的 Invalidate 呼叫
func WatchRequests(ctx context.Context, collection *mongo.Collection, m *Mirror) {
	stream, err := collection.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		log.Printf("Change streams unavailable (%v), relying on local invalidation only.", err)
		return
	}
	defer stream.Close(ctx)

	log.Println("Watching requests collection via change stream.")
	for stream.Next(ctx) {
		m.Invalidate()
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Request change stream closed: %v", err)
	}
}
