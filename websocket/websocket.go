package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/varunnandan321-gif/blood-connect/database"
	"github.com/varunnandan321-gif/blood-connect/matching"
	"github.com/varunnandan321-gif/blood-connect/mirror"
	"github.com/varunnandan321-gif/blood-connect/models"
	"github.com/varunnandan321-gif/blood-connect/utils"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// 將訊息寫入到遠端對等點的最長時間
	writeWait = 10 * time.Second

	// 允許從遠端對等點讀取下一個 pong 訊息的最長時間。
	pongWait = 60 * time.Second

	// 發送 ping 訊息給遠端對等點的週期。
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// 事件類型
const (
	EventRequestsSnapshot = "requests_snapshot" // 請求鏡像的完整快照
	EventMatchAlert       = "match_alert"       // 緊急配對提醒
	EventMatchAlertClear  = "match_alert_clear" // 提醒到期或被關閉
	EventChatMessage      = "chat_message"      // 新的聊天訊息
)

// Event 是推送給前端的即時事件
type Event struct {
	Type     string           `json:"type"`
	Requests []models.Request `json:"requests,omitempty"`
	Alert    *matching.Alert  `json:"alert,omitempty"`
	Message  *models.Message  `json:"message,omitempty"`
}

// clientAction 是前端透過 WebSocket 傳來的操作
type clientAction struct {
	Action string `json:"action"` // 目前只有 "dismiss_alert"
}

// chatDelivery 夾帶訊息與參與者列表，讓 Hub 知道要送給誰
type chatDelivery struct {
	message      models.Message
	participants []primitive.ObjectID
}

// upgrader 用於將 HTTP 連線升級為 WebSocket 連線
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 設定true:允許所有來源的連線
		return true
	},
}

// Client 代表一個 WebSocket 客戶端
type Client struct {
	hub      *Hub
	conn     *websocket.Conn // WebSocket 連線物件，透過它來讀寫訊息
	send     chan Event      // 用於發送事件的緩衝通道
	UserID   primitive.ObjectID
	notifier *matching.Notifier // 此使用者的配對提醒狀態機，只由 Hub 的迴圈操作
}

// 讀取用戶傳來的操作，並丟給 Hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("Client disconnected gracefully.")
			} else {
				log.Printf("Error reading message: %v", err)
			}
			break
		}

		var action clientAction
		if err := json.Unmarshal(p, &action); err != nil {
			log.Printf("Error unmarshalling client action: %v", err)
			continue
		}

		// 使用者點擊提醒：立即清除（前端同時切換到 matches 檢視）
		if action.Action == "dismiss_alert" {
			c.hub.dismiss <- c
		}
	}
}

// 接收 Hub 廣播來的事件，丟給前端
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 如果這個 channel 被關閉了（ok == false），就送出 CloseMessage
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			jsonEvent, err := json.Marshal(event)
			if err != nil {
				log.Printf("Error marshalling event: %v", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, jsonEvent); err != nil {
				log.Printf("Error writing event: %v", err)
				return
			}

		// 接收定時器以保持連線活躍並檢測客戶端是否仍在線。
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub 維護所有活躍的 WebSocket 客戶端，並處理事件的廣播
// 所有客戶端簿記（包含每個客戶端的 notifier）都只在 Run 的迴圈中操作，
// 不需要額外的鎖
type Hub struct {
	clients      map[*Client]bool
	lastSnapshot []models.Request      // 最近一次收到的快照，給剛連上的客戶端
	snapshots    chan []models.Request // 來自請求鏡像的快照
	chats        chan chatDelivery     // 新的聊天訊息
	register     chan *Client
	unregister   chan *Client
	dismiss      chan *Client // 使用者關閉提醒
	alertClear   chan *Client // 提醒滿 5 秒自動到期
}

// NewHub 創建並返回一個新的 Hub 實例
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		snapshots:  make(chan []models.Request, 1),
		chats:      make(chan chatDelivery, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		dismiss:    make(chan *Client),
		alertClear: make(chan *Client),
	}
}

// Run 啟動 Hub 的運行迴圈
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("Client %s connected. Total clients: %d", client.UserID.Hex(), len(h.clients))

			// 讓新連上的客戶端立即拿到目前的快照
			// 這也會完成 notifier 的初始化，之後的快照才會觸發提醒
			if h.lastSnapshot != nil {
				h.sendEvent(client, Event{Type: EventRequestsSnapshot, Requests: h.lastSnapshot})
				client.notifier.Observe(time.Now(), h.lastSnapshot)
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client %s disconnected. Total clients: %d", client.UserID.Hex(), len(h.clients))
			}

		case snapshot := <-h.snapshots:
			// 把完整快照推給所有客戶端，並檢查每個人的配對提醒
			h.lastSnapshot = snapshot
			now := time.Now()
			for client := range h.clients {
				h.sendEvent(client, Event{Type: EventRequestsSnapshot, Requests: snapshot})

				if alert := client.notifier.Observe(now, snapshot); alert != nil {
					h.sendEvent(client, Event{Type: EventMatchAlert, Alert: alert})
					// 滿 5 秒後自動清除
					c := client
					time.AfterFunc(matching.AlertDuration, func() {
						h.alertClear <- c
					})
				}
			}

		case delivery := <-h.chats:
			// 聊天訊息只送給參與者
			for client := range h.clients {
				for _, pid := range delivery.participants {
					if client.UserID == pid {
						msg := delivery.message
						h.sendEvent(client, Event{Type: EventChatMessage, Message: &msg})
						break
					}
				}
			}

		case client := <-h.dismiss:
			if _, ok := h.clients[client]; ok {
				client.notifier.Dismiss()
				h.sendEvent(client, Event{Type: EventMatchAlertClear})
			}

		case client := <-h.alertClear:
			// 客戶端可能已經離線，或提醒已被手動關閉
			if _, ok := h.clients[client]; ok && !client.notifier.Active(time.Now()) {
				h.sendEvent(client, Event{Type: EventMatchAlertClear})
			}
		}
	}
}

// sendEvent 非阻塞地發送事件，寫不進去就淘汰該客戶端
func (h *Hub) sendEvent(client *Client, event Event) {
	select {
	case client.send <- event:
	default:
		close(client.send)
		delete(h.clients, client)
		log.Printf("Client channel is full, unregistered client %s", client.UserID.Hex())
	}
}

// PushSnapshot 把新的請求快照交給 Hub（由鏡像的轉送迴圈呼叫）
func (h *Hub) PushSnapshot(snapshot []models.Request) {
	// 和鏡像一樣：客戶端只需要最新的快照，塞不進去就先丟掉舊的
	select {
	case h.snapshots <- snapshot:
	default:
		select {
		case <-h.snapshots:
		default:
		}
		select {
		case h.snapshots <- snapshot:
		default:
		}
	}
}

// BroadcastChat 把新的聊天訊息推送給所有參與者
func (h *Hub) BroadcastChat(message models.Message, participants []primitive.ObjectID) {
	h.chats <- chatDelivery{message: message, participants: participants}
}

// ConsumeMirror 訂閱請求鏡像並把快照轉送給 Hub，直到 ctx 被取消
// 離開時一定會取消訂閱，避免洩漏
func (h *Hub) ConsumeMirror(ctx context.Context, m *mirror.Mirror) {
	id, ch := m.Subscribe()
	defer m.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			h.PushSnapshot(snapshot)
		}
	}
}

// 全局 Hub 實例
var GlobalHub = NewHub()

// JWTSecret 由 main 在啟動時設定，用於驗證 WebSocket 連線的 token
var JWTSecret string

// HandleConnections 處理 WebSocket 連線請求
// 瀏覽器的 WebSocket API 無法自訂 Authorization header，token 改由查詢參數傳遞
func HandleConnections(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, "Token is required for WebSocket connection", http.StatusUnauthorized)
		return
	}

	claims, err := utils.ParseToken(tokenString, JWTSecret)
	if err != nil {
		log.Printf("Invalid WebSocket token: %v", err)
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	// 讀取使用者目前登記的血型來初始化配對提醒
	// 連線期間更新血型不會反映在這條連線上，重新連線後才會生效
	user, err := database.GetUserByID(claims.UserID)
	if err != nil {
		log.Printf("Error loading user %s for WebSocket: %v", claims.UserID.Hex(), err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		hub:      GlobalHub,
		conn:     conn,
		send:     make(chan Event, 256),
		UserID:   user.ID,
		notifier: matching.NewNotifier(matching.Viewer{ID: user.ID, BloodGroup: user.BloodGroup}),
	}
	client.hub.register <- client

	go client.writePump()
	client.readPump() // readPump 會在連線關閉時自動取消註冊
}
