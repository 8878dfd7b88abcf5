package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"event-link/backend/database"
	"event-link/backend/models"
	"event-link/backend/utils"

	"github.com/google/uuid"
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
	maxMessageSize = 4096
)

// upgrader 用於將 HTTP 連線升級為 WebSocket 連線
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 設定true:允許所有來源的連線
		return true
	},
}

// Client 代表一個 WebSocket 連線
// 連線是暫時性的:只有行程內的 handle，沒有持久化的身分，斷線即銷毀
// send 只有寫入端，永遠不會被關閉；連線的結束一律以 done 通知，
// 所以歷史回放與錯誤回報這些 Hub 之外的寫入端不可能寫到已關閉的 channel
type Client struct {
	ID      string             // 連線識別碼，只用於 log
	hub     *Hub               // 負責管理所有連線和訊息流
	conn    *websocket.Conn    // WebSocket 連線物件，透過它來讀寫訊息
	send    chan []byte        // 發送緩衝通道，內容是已序列化的訊框
	done    chan struct{}      // 由 Hub 關閉，通知所有寫入端這個連線已經結束
	UserID  primitive.ObjectID // 連線時以 JWT 驗證出的使用者
	EventID primitive.ObjectID // 連線訂閱的活動聊天室
}

// sendError 只對這個連線回報錯誤訊框，連線保持開啟
func (c *Client) sendError(message string) {
	frame, err := json.Marshal(models.ErrorFrame{
		Type:    models.FrameTypeError,
		Message: message,
	})
	if err != nil {
		log.Printf("Error marshalling error frame: %v", err)
		return
	}
	select {
	case c.send <- frame:
	case <-c.done:
		// 連線已經結束，回報沒有意義
	default:
		// 發送緩衝已滿就放棄，錯誤回報是盡力而為
	}
}

// readPump 讀取客戶端傳來的訊框，持久化後丟給 Hub 廣播
// 每個連線只有一個 readPump goroutine，同一連線的訊框嚴格依到達順序處理
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
				log.Printf("Client %s disconnected gracefully.", c.ID)
			} else {
				log.Printf("Error reading message from client %s: %v", c.ID, err)
			}
			break
		}

		// 解析收到的訊框，唯一認得的類型是 chat_message
		// 格式錯誤只回報給發送者，連線的價值在於延續性，不因壞訊框中斷
		var frame models.InboundFrame
		if err := json.Unmarshal(p, &frame); err != nil {
			log.Printf("Error unmarshalling frame from client %s: %v", c.ID, err)
			c.sendError("Invalid message format")
			continue
		}
		if frame.Type != models.FrameTypeChatMessage || frame.EventID == "" || frame.UserID == "" || frame.Message == "" {
			c.sendError("Invalid message format")
			continue
		}

		eventID, err := primitive.ObjectIDFromHex(frame.EventID)
		if err != nil {
			c.sendError("Invalid event ID format")
			continue
		}
		userID, err := primitive.ObjectIDFromHex(frame.UserID)
		if err != nil {
			c.sendError("Invalid user ID format")
			continue
		}

		// 訊框的發送者必須是連線時以 JWT 驗證出的那位使用者，不能冒名留言
		if userID != c.UserID {
			c.sendError("User ID does not match authenticated connection")
			continue
		}

		// 將訊息儲存到資料庫，時間戳由資料庫層指定（排序權威）
		// 儲存層的每次呼叫都帶 5 秒逾時，卡住的寫入會以錯誤訊框回報而不是讓連線懸置
		saved, err := c.hub.store.InsertChatMessage(eventID, userID, frame.Message)
		if err != nil {
			log.Printf("Error saving message from client %s: %v", c.ID, err)
			c.sendError("Failed to save message")
			continue
		}

		// 廣播已持久化的訊息（含發送者資料）給訂閱這個活動的所有連線
		c.hub.broadcast <- BroadcastMessage{EventID: eventID, Message: *saved}
	}
}

// writePump 接收 Hub 廣播來的訊框，寫給客戶端
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("Error writing message to client %s: %v", c.ID, err)
				return
			}

		// Hub 以 done 通知連線結束，這時送出 CloseMessage 並收工
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		// 定時器以保持連線活躍並檢測客戶端是否仍在線。
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BroadcastMessage 是一次廣播:已持久化的訊息與它所屬的活動
type BroadcastMessage struct {
	EventID primitive.ObjectID
	Message models.ChatMessageWithUser
}

// Hub 維護所有活躍的 WebSocket 連線，並處理訊息的廣播
// 連線集合只在 Run 這個 goroutine 中讀寫，註冊/註銷/廣播都透過 channel 傳遞，
// 所以不需要額外的鎖
type Hub struct {
	clients        map[*Client]bool
	clientsByEvent map[primitive.ObjectID]map[*Client]bool // 按活動 ID 索引的訂閱者集合
	broadcast      chan BroadcastMessage
	register       chan *Client
	unregister     chan *Client
	store          database.ChatStore
}

// NewHub 創建並返回一個新的 Hub 實例
func NewHub(store database.ChatStore) *Hub {
	return &Hub{
		broadcast:      make(chan BroadcastMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		clients:        make(map[*Client]bool),
		clientsByEvent: make(map[primitive.ObjectID]map[*Client]bool),
		store:          store,
	}
}

// Run 啟動 Hub 的運行迴圈
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			if _, ok := h.clientsByEvent[client.EventID]; !ok {
				h.clientsByEvent[client.EventID] = make(map[*Client]bool)
			}
			h.clientsByEvent[client.EventID][client] = true
			log.Printf("Client %s registered to event %s. Total clients in event: %d",
				client.ID, client.EventID.Hex(), len(h.clientsByEvent[client.EventID]))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if _, ok := h.clientsByEvent[client.EventID]; ok {
					delete(h.clientsByEvent[client.EventID], client)
					if len(h.clientsByEvent[client.EventID]) == 0 {
						delete(h.clientsByEvent, client.EventID) // 活動沒有訂閱者了，就移除這個房間
					}
				}
				close(client.done)
				log.Printf("Client %s unregistered from event %s.", client.ID, client.EventID.Hex())
			}
		case message := <-h.broadcast:
			// 只廣播給訂閱這個活動的連線，送達保證是 at-most-once 且盡力而為:
			// 廣播當下仍開啟的連線都會收到，已關閉的連線永遠不會收到
			// （漏掉的訊息由客戶端的輪詢備援補齊）
			frame, err := json.Marshal(models.OutboundFrame{
				Type: models.FrameTypeChatMessage,
				Data: message.Message,
			})
			if err != nil {
				log.Printf("Error marshalling broadcast frame: %v", err)
				continue
			}
			for client := range h.clientsByEvent[message.EventID] {
				select {
				case client.send <- frame:
				default:
					// 消化不了廣播的連線直接淘汰，避免拖慢整個房間
					close(client.done)
					delete(h.clientsByEvent[message.EventID], client)
					if len(h.clientsByEvent[message.EventID]) == 0 {
						delete(h.clientsByEvent, message.EventID)
					}
					delete(h.clients, client)
					log.Printf("Client channel is full, unregistered client %s from event %s",
						client.ID, message.EventID.Hex())
				}
			}
		}
	}
}

// ServeWS 回傳處理 WebSocket 升級請求的 handler
// 連線時以 eventId 查詢參數訂閱活動聊天室，以 token 查詢參數驗證身分
//（瀏覽器的 WebSocket API 無法設定 Authorization 標頭）
func ServeWS(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventIDStr := r.URL.Query().Get("eventId")
		tokenString := r.URL.Query().Get("token")

		if eventIDStr == "" || tokenString == "" {
			http.Error(w, "Event ID and token are required for WebSocket connection", http.StatusBadRequest)
			return
		}

		eventID, err := primitive.ObjectIDFromHex(eventIDStr)
		if err != nil {
			http.Error(w, "Invalid event ID format", http.StatusBadRequest)
			return
		}

		userID, err := utils.GetUserIDFromToken(tokenString, jwtSecret)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade to WebSocket: %v", err)
			return
		}

		client := &Client{
			ID:      uuid.NewString(),
			hub:     hub,
			conn:    conn,
			send:    make(chan []byte, 256),
			done:    make(chan struct{}),
			UserID:  userID,
			EventID: eventID,
		}
		client.hub.register <- client

		// 在單獨的 goroutine 中回放歷史訊息給新連線
		go func() {
			historicalMessages, err := hub.store.GetEventMessages(eventID)
			if err != nil {
				log.Printf("Error getting historical messages for event %s: %v", eventID.Hex(), err)
				return
			}

			// 歷史訊息已經由舊到新排序，依序發送
			for _, message := range historicalMessages {
				frame, err := json.Marshal(models.OutboundFrame{
					Type: models.FrameTypeChatMessage,
					Data: message,
				})
				if err != nil {
					log.Printf("Error marshalling historical message: %v", err)
					return
				}
				select {
				case client.send <- frame:
				case <-client.done:
					// 連線在回放完成前就結束了，剩下的歷史訊息不用送了
					return
				case <-time.After(time.Second): // 防止阻塞(如果訊框放入時等待超過1秒鐘就return)
					log.Printf("Timeout sending historical message to client %s in event %s", client.ID, eventID.Hex())
					return
				}
			}
		}()

		go client.writePump()
		client.readPump() // readPump 會在連線關閉時自動取消註冊
	}
}
