package webserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ichi0g0y/luckydraw/internal/appstate"
	"github.com/ichi0g0y/luckydraw/internal/dispatcher"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// WebSocketメッセージ種別
const (
	MsgConnected    = "connected"
	MsgStateChanged = "state_changed"
	MsgNotice       = "notice"
)

// WSMessage はWebSocketメッセージの構造を定義
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WSClient はWebSocket接続クライアントを表す
type WSClient struct {
	conn        *websocket.Conn
	send        chan []byte
	clientID    string
	connectedAt time.Time
}

// WSHub はすべてのWebSocket接続を管理
type WSHub struct {
	clients    map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	broadcast  chan WSMessage
	mu         sync.RWMutex
	done       chan struct{}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 共有リンクはどのオリジンからも開かれる
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		broadcast:  make(chan WSMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run はctxが終了するまでハブを動かす
func (h *WSHub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()

			logger.Info("WebSocket client connected",
				zap.String("clientId", client.clientID),
				zap.Int("total_clients", total))

			// 接続確認メッセージを送信
			if data, err := encodeWSMessage(MsgConnected, map[string]string{"clientId": client.clientID}); err == nil {
				select {
				case client.send <- data:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				remaining := len(h.clients)
				h.mu.Unlock()

				logger.Info("WebSocket client disconnected",
					zap.String("clientId", client.clientID),
					zap.Int("remaining_clients", remaining))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				logger.Error("Failed to marshal WebSocket message", zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// クライアントのバッファがフルの場合は切断
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()

		case <-ticker.C:
			h.mu.RLock()
			logger.Debug("WebSocket heartbeat", zap.Int("clients", len(h.clients)))
			h.mu.RUnlock()
		}
	}
}

// Done is closed after Run returns.
func (h *WSHub) Done() <-chan struct{} { return h.done }

func encodeWSMessage(msgType string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Data: raw})
}

// BroadcastWSMessage すべてのクライアントにメッセージを送信
func (h *WSHub) BroadcastWSMessage(msgType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to marshal WebSocket broadcast data", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- WSMessage{Type: msgType, Data: jsonData}:
		logger.Debug("WebSocket message queued for broadcast", zap.String("message_type", msgType))
	default:
		logger.Warn("WebSocket broadcast channel full, message dropped", zap.String("message_type", msgType))
	}
}

// Notify はユーザー向け通知をブロードキャストする
func (h *WSHub) Notify(n dispatcher.Notice) {
	h.BroadcastWSMessage(MsgNotice, n)
}

// PublishState は状態変更をブロードキャストする
func (h *WSHub) PublishState(state appstate.State) {
	h.BroadcastWSMessage(MsgStateChanged, state)
}

// handleWS WebSocket接続を処理
func (h *WSHub) handleWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = generateClientID()
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	client := &WSClient{
		conn:        conn,
		send:        make(chan []byte, 256),
		clientID:    clientID,
		connectedAt: time.Now(),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *WSClient) readPump(h *WSHub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket read error", zap.Error(err))
			}
			break
		}

		logger.Debug("Received WebSocket message from client",
			zap.String("clientId", c.clientID),
			zap.String("message", string(message)))
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// generateClientID クライアントIDを生成
func generateClientID() string {
	id, err := gonanoid.New()
	if err != nil {
		return "ws-" + time.Now().Format("150405.000000000")
	}
	return "ws-" + id
}
