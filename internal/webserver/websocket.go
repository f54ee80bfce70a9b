package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/ichi0g0y/fortune-wheel/internal/roulette"
	"github.com/ichi0g0y/fortune-wheel/internal/shared/logger"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsWriteWait  = 10 * time.Second
	wsSendBuffer = 256

	// EventWheelStatus is sent to each overlay right after it connects.
	EventWheelStatus = "wheel_status"
)

// WSMessage はWebSocketメッセージの構造を定義
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WSClient はオーバーレイ1枚分の接続
type WSClient struct {
	conn     *websocket.Conn
	send     chan []byte
	clientID string
}

// WSHub fans spin events out to every connected overlay.
type WSHub struct {
	clients    map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	broadcast  chan WSMessage
	mu         sync.RWMutex
	startOnce  sync.Once
}

var wsUpgrader = websocket.Upgrader{
	// オリジンの制限はCORS設定（ALLOWED_ORIGINS）側で行う
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

var wsHub = newWSHub()

func newWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		broadcast:  make(chan WSMessage, wsSendBuffer),
	}
}

// StartWSHub WebSocketハブを起動（複数回呼んでも1度だけ起動）
func StartWSHub() {
	wsHub.startOnce.Do(func() {
		go wsHub.run()
	})
}

// ClientCount returns the number of connected overlay clients.
func ClientCount() int {
	wsHub.mu.RLock()
	defer wsHub.mu.RUnlock()
	return len(wsHub.clients)
}

func (h *WSHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()

			logger.Info("Overlay connected",
				zap.String("clientId", client.clientID),
				zap.Int("total_clients", total))
			client.greet()

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			remaining := len(h.clients)
			h.mu.Unlock()

			if ok {
				logger.Info("Overlay disconnected",
					zap.String("clientId", client.clientID),
					zap.Int("remaining_clients", remaining))
			}

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *WSHub) fanOut(message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// フレームは次のフレームで追いつくので落とすだけ
			if message.Type == roulette.EventSpinFrame {
				continue
			}
			// 結果などを取りこぼすクライアントは切断して再接続させる
			go func(c *WSClient) {
				h.unregister <- c
				c.conn.Close()
			}(client)
		}
	}
}

// greet sends the client ID and the current wheel state so a late overlay draws the right angle.
func (c *WSClient) greet() {
	c.enqueue("connected", map[string]string{"clientId": c.clientID})
	if s := currentSession(); s != nil {
		c.enqueue(EventWheelStatus, s.Status())
	}
}

func (c *WSClient) enqueue(msgType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to marshal WebSocket message", zap.String("message_type", msgType), zap.Error(err))
		return
	}
	payload, err := json.Marshal(WSMessage{Type: msgType, Data: raw})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// BroadcastWSMessage すべてのクライアントにメッセージを送信
func BroadcastWSMessage(msgType string, data interface{}) {
	// spin_frameは頻繁すぎるのでログをスキップ
	if msgType != roulette.EventSpinFrame {
		logger.Debug("Broadcasting wheel event", zap.String("message_type", msgType))
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to marshal WebSocket broadcast data", zap.Error(err))
		return
	}

	select {
	case wsHub.broadcast <- WSMessage{Type: msgType, Data: jsonData}:
	default:
		logger.Warn("WebSocket broadcast channel full, message dropped", zap.String("message_type", msgType))
	}
}

// wsBroadcaster forwards session events to the hub.
type wsBroadcaster struct{}

func (wsBroadcaster) BroadcastMessage(msgType string, data interface{}) {
	BroadcastWSMessage(msgType, data)
}

func handleWS(w http.ResponseWriter, r *http.Request) {
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
		conn:     conn,
		send:     make(chan []byte, wsSendBuffer),
		clientID: clientID,
	}

	wsHub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump only keeps the connection alive. Overlays never send commands; spins go through the HTTP API.
func (c *WSClient) readPump() {
	defer func() {
		wsHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket read error", zap.String("clientId", c.clientID), zap.Error(err))
			}
			return
		}
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("WebSocket write failed", zap.String("clientId", c.clientID), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func generateClientID() string {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}
	return "ws-" + id
}

// RegisterWebSocketRoute WebSocketルートを登録
func RegisterWebSocketRoute(mux *http.ServeMux) {
	mux.HandleFunc("/ws", handleWS)

	StartWSHub()
}
