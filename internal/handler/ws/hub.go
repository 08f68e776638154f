package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"StockCouncil/internal/domain/models"
	applogger "StockCouncil/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	// writeWait bounds a single frame write so a stalled peer cannot
	// hold its write loop (and the messages queued behind it) forever.
	writeWait = 5 * time.Second

	// sendBuffer is the per-client queue; when it is full the client is
	// lagging and further messages to it are dropped.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the wire envelope pushed to subscribers.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub broadcasts freshly synthesized recommendations to WebSocket
// subscribers. Each client gets its own bounded queue and write
// goroutine, so Broadcast never blocks on the network: a slow or dead
// client only loses its own messages.
type Hub struct {
	logger  *applogger.Logger
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func NewHub(logger *applogger.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// RegisterRoutes mounts the subscription endpoint.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/recommendations", h.Subscribe)
}

// Subscribe upgrades the connection and keeps it until the client leaves.
func (h *Hub) Subscribe(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade", applogger.Error(err))
		return err
	}

	send := make(chan []byte, sendBuffer)
	h.mu.Lock()
	h.clients[conn] = send
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("ws client connected", applogger.Int("total", total))

	go h.writeLoop(conn, send)

	defer func() {
		h.remove(conn)
		conn.Close()
		h.logger.Debug("ws client disconnected", applogger.Int("remaining", h.count()))
	}()

	// Drain client frames so pings and close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read", applogger.Error(err))
			}
			return nil
		}
	}
}

// writeLoop delivers queued messages to one client. Every write carries a
// deadline; the first failure unregisters the client.
func (h *Hub) writeLoop(conn *websocket.Conn, send chan []byte) {
	for data := range send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("ws broadcast write", applogger.Error(err))
			h.remove(conn)
			conn.Close()
			return
		}
	}
	conn.Close()
}

// remove unregisters a client and closes its queue, ending its write
// loop. Safe to call more than once per connection.
func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a recommendation for every subscriber without
// blocking: clients whose queues are full miss this message.
func (h *Hub) Broadcast(rec *models.Recommendation) {
	data, err := json.Marshal(Event{Type: "recommendation", Payload: rec})
	if err != nil {
		h.logger.Error("marshal ws event", applogger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- data:
		default:
			h.logger.Warn("ws client lagging, message dropped", applogger.String("ticker", rec.Ticker))
		}
	}
}

// Close shuts every open subscriber connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		close(send)
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]chan []byte)
}
