package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatrelay/internal/models"
	"chatrelay/internal/services"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

type relayService interface {
	Reply(ctx context.Context, message string) (string, error)
}

type connection struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// Hub serves chat over WebSocket with the same contract as POST /chat.
// Frames from one connection are relayed strictly in order.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*connection
	relay       relayService
	upgrader    websocket.Upgrader
}

func NewHub(relay relayService, allowedOrigin string) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*connection),
		relay:       relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessageSize)

	connID := uuid.New()
	connLogger := logger.With().Str("conn_id", connID.String()).Logger()
	// The HTTP request context ends once the handler returns.
	ctx, cancel := context.WithCancel(connLogger.WithContext(context.Background()))
	h.registerConnection(connID, &connection{conn: conn, cancel: cancel})

	go func() {
		defer h.unregisterConnection(connID)
		h.serve(ctx, conn)
	}()
}

func (h *Hub) serve(ctx context.Context, conn *websocket.Conn) {
	logger := zerolog.Ctx(ctx)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if err := h.handleFrame(ctx, conn, data); err != nil {
			logger.Warn().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

func (h *Hub) handleFrame(ctx context.Context, conn *websocket.Conn, data []byte) error {
	message, err := services.ParseChatRequest(data)
	if err != nil {
		return writeFrame(conn, errorFrame(err))
	}

	if err := writeFrame(conn, models.WSMessage{Type: models.WSTypeTyping}); err != nil {
		return err
	}

	reply, err := h.relay.Reply(ctx, message)
	if err != nil {
		return writeFrame(conn, errorFrame(err))
	}
	return writeFrame(conn, models.WSMessage{Type: models.WSTypeReply, Reply: reply})
}

func errorFrame(err error) models.WSMessage {
	_, resp := services.ErrorResponseFor(err)
	return models.WSMessage{
		Type:    models.WSTypeError,
		Error:   resp.Error,
		Code:    resp.Code,
		Details: resp.Details,
	}
}

func writeFrame(conn *websocket.Conn, msg models.WSMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (h *Hub) registerConnection(id uuid.UUID, c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[id] = c
}

func (h *Hub) unregisterConnection(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.connections[id]; ok {
		c.cancel()
		c.conn.Close()
		delete(h.connections, id)
	}
}

// Count reports the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close sends a going-away frame to every open connection, cancels its
// in-flight relay call and closes it.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range h.connections {
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.cancel()
		c.conn.Close()
	}
}
