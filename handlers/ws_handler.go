package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tour-server/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 16
)

// Broadcaster is the registry the websocket route feeds.
type Broadcaster interface {
	Subscribe(sub services.Subscriber)
	Unsubscribe(id string)
}

type WSHandler struct {
	hub      Broadcaster
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func NewWSHandler(hub Broadcaster, allowedOrigins []string, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		log:     log,
		clients: make(map[*wsClient]struct{}),
	}
}

// HandleWebSocket upgrades the request and registers the connection with the
// hub until the viewer goes away.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
		log:    h.log,
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.hub.Subscribe(c)
	h.log.Info("viewer connected", zap.String("client", c.id), zap.String("remote", r.RemoteAddr))

	go c.writePump()
	c.readPump()

	h.hub.Unsubscribe(c.id)
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.log.Info("viewer disconnected", zap.String("client", c.id))
}

// CloseAll disconnects every viewer, used on shutdown.
func (h *WSHandler) CloseAll() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

// wsClient is one viewer connection. Outgoing messages are queued on send and
// written by writePump, so a slow socket never blocks the hub.
type wsClient struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Ready() bool {
	select {
	case <-c.closed:
		return false
	default:
		return true
	}
}

func (c *wsClient) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.closed:
		return fmt.Errorf("client %s closed", c.id)
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.closed:
		return fmt.Errorf("client %s closed", c.id)
	case <-ctx.Done():
		return fmt.Errorf("client %s: %w", c.id, ctx.Err())
	default:
		return fmt.Errorf("client %s send buffer full", c.id)
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

// readPump discards viewer messages; it exists to notice disconnects and
// answer pings.
func (c *wsClient) readPump() {
	defer c.close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("websocket write failed", zap.String("client", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
