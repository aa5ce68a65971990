package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/internal/market"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// EventEnvelope is the JSON frame pushed to websocket clients for every
// committed transition.
type EventEnvelope struct {
	Type       string            `json:"type"`
	MarketID   string            `json:"market_id"`
	Attributes map[string]string `json:"attributes"`
}

// hubClient represents a single WebSocket connection.
type hubClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	subs map[string]bool // subscribed market ids; empty means all
	mu   sync.RWMutex
}

// subscribeMsg is the JSON message a client sends to narrow its feed to
// specific markets.
type subscribeMsg struct {
	Action  string   `json:"action"` // "subscribe" or "unsubscribe"
	Markets []string `json:"markets"`
}

// Hub fans committed transition events out to connected WebSocket clients.
// It implements the app layer's event publisher.
type Hub struct {
	clients    map[*hubClient]bool
	broadcast  chan broadcastMsg
	register   chan *hubClient
	unregister chan *hubClient
	mu         sync.RWMutex
	logger     *zap.Logger
}

// broadcastMsg carries a frame along with its market id so the hub routes
// it only to clients subscribed to that market.
type broadcastMsg struct {
	marketID string
	data     []byte
}

// NewHub creates a websocket event hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*hubClient]bool),
		broadcast:  make(chan broadcastMsg, 256),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		logger:     logger,
	}
}

// Publish queues one committed transition for broadcast. Never blocks the
// committing transition: when the hub's buffer is full the event is
// dropped for websocket consumers (it is still durable in storage).
func (h *Hub) Publish(marketID string, res *market.Result) {
	attrs := make(map[string]string, len(res.Attributes))
	for _, a := range res.Attributes {
		attrs[a.Key] = a.Value
	}
	data, err := json.Marshal(EventEnvelope{
		Type:       res.Event,
		MarketID:   marketID,
		Attributes: attrs,
	})
	if err != nil {
		h.logger.Error("event-marshal-failed", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- broadcastMsg{marketID: marketID, data: data}:
	default:
		h.logger.Warn("event-dropped-hub-busy", zap.String("market_id", marketID))
	}
}

// Run starts the hub's main loop. It should be called in a goroutine and
// exits when the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("ws-client-connected", zap.Int("total_clients", h.clientCount()))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("ws-client-disconnected", zap.Int("total_clients", h.clientCount()))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if c.wantsMarket(msg.marketID) {
					select {
					case c.send <- msg.data:
					default:
						h.logger.Warn("ws-dropping-message-slow-client")
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleWS upgrades an HTTP request to a WebSocket connection and
// registers the client. GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws-upgrade-failed", zap.Error(err))
		return
	}

	c := &hubClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]bool),
	}

	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump reads subscription management frames from the client.
func (c *hubClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws-unexpected-close", zap.Error(err))
			}
			return
		}

		var sub subscribeMsg
		if jsonErr := json.Unmarshal(message, &sub); jsonErr == nil && sub.Action != "" {
			c.handleSubscription(sub)
		}
	}
}

// handleSubscription processes subscribe/unsubscribe requests. A client
// with no explicit subscriptions receives every market's events.
func (c *hubClient) handleSubscription(msg subscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Action {
	case "subscribe":
		for _, id := range msg.Markets {
			c.subs[id] = true
		}
	case "unsubscribe":
		for _, id := range msg.Markets {
			delete(c.subs, id)
		}
	}
}

func (c *hubClient) wantsMarket(marketID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subs) == 0 {
		return true
	}
	return c.subs[marketID]
}

// writePump pumps frames from the hub to the connection, with periodic
// pings for keepalive.
func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
