package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/onnwee/nbody-sim/internal/logger"
	"github.com/onnwee/nbody-sim/internal/metrics"
	"github.com/onnwee/nbody-sim/internal/session"
	"github.com/onnwee/nbody-sim/internal/sim"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// How often the hub samples running sessions for subscribers
	frameInterval = 50 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins here - CORS middleware handles this
		return true
	},
}

// WebSocketMessage is the envelope for every message sent to clients.
type WebSocketMessage struct {
	Type    string `json:"type"` // "frame", "subscribed", "error", "ping"
	Payload any    `json:"payload"`
}

// FrameMessage carries one snapshot of a session's bodies.
type FrameMessage struct {
	SessionID string     `json:"session_id"`
	Step      uint64     `json:"step"`
	Running   bool       `json:"running"`
	Bodies    []sim.Body `json:"bodies"`
}

// Client is one WebSocket connection subscribed to at most one session.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu        sync.RWMutex
	sessionID string
	lastStep  uint64
	sentFirst bool
}

func (c *Client) subscription() (string, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID, c.lastStep, c.sentFirst
}

func (c *Client) subscribe(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.lastStep = 0
	c.sentFirst = false
}

func (c *Client) markSent(step uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastStep = step
	c.sentFirst = true
}

// Hub maintains the set of active clients and fans session frames out to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	manager    *session.Manager
	stop       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub backed by the session manager.
func NewHub(m *session.Manager) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		manager:    m,
		stop:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and the frame broadcaster.
func (h *Hub) Run(ctx context.Context) {
	go h.broadcastFrames(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()
			logger.Info("websocket client connected", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketConnections.Dec()
				logger.Info("websocket client disconnected", "total_clients", len(h.clients))
			}
			h.mu.Unlock()
		}
	}
}

// broadcastFrames periodically samples subscribed sessions and sends a
// frame to every client that has not yet seen the current step.
func (h *Hub) broadcastFrames(ctx context.Context) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stop:
			return
		case <-ticker.C:
			h.sendFrames()
		}
	}
}

func (h *Hub) sendFrames() {
	h.mu.RLock()
	bySession := make(map[string][]*Client)
	for client := range h.clients {
		id, _, _ := client.subscription()
		if id != "" {
			bySession[id] = append(bySession[id], client)
		}
	}
	h.mu.RUnlock()

	if len(bySession) == 0 {
		return
	}

	sent := 0
	for sessionID, clients := range bySession {
		s, err := h.manager.Get(sessionID)
		if err != nil {
			// Session was deleted out from under its subscribers.
			data := mustMarshal(WebSocketMessage{
				Type:    "error",
				Payload: map[string]any{"message": "session no longer exists", "session_id": sessionID},
			})
			for _, client := range clients {
				client.subscribe("")
				client.trySend(data)
			}
			continue
		}

		info := s.Info()
		var frame []byte
		for _, client := range clients {
			_, lastStep, sentFirst := client.subscription()
			if sentFirst && lastStep == info.StepCount {
				continue
			}
			if frame == nil {
				frame = mustMarshal(WebSocketMessage{
					Type: "frame",
					Payload: FrameMessage{
						SessionID: sessionID,
						Step:      info.StepCount,
						Running:   info.Running,
						Bodies:    s.Bodies(),
					},
				})
				if frame == nil {
					break
				}
			}
			if client.trySend(frame) {
				client.markSent(info.StepCount)
				sent++
			}
		}
	}

	if sent > 0 {
		metrics.WebSocketMessagesSent.Add(float64(sent))
	}
}

func mustMarshal(msg WebSocketMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to marshal websocket message", "error", err, "type", msg.Type)
		return nil
	}
	return data
}

// trySend enqueues data without blocking. Returns false if the client's
// buffer is full.
func (c *Client) trySend(data []byte) bool {
	if data == nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		logger.Warn("websocket client send buffer full, dropping frame")
		return false
	}
}

// readPump pumps messages from the WebSocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket unexpected close", "error", err)
			}
			break
		}

		var clientMsg map[string]any
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			continue
		}
		msgType, _ := clientMsg["type"].(string)
		if msgType != "subscribe" {
			continue
		}
		sessionID, _ := clientMsg["session_id"].(string)
		if sessionID == "" {
			continue
		}
		c.subscribe(sessionID)
		c.trySend(mustMarshal(WebSocketMessage{
			Type:    "subscribed",
			Payload: map[string]any{"session_id": sessionID},
		}))
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

// WebSocketHandler handles WebSocket connections for session streaming.
type WebSocketHandler struct {
	hub *Hub
}

// NewWebSocketHandler creates a handler and starts its hub in the background.
func NewWebSocketHandler(m *session.Manager) *WebSocketHandler {
	hub := NewHub(m)
	go hub.Run(context.Background())

	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket upgrades the connection and registers the client.
// A session to stream is chosen by the {id} path variable, a ?session=
// query parameter, or a later "subscribe" message.
// GET /ws/sessions/{id}, GET /api/ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		logger.Error("failed to upgrade to websocket", "error", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	sessionID := mux.Vars(r)["id"]
	if sessionID == "" {
		sessionID = r.URL.Query().Get("session")
	}
	if sessionID != "" {
		client.subscribe(sessionID)
	}

	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// GetHub returns the WebSocket hub for external use.
func (h *WebSocketHandler) GetHub() *Hub {
	return h.hub
}
