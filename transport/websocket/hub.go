package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Time allowed for a client action to complete.
	actionTimeout = 5 * time.Second
)

// EventStateUpdate carries a full game state snapshot
const EventStateUpdate = "state_update"

// EventError reports a failed client action back to the sender only
const EventError = "error"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message represents a WebSocket message sent to clients
type Message struct {
	SessionID string            `json:"session_id"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// ClientAction is a command sent by a connected client, for example
// {"action":"reveal","card_id":3}
type ClientAction struct {
	Action string `json:"action"`
	CardID int    `json:"card_id"`
	GameID string `json:"game_id,omitempty"`
	Config string `json:"config,omitempty"`
}

// ActionFunc executes a client action against a session
type ActionFunc func(ctx context.Context, sessionID string, action ClientAction) error

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and broadcasts messages.
// Only the Run goroutine mutates the session map.
type Hub struct {
	// Registered clients by lower-cased session ID
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	broadcast  chan *Message
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	action ActionFunc
	logger *logrus.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, engine.WebSocketBufferSize),
		direct:     make(chan directMessage, engine.WebSocketBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// SetActionFunc enables client actions; without it incoming messages are ignored.
// Call before Run.
func (h *Hub) SetActionFunc(fn ActionFunc) {
	h.action = fn
}

// Run starts the hub's event loop and blocks until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case m := <-h.direct:
			h.sendDirect(m)
		}
	}
}

// shutdown closes every client once the loop has stopped
func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for key, clients := range h.sessions {
		for client := range clients {
			close(client.send)
		}
		delete(h.sessions, key)
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, engine.WebSocketBufferSize),
		sessionID: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastToSession sends a game state update to all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, state *engine.GameState) {
	h.enqueue(&Message{
		SessionID: sessionID,
		GameState: state,
		Event:     EventStateUpdate,
	})
}

// BroadcastEvent sends a named event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// ClientCount returns the number of clients watching a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[strings.ToLower(sessionID)])
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	key := strings.ToLower(client.sessionID)

	h.mu.Lock()
	if h.sessions[key] == nil {
		h.sessions[key] = make(map[*Client]bool)
	}
	h.sessions[key][client] = true
	total := len(h.sessions[key])
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"session": client.sessionID,
		"clients": total,
	}).Debug("WebSocket client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	key := strings.ToLower(client.sessionID)

	h.mu.Lock()
	clients, ok := h.sessions[key]
	if !ok || !clients[client] {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, key)
	}
	remaining := len(clients)
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"session": client.sessionID,
		"clients": remaining,
	}).Debug("WebSocket client unregistered")
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to marshal broadcast message")
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[strings.ToLower(message.SessionID)]))
	for client := range h.sessions[strings.ToLower(message.SessionID)] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer
			h.unregisterClient(client)
		}
	}
}

// sendDirect delivers a reply to one client if it is still registered
func (h *Hub) sendDirect(m directMessage) {
	h.mu.RLock()
	registered := h.sessions[strings.ToLower(m.client.sessionID)][m.client]
	h.mu.RUnlock()
	if !registered {
		return
	}

	select {
	case m.client.send <- m.data:
	default:
		h.unregisterClient(m.client)
	}
}

// reply queues a message for a single client
func (c *Client) reply(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case c.hub.direct <- directMessage{client: c, data: data}:
	case <-c.hub.done:
	}
}

// handle runs one incoming client message through the hub's action func
func (c *Client) handle(raw []byte) {
	if c.hub.action == nil {
		return
	}

	var action ClientAction
	if err := json.Unmarshal(raw, &action); err != nil || action.Action == "" {
		c.reply(&Message{SessionID: c.sessionID, Event: EventError, Data: "malformed action"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	if err := c.hub.action(ctx, c.sessionID, action); err != nil {
		c.hub.logger.WithError(err).WithFields(logrus.Fields{
			"session": c.sessionID,
			"action":  action.Action,
		}).Debug("WebSocket action failed")
		c.reply(&Message{SessionID: c.sessionID, Event: EventError, Data: err.Error()})
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).WithField("session", c.sessionID).Warn("WebSocket read error")
			}
			break
		}
		c.handle(raw)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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
				// The hub closed the channel
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
