package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func testState() *engine.GameState {
	return &engine.GameState{
		GameID:        "g-1",
		Cards:         []engine.Card{{ID: 0, FaceKey: 4, Revealed: true}, {ID: 1, FaceKey: 4}},
		PendingReveal: []int{0},
		Moves:         3,
		TotalPairs:    1,
	}
}

// waitFor polls cond until it holds or a second passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels not initialized")
	}
	if hub.logger == nil {
		t.Error("Expected default logger")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(quietLogger())
	client := newTestClient(hub, "Test-Session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered under the lower-cased session")
	}
	if hub.ClientCount("TEST-SESSION") != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount("TEST-SESSION"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(quietLogger())
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub(quietLogger())
	client1 := newTestClient(hub, "multi")
	client2 := newTestClient(hub, "multi")

	hub.registerClient(client1)
	hub.registerClient(client2)
	if hub.ClientCount("multi") != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.ClientCount("multi"))
	}

	hub.unregisterClient(client1)
	if hub.ClientCount("multi") != 1 || !hub.sessions["multi"][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub(quietLogger())
	target := newTestClient(hub, "room")
	other := newTestClient(hub, "elsewhere")
	hub.registerClient(target)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{SessionID: "ROOM", GameState: testState(), Event: EventStateUpdate})

	select {
	case data := <-target.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event %q, got %q", EventStateUpdate, message.Event)
		}
		if message.GameState.GameID != "g-1" || message.GameState.Moves != 3 {
			t.Error("GameState not correctly transmitted")
		}
	default:
		t.Fatal("Target client received nothing")
	}

	select {
	case <-other.send:
		t.Error("Client of another session received the broadcast")
	default:
	}
}

func TestHubSlowClientIsDropped(t *testing.T) {
	hub := NewHub(quietLogger())
	slow := &Client{hub: hub, sessionID: "s", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "s", Event: "a"})
	hub.broadcastMessage(&Message{SessionID: "s", Event: "b"})

	if hub.ClientCount("s") != 0 {
		t.Error("Expected slow client to be unregistered")
	}
}

func TestHubBroadcastEventQueues(t *testing.T) {
	hub := NewHub(quietLogger())

	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" || message.Event != "custom-event" || message.Data != "test-data" {
			t.Errorf("Unexpected message %+v", message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message queued")
	}
}

func TestHubStopped(t *testing.T) {
	hub := NewHub(quietLogger())
	client := newTestClient(hub, "x")
	hub.registerClient(client)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	if _, ok := <-client.send; ok {
		t.Error("Expected client channel closed on shutdown")
	}

	// Broadcasts after shutdown must not block once the buffer is full
	done := make(chan struct{})
	go func() {
		for i := 0; i < engine.WebSocketBufferSize+10; i++ {
			hub.BroadcastEvent("x", "late", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastEvent blocked after shutdown")
	}
}

func startHub(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return message
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := NewHub(quietLogger())
	server := startHub(t, hub)

	conn := dial(t, server, "ws-test")
	waitFor(t, "registration", func() bool { return hub.ClientCount("ws-test") == 1 })

	conn.Close()
	waitFor(t, "unregistration", func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub(quietLogger())
	server := startHub(t, hub)

	conn := dial(t, server, "msg-test")
	waitFor(t, "registration", func() bool { return hub.ClientCount("msg-test") == 1 })

	hub.BroadcastToSession("msg-test", testState())
	hub.BroadcastEvent("msg-test", service.EventMatch, map[string]int{"face_key": 4})

	first := readMessage(t, conn)
	if first.Event != EventStateUpdate || first.GameState == nil || first.GameState.Cards[0].FaceKey != 4 {
		t.Errorf("Unexpected state message %+v", first)
	}

	second := readMessage(t, conn)
	if second.Event != service.EventMatch {
		t.Errorf("Expected match event, got %q", second.Event)
	}
	if data, ok := second.Data.(map[string]interface{}); !ok || data["face_key"] != float64(4) {
		t.Errorf("Unexpected event data %#v", second.Data)
	}
}

// stubService records the calls client actions make
type stubService struct {
	service.GameService

	mu       sync.Mutex
	reveals  []int
	resolved []string
	newGames []string
}

func (s *stubService) Reveal(ctx context.Context, sessionID string, cardID int) (*service.RevealResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cardID < 0 {
		return nil, errors.New("bad card")
	}
	s.reveals = append(s.reveals, cardID)
	return &service.RevealResult{}, nil
}

func (s *stubService) ResolveMismatch(ctx context.Context, sessionID, gameID string) (*service.ResolveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = append(s.resolved, gameID)
	return &service.ResolveResult{}, nil
}

func (s *stubService) NewGame(ctx context.Context, sessionID, configName string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newGames = append(s.newGames, configName)
	return testState(), nil
}

func (s *stubService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return testState(), nil
}

func TestServiceActions(t *testing.T) {
	hub := NewHub(quietLogger())
	svc := &stubService{}
	actions := hub.ServiceActions(svc)
	ctx := context.Background()

	tests := []struct {
		name    string
		action  ClientAction
		wantErr bool
	}{
		{"reveal", ClientAction{Action: ActionReveal, CardID: 5}, false},
		{"reveal error", ClientAction{Action: ActionReveal, CardID: -1}, true},
		{"resolve", ClientAction{Action: ActionResolve, GameID: "g-1"}, false},
		{"new game", ClientAction{Action: ActionNewGame, Config: "hard"}, false},
		{"unknown", ClientAction{Action: "teleport"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := actions(ctx, "s1", tt.action)
			if (err != nil) != tt.wantErr {
				t.Errorf("action %q error = %v, wantErr %v", tt.action.Action, err, tt.wantErr)
			}
		})
	}

	if len(svc.reveals) != 1 || svc.reveals[0] != 5 {
		t.Errorf("Unexpected reveals %v", svc.reveals)
	}
	if len(svc.resolved) != 1 || svc.resolved[0] != "g-1" {
		t.Errorf("Unexpected resolves %v", svc.resolved)
	}
	if len(svc.newGames) != 1 || svc.newGames[0] != "hard" {
		t.Errorf("Unexpected new games %v", svc.newGames)
	}

	t.Run("state re-broadcasts", func(t *testing.T) {
		if err := actions(ctx, "s1", ClientAction{Action: ActionState}); err != nil {
			t.Fatal(err)
		}
		select {
		case message := <-hub.broadcast:
			if message.Event != EventStateUpdate || message.GameState == nil {
				t.Errorf("Unexpected message %+v", message)
			}
		default:
			t.Error("Expected a queued state update")
		}
	})
}

func TestWebSocketClientActions(t *testing.T) {
	hub := NewHub(quietLogger())
	svc := &stubService{}
	hub.SetActionFunc(hub.ServiceActions(svc))
	server := startHub(t, hub)

	conn := dial(t, server, "play")
	waitFor(t, "registration", func() bool { return hub.ClientCount("play") == 1 })

	if err := conn.WriteJSON(ClientAction{Action: ActionReveal, CardID: 2}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "reveal", func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.reveals) == 1 && svc.reveals[0] == 2
	})

	t.Run("failed action replies with error", func(t *testing.T) {
		conn.WriteJSON(ClientAction{Action: "teleport"})
		message := readMessage(t, conn)
		if message.Event != EventError {
			t.Errorf("Expected error event, got %+v", message)
		}
	})

	t.Run("malformed action", func(t *testing.T) {
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		message := readMessage(t, conn)
		if message.Event != EventError || message.Data != "malformed action" {
			t.Errorf("Expected malformed action error, got %+v", message)
		}
	})

	t.Run("state action", func(t *testing.T) {
		conn.WriteJSON(ClientAction{Action: ActionState})
		message := readMessage(t, conn)
		if message.Event != EventStateUpdate || message.GameState.GameID != "g-1" {
			t.Errorf("Expected state update, got %+v", message)
		}
	})
}
