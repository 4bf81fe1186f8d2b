package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/butteredsaltedtoast/blitztactoe/internal/room"
	"github.com/butteredsaltedtoast/blitztactoe/internal/store"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]*store.Record
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*store.Record)}
}

func (m *memStore) Save(_ context.Context, roomID string, rec *store.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[roomID] = rec
	return nil
}

func (m *memStore) Load(_ context.Context, roomID string) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[roomID], nil
}

func (m *memStore) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, roomID)
	return nil
}

func (m *memStore) Ping(_ context.Context) error { return nil }
func (m *memStore) Close() error                 { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	st := newMemStore()
	reg := room.NewRegistry(st, log, 100)
	coord := room.NewCoordinator(reg, st, log)

	r := chi.NewRouter()
	h := NewHandler(coord, log)
	r.Get("/ws/{roomID}", h.Serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent reads messages until one with the wanted type arrives.
func readEvent(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	conn.SetReadDeadline(deadline)
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("reading until %q: %v", wantType, err)
		}
		if msg["type"] == wantType {
			return msg
		}
		if time.Now().After(deadline) {
			t.Fatalf("no %q event before deadline", wantType)
		}
	}
}

func TestJoinReceivesInitSnapshot(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "/ws/test-room")

	init := readEvent(t, conn, "init")
	if init["symbol"] != "X" {
		t.Fatalf("first join symbol = %v, want X", init["symbol"])
	}
	if init["game_started"] != false {
		t.Fatalf("fresh room reports game_started = %v", init["game_started"])
	}
	if init["turn_time"] != store.DefaultTurnTime {
		t.Fatalf("turn_time = %v, want %v", init["turn_time"], store.DefaultTurnTime)
	}
}

func TestInvalidRoomIDRejectedBeforeUpgrade(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/bad%20room!"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial with invalid room id succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 response, got %+v", resp)
	}
}

func TestThirdConnectionGetsRoomFullError(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv, "/ws/full-room")
	readEvent(t, c1, "init")
	c2 := dial(t, srv, "/ws/full-room")
	readEvent(t, c2, "init")

	c3 := dial(t, srv, "/ws/full-room")
	msg := readEvent(t, c3, "error")
	if msg["message"] != "room is full" {
		t.Fatalf("error message = %v", msg["message"])
	}
}

func TestReadyFlowReachesGameStart(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv, "/ws/flow-room?turnTime=1")
	readEvent(t, c1, "init")
	c2 := dial(t, srv, "/ws/flow-room")
	readEvent(t, c2, "init")

	ready := []byte(`{"type":"player_ready"}`)
	if err := c1.WriteMessage(websocket.TextMessage, ready); err != nil {
		t.Fatalf("write ready: %v", err)
	}
	readEvent(t, c2, "player_ready")
	if err := c2.WriteMessage(websocket.TextMessage, ready); err != nil {
		t.Fatalf("write ready: %v", err)
	}

	cd := readEvent(t, c1, "countdown_start")
	if cd["countdown_seconds"] != 3.0 {
		t.Fatalf("countdown_seconds = %v, want 3", cd["countdown_seconds"])
	}

	start := readEvent(t, c1, "game_start")
	if start["turn"] != "X" {
		t.Fatalf("game starts with %v, want X", start["turn"])
	}
	if start["turn_time"] != 1.0 {
		t.Fatalf("turn_time = %v, want 1 from query param", start["turn_time"])
	}

	// X moves; both sides observe the turn change.
	if err := c1.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","index":4}`)); err != nil {
		t.Fatalf("write move: %v", err)
	}
	tc := readEvent(t, c2, "turn_change")
	if tc["turn"] != "O" {
		t.Fatalf("turn after move = %v, want O", tc["turn"])
	}
}

func TestMalformedMessageGetsErrorReply(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "/ws/err-room")
	readEvent(t, conn, "init")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","index":42}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readEvent(t, conn, "error")
	if !strings.Contains(msg["message"].(string), "index") {
		t.Fatalf("error message = %v", msg["message"])
	}

	// The connection survives the bad message.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"player_ready"}`)); err != nil {
		t.Fatalf("write after error: %v", err)
	}
	readEvent(t, conn, "player_ready")
}

func TestDisconnectBroadcastsPlayerLeft(t *testing.T) {
	srv := newTestServer(t)
	c1 := dial(t, srv, "/ws/leave-room")
	readEvent(t, c1, "init")
	c2 := dial(t, srv, "/ws/leave-room")
	readEvent(t, c2, "init")

	c2.Close()
	left := readEvent(t, c1, "player_left")
	if left["symbol"] != "O" {
		t.Fatalf("player_left symbol = %v, want O", left["symbol"])
	}
}

func TestRateLimiterAllowsBurstThenRejects(t *testing.T) {
	var rl rateLimiter
	for i := 0; i < messageLimit; i++ {
		if !rl.allow() {
			t.Fatalf("message %d rejected inside the limit", i+1)
		}
	}
	if rl.allow() {
		t.Fatal("message over the limit allowed")
	}
}

func TestRateLimiterRecoversAfterWindow(t *testing.T) {
	var rl rateLimiter
	for i := 0; i < messageLimit; i++ {
		rl.allow()
	}
	if rl.allow() {
		t.Fatal("limit not enforced")
	}
	time.Sleep(messageWindow + 50*time.Millisecond)
	if !rl.allow() {
		t.Fatal("limiter did not recover after the window passed")
	}
}
