package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/butteredsaltedtoast/blitztactoe/internal/room"
	"github.com/butteredsaltedtoast/blitztactoe/internal/store"
)

type stubStore struct {
	pingErr error
}

func (s *stubStore) Save(context.Context, string, *store.Record) error { return nil }
func (s *stubStore) Load(context.Context, string) (*store.Record, error) {
	return nil, nil
}
func (s *stubStore) Delete(context.Context, string) error { return nil }
func (s *stubStore) Ping(context.Context) error           { return s.pingErr }
func (s *stubStore) Close() error                         { return nil }

func newTestHandler(st store.GameStore) *Handler {
	reg := room.NewRegistry(st, zerolog.Nop(), 100)
	return NewHandler(st, reg)
}

func TestHealthReportsHealthy(t *testing.T) {
	h := newTestHandler(&stubStore{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("status = %q, want healthy", resp.Status)
	}
	if resp.Checks["store"].Status != "pass" {
		t.Fatalf("store check = %+v", resp.Checks["store"])
	}
}

func TestHealthDegradedWhenStoreDown(t *testing.T) {
	h := newTestHandler(&stubStore{pingErr: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/health", nil))

	// Gameplay survives a dead store, so the endpoint still returns 200.
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", resp.Status)
	}
}

func TestListRoomsEmpty(t *testing.T) {
	h := newTestHandler(&stubStore{})

	rec := httptest.NewRecorder()
	h.ListRooms(rec, httptest.NewRequest("GET", "/api/rooms", nil))

	var resp struct {
		Rooms []room.ListingEntry `json:"rooms"`
		Count int                 `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 0 || len(resp.Rooms) != 0 {
		t.Fatalf("got %+v", resp)
	}
}

func TestRootListsEndpoints(t *testing.T) {
	h := newTestHandler(&stubStore{})

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest("GET", "/", nil))

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["service"] != "blitztactoe" {
		t.Fatalf("service = %v", resp["service"])
	}
}
