package room

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
	"github.com/butteredsaltedtoast/blitztactoe/internal/metrics"
	"github.com/butteredsaltedtoast/blitztactoe/internal/protocol"
	"github.com/butteredsaltedtoast/blitztactoe/internal/store"
)

var (
	// ErrRoomFull is returned when both seats are taken or the per-room
	// connection cap is reached.
	ErrRoomFull = errors.New("room is full")

	// ErrTooManyRooms is returned when the global room cap refuses creation.
	ErrTooManyRooms = errors.New("room limit reached")
)

// Registry is the process-wide mapping from room identifier to live room
// state. Rooms are created on first join (loading any durable record first)
// and removed the instant their player set becomes empty.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	store    store.GameStore
	log      zerolog.Logger
	maxRooms int
}

// CreateOptions carries the join-time room configuration; it only applies
// when the join creates the room.
type CreateOptions struct {
	Private  bool
	Name     string
	TurnTime float64
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(st store.GameStore, log zerolog.Logger, maxRooms int) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		store:    st,
		log:      log.With().Str("component", "registry").Logger(),
		maxRooms: maxRooms,
	}
}

// GetOrCreate returns the live room for id, materializing it from the store
// or creating it fresh. Creation persists the new room immediately so a
// concurrent load from another process sees it.
func (reg *Registry) GetOrCreate(ctx context.Context, id string, opts CreateOptions) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.rooms[id]; ok {
		return r, nil
	}

	if len(reg.rooms) >= reg.maxRooms {
		return nil, ErrTooManyRooms
	}

	rec, err := reg.store.Load(ctx, id)
	if err != nil {
		// Store trouble never blocks gameplay; fall through to a fresh room.
		metrics.StoreFailures.Inc()
		reg.log.Warn().Err(err).Str("room_id", id).Msg("failed to load room record")
		rec = nil
	}

	var r *Room
	if rec != nil {
		r = roomFromRecord(id, rec)
		reg.log.Info().Str("room_id", id).Msg("room restored from store")
	} else {
		r = newRoom(id, opts.Private, protocol.SanitizeName(opts.Name), opts.TurnTime)
		if err := reg.store.Save(ctx, id, r.record()); err != nil {
			metrics.StoreFailures.Inc()
			reg.log.Warn().Err(err).Str("room_id", id).Msg("failed to persist new room")
		}
		reg.log.Info().Str("room_id", id).Msg("room created")
	}

	reg.rooms[id] = r
	metrics.RoomsActive.Set(float64(len(reg.rooms)))
	return r, nil
}

// Get returns the live room for id, or nil.
func (reg *Registry) Get(id string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[id]
}

// Remove drops the room from the registry. The room's lock (part of the Room
// value) leaves with it, so locks cannot leak for dead rooms.
func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[id]; ok {
		delete(reg.rooms, id)
		metrics.RoomsActive.Set(float64(len(reg.rooms)))
	}
}

// List returns a snapshot of the live rooms.
func (reg *Registry) List() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r)
	}
	return out
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// ListingEntry is one row of the public room-listing view.
type ListingEntry struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
}

// Listing returns the public rooms with an open seat and no finished game.
// Each room's lock is held only long enough to copy two fields, so the view
// may lag live state slightly.
func (reg *Registry) Listing() []ListingEntry {
	rooms := reg.List()
	out := make([]ListingEntry, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		open := !r.private && r.winner == game.Empty && len(r.players) < 2
		n := len(r.players)
		r.mu.Unlock()
		if open {
			out = append(out, ListingEntry{Code: r.id, Players: n})
		}
	}
	return out
}
