// Package store is the persistence gateway for durable room state.
//
// The gateway is a crash-recovery and horizontal-scaling aid, never a
// correctness dependency: callers treat every failure as non-fatal, and the
// in-memory room remains authoritative for a live process.
package store

import (
	"context"
	"encoding/json"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
)

// GameStore defines the interface for durable room records.
// Both RedisStore and SQLiteStore implement this interface.
type GameStore interface {
	Save(ctx context.Context, roomID string, rec *Record) error
	// Load returns (nil, nil) when no record exists for the room.
	Load(ctx context.Context, roomID string) (*Record, error)
	Delete(ctx context.Context, roomID string) error

	Ping(ctx context.Context) error
	Close() error
}

// Record holds the durable fields of a room. Live handles (connections,
// timers, locks) are process-local and never stored.
//
// Field names match the wire schema of earlier deployments; Decode fills
// defaults for anything an older record is missing.
type Record struct {
	Players          []game.Symbol        `json:"players"`
	Board            game.Board           `json:"board"`
	Turn             game.Symbol          `json:"turn"`
	Winner           game.Symbol          `json:"winner,omitempty"`
	LastStarter      game.Symbol          `json:"last_starter"`
	GameStarted      bool                 `json:"game_started"`
	TurnStarted      *float64             `json:"turn_started,omitempty"` // unix seconds
	TurnTime         float64              `json:"turn_time"`
	CountdownStarted *float64             `json:"countdown_started,omitempty"` // unix seconds
	CountdownSeconds *float64             `json:"countdown_seconds,omitempty"`
	ReadyStates      map[game.Symbol]bool `json:"ready_states"`
	RematchVotes     []game.Symbol        `json:"rematch_votes"`
	Private          bool                 `json:"private"`
	Name             string               `json:"name"`
	CreatedAt        float64              `json:"created_at"` // unix seconds
}

// Turn time bounds enforced on every decode, matching room creation.
const (
	MinTurnTime     = 0.5
	MaxTurnTime     = 5.0
	DefaultTurnTime = 5.0
)

// ClampTurnTime bounds a configured move deadline to the allowed range.
func ClampTurnTime(t float64) float64 {
	if t < MinTurnTime {
		return MinTurnTime
	}
	if t > MaxTurnTime {
		return MaxTurnTime
	}
	return t
}

// Encode serializes a record for storage.
func Encode(rec *Record) ([]byte, error) {
	return json.Marshal(rec)
}

// Decode deserializes a stored record, populating sensible defaults for any
// field absent in an older schema.
func Decode(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.Players == nil {
		rec.Players = []game.Symbol{}
	}
	if rec.RematchVotes == nil {
		rec.RematchVotes = []game.Symbol{}
	}
	if rec.ReadyStates == nil {
		rec.ReadyStates = map[game.Symbol]bool{game.X: false, game.O: false}
	}
	if !game.Valid(rec.Turn) {
		rec.Turn = game.X
	}
	if !game.Valid(rec.LastStarter) {
		rec.LastStarter = game.X
	}
	if rec.TurnTime == 0 {
		rec.TurnTime = DefaultTurnTime
	}
	rec.TurnTime = ClampTurnTime(rec.TurnTime)
	return &rec, nil
}
