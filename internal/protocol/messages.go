// Package protocol defines the JSON messages exchanged over a game
// connection and the boundary validation applied before anything reaches the
// room coordinator.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
)

// ErrValidation marks malformed client input. It is the only error class a
// client ever sees as an "error" reply.
var ErrValidation = errors.New("validation error")

// Kind identifies a client message.
type Kind string

const (
	KindMove        Kind = "move"
	KindRematch     Kind = "rematch"
	KindPlayerReady Kind = "player_ready"
)

// ClientMessage is a validated inbound message.
type ClientMessage struct {
	Kind  Kind
	Index int // set for KindMove only
}

// rawClientMessage mirrors the loose wire shape before validation.
type rawClientMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Index  *int   `json:"index"`
}

// ParseClientMessage validates a raw client payload. Any problem is reported
// as an error wrapping ErrValidation.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var raw rawClientMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: malformed JSON", ErrValidation)
	}

	switch {
	case raw.Action == "rematch":
		return ClientMessage{Kind: KindRematch}, nil
	case raw.Type == "player_ready":
		return ClientMessage{Kind: KindPlayerReady}, nil
	case raw.Type == "move" || raw.Index != nil:
		if raw.Index == nil {
			return ClientMessage{}, fmt.Errorf("%w: missing 'index' field", ErrValidation)
		}
		if *raw.Index < 0 || *raw.Index >= game.BoardSize {
			return ClientMessage{}, fmt.Errorf("%w: 'index' must be between 0 and 8", ErrValidation)
		}
		return ClientMessage{Kind: KindMove, Index: *raw.Index}, nil
	default:
		return ClientMessage{}, fmt.Errorf("%w: unknown message type", ErrValidation)
	}
}

// Server events. Timestamps are unix seconds to match the client protocol.

// Init is the unicast snapshot a connection receives on join so a
// reconnecting client can resync.
type Init struct {
	Type             string               `json:"type"` // "init"
	Symbol           game.Symbol          `json:"symbol"`
	Board            game.Board           `json:"board"`
	Turn             game.Symbol          `json:"turn"`
	TurnTime         float64              `json:"turn_time"`
	GameStarted      bool                 `json:"game_started"`
	TurnStarted      *float64             `json:"turn_started"`
	CountdownStarted *float64             `json:"countdown_started"`
	CountdownSeconds *float64             `json:"countdown_seconds"`
	ReadyStates      map[game.Symbol]bool `json:"ready_states"`
}

// PlayerReady broadcasts the updated ready map.
type PlayerReady struct {
	Type        string               `json:"type"` // "player_ready"
	ReadyStates map[game.Symbol]bool `json:"ready_states"`
}

// CountdownStart announces the pre-game countdown.
type CountdownStart struct {
	Type             string  `json:"type"` // "countdown_start"
	CountdownStarted float64 `json:"countdown_started"`
	CountdownSeconds float64 `json:"countdown_seconds"`
}

// GameStart announces countdown completion.
type GameStart struct {
	Type        string      `json:"type"` // "game_start"
	Turn        game.Symbol `json:"turn"`
	TurnStarted float64     `json:"turn_started"`
	TurnTime    float64     `json:"turn_time"`
}

// TurnChange follows an accepted move that ended neither game nor turn phase.
type TurnChange struct {
	Type        string      `json:"type"` // "turn_change"
	Board       game.Board  `json:"board"`
	Turn        game.Symbol `json:"turn"`
	TurnStarted float64     `json:"turn_started"`
	TurnTime    float64     `json:"turn_time"`
}

// TurnTimeout is behaviorally a pass: same shape as TurnChange.
type TurnTimeout struct {
	Type        string      `json:"type"` // "turn_timeout"
	Board       game.Board  `json:"board"`
	Turn        game.Symbol `json:"turn"`
	TurnStarted float64     `json:"turn_started"`
	TurnTime    float64     `json:"turn_time"`
}

// GameOver reports a terminal state: a winning symbol, "draw", or a forfeit.
type GameOver struct {
	Type    string      `json:"type"` // "game_over"
	Winner  game.Symbol `json:"winner"`
	Board   game.Board  `json:"board"`
	Forfeit bool        `json:"forfeit,omitempty"`
}

// GameReset follows a completed rematch vote or a draw auto-reset.
type GameReset struct {
	Type             string      `json:"type"` // "game_reset"
	Board            game.Board  `json:"board"`
	Turn             game.Symbol `json:"turn"`
	TurnStarted      *float64    `json:"turn_started"`
	TurnTime         float64     `json:"turn_time"`
	CountdownStarted float64     `json:"countdown_started"`
	CountdownSeconds float64     `json:"countdown_seconds"`
}

// RematchRequested prompts the opponent after a single rematch vote.
type RematchRequested struct {
	Type   string      `json:"type"` // "rematch_requested"
	Symbol game.Symbol `json:"symbol"`
}

// PlayerLeft announces a departed seat.
type PlayerLeft struct {
	Type   string      `json:"type"` // "player_left"
	Symbol game.Symbol `json:"symbol"`
}

// ErrorReply is the unicast reply for boundary validation failures.
type ErrorReply struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
