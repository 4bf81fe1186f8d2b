// Package room contains the per-room state machine that coordinates
// two-player game sessions: seats, board, turn phase, countdown and ready
// gating, rematch voting, and the timer tasks that drive timeouts.
//
// All mutation of a Room happens under its lock; rooms are otherwise fully
// independent. The registry map is the only process-wide structure.
package room

import (
	"sync"
	"time"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
	"github.com/butteredsaltedtoast/blitztactoe/internal/protocol"
	"github.com/butteredsaltedtoast/blitztactoe/internal/store"
)

// Conn is the transport-side handle for one joined connection. Send must not
// block: it enqueues onto the connection's ordered outbound buffer and
// reports false when the buffer is full (the event is then dropped for that
// connection only).
type Conn interface {
	ID() string
	Send(event any) bool
	Close()
}

// Room is the aggregate for one game session. It is created by the registry,
// shared with it by reference for lookup, and mutated exclusively by the
// coordinator under mu.
type Room struct {
	mu sync.Mutex

	id          string
	players     []game.Symbol
	conns       map[string]Conn        // conn ID -> handle
	seats       map[string]game.Symbol // conn ID -> symbol
	board       game.Board
	turn        game.Symbol
	winner      game.Symbol
	lastStarter game.Symbol
	gameStarted bool
	turnStarted *time.Time
	turnTime    float64 // seconds, fixed at creation

	countdownStarted *time.Time
	countdownSecs    float64

	readyStates  map[game.Symbol]bool
	rematchVotes map[game.Symbol]bool

	private   bool
	name      string
	createdAt time.Time

	// insertedAt is when this process put the room in the registry. Unlike
	// createdAt it is never restored from a record, so a just-restored old
	// room still counts as fresh locally.
	insertedAt time.Time

	// everStarted is process-local reaper state: true once any game in this
	// room's lifetime reached the active phase.
	everStarted bool

	turnTimer      timerSlot
	countdownTimer timerSlot
}

// newRoom builds a fresh room with default fields.
func newRoom(id string, private bool, name string, turnTime float64) *Room {
	return &Room{
		id:           id,
		players:      []game.Symbol{},
		conns:        make(map[string]Conn),
		seats:        make(map[string]game.Symbol),
		turn:         game.X,
		lastStarter:  game.X,
		turnTime:     store.ClampTurnTime(turnTime),
		readyStates:  map[game.Symbol]bool{game.X: false, game.O: false},
		rematchVotes: make(map[game.Symbol]bool),
		private:      private,
		name:         name,
		createdAt:    time.Now(),
		insertedAt:   time.Now(),
	}
}

// roomFromRecord materializes a room from a durable record. Timer and
// connection state is process-local and starts empty; seated players are
// restored so a room with a live record but crashed process refuses joins the
// same way the original process would have.
func roomFromRecord(id string, rec *store.Record) *Room {
	r := newRoom(id, rec.Private, rec.Name, rec.TurnTime)
	r.players = append(r.players[:0], rec.Players...)
	r.board = rec.Board
	r.turn = rec.Turn
	r.winner = rec.Winner
	r.lastStarter = rec.LastStarter
	r.gameStarted = rec.GameStarted
	r.turnStarted = timeFromUnix(rec.TurnStarted)
	r.countdownStarted = timeFromUnix(rec.CountdownStarted)
	if rec.CountdownSeconds != nil {
		r.countdownSecs = *rec.CountdownSeconds
	}
	for s, ready := range rec.ReadyStates {
		r.readyStates[s] = ready
	}
	for _, s := range rec.RematchVotes {
		r.rematchVotes[s] = true
	}
	if rec.CreatedAt > 0 {
		r.createdAt = time.Unix(0, int64(rec.CreatedAt*float64(time.Second)))
	}
	r.everStarted = rec.GameStarted || rec.Winner != game.Empty || r.board != (game.Board{})
	return r
}

// record snapshots the durable fields. Caller must hold mu.
func (r *Room) record() *store.Record {
	rec := &store.Record{
		Players:          append([]game.Symbol{}, r.players...),
		Board:            r.board,
		Turn:             r.turn,
		Winner:           r.winner,
		LastStarter:      r.lastStarter,
		GameStarted:      r.gameStarted,
		TurnStarted:      unixFromTime(r.turnStarted),
		TurnTime:         r.turnTime,
		CountdownStarted: unixFromTime(r.countdownStarted),
		ReadyStates:      map[game.Symbol]bool{game.X: r.readyStates[game.X], game.O: r.readyStates[game.O]},
		RematchVotes:     []game.Symbol{},
		Private:          r.private,
		Name:             r.name,
		CreatedAt:        float64(r.createdAt.UnixNano()) / float64(time.Second),
	}
	if r.countdownStarted != nil {
		secs := r.countdownSecs
		rec.CountdownSeconds = &secs
	}
	for _, s := range []game.Symbol{game.X, game.O} {
		if r.rematchVotes[s] {
			rec.RematchVotes = append(rec.RematchVotes, s)
		}
	}
	return rec
}

// initSnapshot builds the unicast join snapshot. Caller must hold mu.
func (r *Room) initSnapshot(symbol game.Symbol) protocol.Init {
	snap := protocol.Init{
		Type:             "init",
		Symbol:           symbol,
		Board:            r.board,
		Turn:             r.turn,
		TurnTime:         r.turnTime,
		GameStarted:      r.gameStarted,
		TurnStarted:      unixFromTime(r.turnStarted),
		CountdownStarted: unixFromTime(r.countdownStarted),
		ReadyStates:      map[game.Symbol]bool{game.X: r.readyStates[game.X], game.O: r.readyStates[game.O]},
	}
	if r.countdownStarted != nil {
		secs := r.countdownSecs
		snap.CountdownSeconds = &secs
	}
	return snap
}

// broadcast fans an event out to every joined connection. Caller must hold
// mu; events therefore reach each connection's ordered queue in the same
// order the coordinator emitted them.
func (r *Room) broadcast(event any) {
	for _, c := range r.conns {
		c.Send(event)
	}
}

// seatFor returns the first unused symbol, X before O.
// Caller must hold mu.
func (r *Room) seatFor() game.Symbol {
	for _, s := range r.players {
		if s == game.X {
			return game.O
		}
	}
	return game.X
}

// hasPlayer reports whether the symbol is seated. Caller must hold mu.
func (r *Room) hasPlayer(symbol game.Symbol) bool {
	for _, s := range r.players {
		if s == symbol {
			return true
		}
	}
	return false
}

// removePlayer unseats a symbol. Caller must hold mu.
func (r *Room) removePlayer(symbol game.Symbol) {
	out := r.players[:0]
	for _, s := range r.players {
		if s != symbol {
			out = append(out, s)
		}
	}
	r.players = out
}

// anyMoveMade reports whether any cell is occupied. Caller must hold mu.
func (r *Room) anyMoveMade() bool {
	return r.board != (game.Board{})
}

// ID returns the room identifier. The ID is immutable, so no lock is needed.
func (r *Room) ID() string {
	return r.id
}

func timeFromUnix(secs *float64) *time.Time {
	if secs == nil {
		return nil
	}
	t := time.Unix(0, int64(*secs*float64(time.Second)))
	return &t
}

func unixFromTime(t *time.Time) *float64 {
	if t == nil {
		return nil
	}
	secs := float64(t.UnixNano()) / float64(time.Second)
	return &secs
}
