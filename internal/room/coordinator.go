package room

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
	"github.com/butteredsaltedtoast/blitztactoe/internal/metrics"
	"github.com/butteredsaltedtoast/blitztactoe/internal/protocol"
	"github.com/butteredsaltedtoast/blitztactoe/internal/store"
)

const (
	// CountdownSeconds is the fixed pre-game countdown duration.
	CountdownSeconds = 3.0

	// drawResetDelay is the grace period after a drawn game before the board
	// auto-resets, so clients can render the final position.
	drawResetDelay = 100 * time.Millisecond

	// MaxConnsPerRoom caps connection handles per room independently of the
	// seat check, guarding against stale-handle leaks.
	MaxConnsPerRoom = 2

	// storeTimeout bounds persistence calls made from timer callbacks, which
	// have no request context.
	storeTimeout = 2 * time.Second
)

// Coordinator owns the lifecycle of every room: join, move, ready and
// rematch votes, disconnects, and the timer callbacks that re-enter it.
// Every operation runs under the target room's lock for its full duration,
// including the persistence write.
type Coordinator struct {
	registry *Registry
	store    store.GameStore
	log      zerolog.Logger
}

// NewCoordinator creates a coordinator over the given registry and store.
func NewCoordinator(reg *Registry, st store.GameStore, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		registry: reg,
		store:    st,
		log:      log.With().Str("component", "coordinator").Logger(),
	}
}

// Registry exposes the underlying registry for read-only listing.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// persist writes the room's durable fields, swallowing failures: persistence
// is best-effort and must never fail the triggering operation.
// Caller must hold the room's lock.
func (c *Coordinator) persist(ctx context.Context, r *Room) {
	if err := c.store.Save(ctx, r.id, r.record()); err != nil {
		metrics.StoreFailures.Inc()
		c.log.Warn().Err(err).Str("room_id", r.id).Msg("failed to persist room")
	}
}

// Join seats a connection in the room, creating or restoring the room as
// needed, and replies with a full state snapshot. The first unused symbol is
// assigned, X before O. A second join to a room whose first game has not yet
// been played enters the ready-check phase; the game does not auto-start.
func (c *Coordinator) Join(ctx context.Context, roomID string, conn Conn, opts CreateOptions) (game.Symbol, error) {
	r, err := c.registry.GetOrCreate(ctx, roomID, opts)
	if err != nil {
		return game.Empty, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Staleness is resolved only by disconnects or the reaper, never
	// speculatively here: two seated symbols always refuse a join.
	if len(r.players) >= 2 || len(r.conns) >= MaxConnsPerRoom {
		return game.Empty, ErrRoomFull
	}

	symbol := r.seatFor()
	r.players = append(r.players, symbol)
	r.conns[conn.ID()] = conn
	r.seats[conn.ID()] = symbol

	c.persist(ctx, r)

	conn.Send(r.initSnapshot(symbol))

	c.log.Info().
		Str("room_id", r.id).
		Str("symbol", string(symbol)).
		Str("conn_id", conn.ID()).
		Int("players", len(r.players)).
		Msg("player joined")

	return symbol, nil
}

// SetReady marks a symbol ready for the first game. When both seats are
// ready and no countdown is running yet, the countdown starts. Re-signaling
// an already-ready symbol persists but broadcasts nothing. Ready signals
// during any countdown (pre-game or post-draw) are ignored: the ready gate
// only ever precedes a countdown, never overlaps one.
func (c *Coordinator) SetReady(ctx context.Context, r *Room, symbol game.Symbol) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameStarted || r.winner != game.Empty || r.countdownStarted != nil || !r.hasPlayer(symbol) {
		return
	}

	already := r.readyStates[symbol]
	r.readyStates[symbol] = true

	if !already {
		r.broadcast(protocol.PlayerReady{
			Type:        "player_ready",
			ReadyStates: map[game.Symbol]bool{game.X: r.readyStates[game.X], game.O: r.readyStates[game.O]},
		})
	}

	if len(r.players) == 2 && r.readyStates[game.X] && r.readyStates[game.O] {
		c.startCountdown(r)
		r.broadcast(protocol.CountdownStart{
			Type:             "countdown_start",
			CountdownStarted: *unixFromTime(r.countdownStarted),
			CountdownSeconds: r.countdownSecs,
		})
	}

	c.persist(ctx, r)
}

// Move applies a move for symbol at the given cell. Illegal moves (finished
// game, not the mover's turn, occupied cell, game not active) are dropped
// silently: such races are expected and harmless.
func (c *Coordinator) Move(ctx context.Context, r *Room, symbol game.Symbol, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.winner != game.Empty || !r.gameStarted || r.turn != symbol || r.board[index] != game.Empty {
		return
	}

	r.board[index] = symbol
	metrics.MovesTotal.Inc()

	winner := game.Winner(r.board)
	switch {
	case winner != game.Empty:
		r.winner = winner
		r.gameStarted = false
		r.turnTimer.cancel()
		c.persist(ctx, r)
		r.broadcast(protocol.GameOver{Type: "game_over", Winner: winner, Board: r.board})
		metrics.GamesFinished.WithLabelValues("win").Inc()
		c.log.Info().Str("room_id", r.id).Str("winner", string(winner)).Msg("game over")

	case game.Full(r.board):
		r.winner = game.Draw
		r.gameStarted = false
		r.turnTimer.cancel()
		c.persist(ctx, r)
		r.broadcast(protocol.GameOver{Type: "game_over", Winner: game.Draw, Board: r.board})
		metrics.GamesFinished.WithLabelValues("draw").Inc()
		c.log.Info().Str("room_id", r.id).Msg("game drawn")

		// Draws auto-advance: after a short grace delay the board resets and
		// a fresh countdown starts, no votes required.
		time.AfterFunc(drawResetDelay, func() { c.drawReset(r) })

	default:
		r.turn = game.Opponent(r.turn)
		c.startTurn(r)
		c.persist(ctx, r)
		r.broadcast(protocol.TurnChange{
			Type:        "turn_change",
			Board:       r.board,
			Turn:        r.turn,
			TurnStarted: *unixFromTime(r.turnStarted),
			TurnTime:    r.turnTime,
		})
	}
}

// RequestRematch casts a rematch vote. Votes are only valid after a decisive
// (non-draw) ending; at two votes the board resets, the starter alternates,
// and a new countdown begins.
func (c *Coordinator) RequestRematch(ctx context.Context, r *Room, symbol game.Symbol) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !game.Valid(r.winner) || !r.hasPlayer(symbol) {
		return
	}

	r.rematchVotes[symbol] = true

	if len(r.rematchVotes) >= 2 {
		c.resetBoard(r)
		c.startCountdown(r)
		c.persist(ctx, r)
		r.broadcast(protocol.GameReset{
			Type:             "game_reset",
			Board:            r.board,
			Turn:             r.turn,
			TurnStarted:      nil,
			TurnTime:         r.turnTime,
			CountdownStarted: *unixFromTime(r.countdownStarted),
			CountdownSeconds: r.countdownSecs,
		})
		r.broadcast(protocol.CountdownStart{
			Type:             "countdown_start",
			CountdownStarted: *unixFromTime(r.countdownStarted),
			CountdownSeconds: r.countdownSecs,
		})
		c.log.Info().Str("room_id", r.id).Str("turn", string(r.turn)).Msg("rematch accepted")
		return
	}

	c.persist(ctx, r)
	r.broadcast(protocol.RematchRequested{Type: "rematch_requested", Symbol: symbol})
}

// Disconnect removes a connection's seat. Dropping below two players tears
// down timers and countdown/ready state; abandoning an active game with
// moves on the board awards the remaining player a forfeit win. An empty
// room is deleted from the registry and the store.
func (c *Coordinator) Disconnect(ctx context.Context, r *Room, connID string) {
	r.mu.Lock()

	symbol, seated := r.seats[connID]
	delete(r.conns, connID)
	delete(r.seats, connID)
	if !seated {
		r.mu.Unlock()
		return
	}

	wasActive := r.gameStarted && r.winner == game.Empty && r.anyMoveMade()

	r.removePlayer(symbol)
	delete(r.rematchVotes, symbol)

	if len(r.players) < 2 {
		r.turnTimer.cancel()
		r.countdownTimer.cancel()
		r.countdownStarted = nil
		r.countdownSecs = 0
		r.gameStarted = false
		r.turnStarted = nil
		r.readyStates[game.X] = false
		r.readyStates[game.O] = false

		if wasActive && len(r.players) == 1 {
			remaining := r.players[0]
			r.winner = remaining
			r.broadcast(protocol.GameOver{Type: "game_over", Winner: remaining, Board: r.board, Forfeit: true})
			metrics.GamesFinished.WithLabelValues("forfeit").Inc()
			c.log.Info().Str("room_id", r.id).Str("winner", string(remaining)).Msg("game forfeited")
		} else {
			r.broadcast(protocol.PlayerLeft{Type: "player_left", Symbol: symbol})
		}
	}

	empty := len(r.players) == 0
	if !empty {
		c.persist(ctx, r)
	}
	r.mu.Unlock()

	c.log.Info().
		Str("room_id", r.id).
		Str("symbol", string(symbol)).
		Str("conn_id", connID).
		Msg("player disconnected")

	if empty {
		c.registry.Remove(r.id)
		if err := c.store.Delete(ctx, r.id); err != nil {
			metrics.StoreFailures.Inc()
			c.log.Warn().Err(err).Str("room_id", r.id).Msg("failed to delete room record")
		}
	}
}

// startTurn stamps the turn start and (re)arms the turn timer.
// Caller must hold the room's lock.
func (c *Coordinator) startTurn(r *Room) {
	now := time.Now()
	r.turnStarted = &now
	r.countdownTimer.cancel() // turn phase and countdown phase are exclusive
	r.turnTimer.schedule(durationSeconds(r.turnTime), func(gen uint64) {
		c.turnTimeout(r, gen)
	})
}

// startCountdown enters the countdown phase and arms its timer. Callers
// broadcast countdown_start themselves so it sequences after any reset event.
// Caller must hold the room's lock.
func (c *Coordinator) startCountdown(r *Room) {
	now := time.Now()
	r.countdownStarted = &now
	r.countdownSecs = CountdownSeconds
	r.turnTimer.cancel()
	r.countdownTimer.schedule(durationSeconds(CountdownSeconds), func(gen uint64) {
		c.countdownElapsed(r, gen)
	})
}

// resetBoard clears the game for a new round, alternating the starter.
// Caller must hold the room's lock.
func (c *Coordinator) resetBoard(r *Room) {
	r.board = game.Board{}
	r.turn = game.Opponent(r.lastStarter)
	r.lastStarter = r.turn
	r.winner = game.Empty
	r.rematchVotes = make(map[game.Symbol]bool)
	r.turnStarted = nil
	r.turnTimer.cancel()
	r.countdownTimer.cancel()
}

// turnTimeout fires when a move deadline passes. It is behaviorally a pass:
// the turn flips, the timer restarts, and play continues.
func (c *Coordinator) turnTimeout(r *Room, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.turnTimer.current(gen) {
		return
	}
	if r.winner != game.Empty || !r.gameStarted {
		return
	}

	r.turn = game.Opponent(r.turn)
	c.startTurn(r)
	metrics.TurnTimeouts.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	c.persist(ctx, r)

	r.broadcast(protocol.TurnTimeout{
		Type:        "turn_timeout",
		Board:       r.board,
		Turn:        r.turn,
		TurnStarted: *unixFromTime(r.turnStarted),
		TurnTime:    r.turnTime,
	})
	c.log.Debug().Str("room_id", r.id).Str("turn", string(r.turn)).Msg("turn timed out")
}

// countdownElapsed fires when the pre-game countdown completes. With fewer
// than two players left it aborts back to waiting; otherwise the game goes
// active and the first turn timer starts.
func (c *Coordinator) countdownElapsed(r *Room, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.countdownTimer.current(gen) {
		return
	}

	r.countdownStarted = nil
	r.countdownSecs = 0

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if len(r.players) < 2 {
		c.persist(ctx, r)
		return
	}

	r.gameStarted = true
	r.everStarted = true
	r.readyStates[game.X] = false
	r.readyStates[game.O] = false
	c.startTurn(r)
	c.persist(ctx, r)

	r.broadcast(protocol.GameStart{
		Type:        "game_start",
		Turn:        r.turn,
		TurnStarted: *unixFromTime(r.turnStarted),
		TurnTime:    r.turnTime,
	})
	c.log.Info().Str("room_id", r.id).Str("turn", string(r.turn)).Msg("game started")
}

// drawReset performs the automatic post-draw reset. State is revalidated
// under the lock: the reset only proceeds if the draw still stands and both
// players are still seated.
func (c *Coordinator) drawReset(r *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.winner != game.Draw || len(r.players) < 2 {
		return
	}

	c.resetBoard(r)
	c.startCountdown(r)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	c.persist(ctx, r)

	r.broadcast(protocol.GameReset{
		Type:             "game_reset",
		Board:            r.board,
		Turn:             r.turn,
		TurnStarted:      nil,
		TurnTime:         r.turnTime,
		CountdownStarted: *unixFromTime(r.countdownStarted),
		CountdownSeconds: r.countdownSecs,
	})
	r.broadcast(protocol.CountdownStart{
		Type:             "countdown_start",
		CountdownStarted: *unixFromTime(r.countdownStarted),
		CountdownSeconds: r.countdownSecs,
	})
	c.log.Info().Str("room_id", r.id).Str("turn", string(r.turn)).Msg("draw auto-reset")
}

func durationSeconds(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
