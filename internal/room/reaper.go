package room

import (
	"context"
	"time"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
	"github.com/butteredsaltedtoast/blitztactoe/internal/metrics"
)

// RunReaper periodically evicts dead rooms until ctx is cancelled. Two kinds
// of rooms are reaped: rooms with no connections left, and rooms older than
// idleWindow in which no game has ever started (parked lobbies).
//
// The empty-room branch spares rooms younger than one interval. The registry
// inserts a room before the creating Join seats its connection, so a sweep
// in that window would see zero connections on a room that is not abandoned.
func (c *Coordinator) RunReaper(ctx context.Context, interval, idleWindow time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.log.Info().
		Dur("interval", interval).
		Dur("idle_window", idleWindow).
		Msg("room reaper started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("room reaper stopped")
			return
		case <-ticker.C:
			c.reapOnce(ctx, interval, idleWindow)
		}
	}
}

func (c *Coordinator) reapOnce(ctx context.Context, grace, idleWindow time.Duration) {
	now := time.Now()

	for _, r := range c.registry.List() {
		r.mu.Lock()
		reason := ""
		switch {
		case len(r.conns) == 0 && now.Sub(r.insertedAt) > grace:
			reason = "empty"
		case !r.everStarted && r.winner == game.Empty && now.Sub(r.createdAt) > idleWindow:
			reason = "idle"
		}
		if reason == "" {
			r.mu.Unlock()
			continue
		}

		r.turnTimer.cancel()
		r.countdownTimer.cancel()
		conns := make([]Conn, 0, len(r.conns))
		for _, conn := range r.conns {
			conns = append(conns, conn)
		}
		r.mu.Unlock()

		for _, conn := range conns {
			conn.Close()
		}

		c.registry.Remove(r.id)
		if err := c.store.Delete(ctx, r.id); err != nil {
			metrics.StoreFailures.Inc()
			c.log.Warn().Err(err).Str("room_id", r.id).Msg("failed to delete reaped room")
		}
		metrics.RoomsReaped.WithLabelValues(reason).Inc()
		c.log.Info().Str("room_id", r.id).Str("reason", reason).Msg("room reaped")
	}
}
