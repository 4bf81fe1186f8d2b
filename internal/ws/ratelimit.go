// Package ws is the WebSocket transport: connection upgrade, the read loop
// that feeds the room coordinator, and the buffered write pump that delivers
// room events back to the client.
package ws

import (
	"sync"
	"time"
)

const (
	// messageLimit and messageWindow bound inbound message rate per
	// connection. State lives on the connection and goes away with it.
	messageLimit  = 10
	messageWindow = time.Second
)

// rateLimiter is a sliding-window counter over recent message timestamps.
// With a limit of 10 the slice stays tiny, so no ring buffer is needed.
type rateLimiter struct {
	mu    sync.Mutex
	times []time.Time
}

// allow records one message attempt and reports whether it is within the
// window budget. Rejected attempts are not recorded.
func (rl *rateLimiter) allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-messageWindow)
	kept := rl.times[:0]
	for _, t := range rl.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	rl.times = kept

	if len(rl.times) >= messageLimit {
		return false
	}
	rl.times = append(rl.times, time.Now())
	return true
}
