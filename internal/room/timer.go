package room

import "time"

// timerSlot is a single-shot, cancellable delayed action tagged with a
// generation number. Every (re)schedule bumps the generation; a fired
// callback compares its captured generation against the slot's current one
// and silently no-ops when they differ. Cancellation is therefore advisory:
// correctness depends on the generation check, not on Stop winning the race
// with an already-queued firing.
//
// All methods must be called under the owning room's lock.
type timerSlot struct {
	gen   uint64
	timer *time.Timer
}

// schedule arms the slot and returns the generation the callback must carry.
func (s *timerSlot) schedule(d time.Duration, fn func(gen uint64)) {
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, func() { fn(gen) })
}

// cancel marks the current generation stale and stops the timer if possible.
func (s *timerSlot) cancel() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// current reports whether gen is still the live generation.
func (s *timerSlot) current(gen uint64) bool {
	return s.gen == gen
}
