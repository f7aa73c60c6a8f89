package lockstep

import (
	"sync"
	"time"

	"github.com/automoto/ballpit-mp/shared/messages"
)

// NextResetTime picks the next instant aligned to period that every peer can
// compute on its own. When now already sits in the final bias fraction of the
// current period the boundary after that is chosen, so peers with slightly
// different clocks do not disagree about which boundary is "next".
func NextResetTime(now time.Time, period time.Duration, bias float64) messages.TimePoint {
	p := period.Milliseconds()
	if p <= 0 {
		return messages.TimePointOf(now)
	}
	ms := now.UnixMilli()
	next := (ms/p + 1) * p
	if float64(next-ms) < float64(p)*bias {
		next += p
	}
	return messages.TimePoint(next)
}

// Coordinator holds at most one pending reset for a peer.
type Coordinator struct {
	mu      sync.Mutex
	pending bool
	at      time.Time // zero means at the next step boundary
}

// Request records req. A newer request replaces an older pending one. It
// returns how far in the past the target already was, zero if it lies ahead.
func (c *Coordinator) Request(req messages.ResetRequest, now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = true
	if req.Kind == messages.ResetNow {
		c.at = time.Time{}
		return 0
	}

	at := req.At.Time()
	if !at.After(now) {
		// Late delivery: do not wait for an instant that has passed.
		c.at = time.Time{}
		return now.Sub(at)
	}
	c.at = at
	return 0
}

// Due reports whether the pending reset should happen at this step boundary
// and consumes it if so.
func (c *Coordinator) Due(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pending {
		return false
	}
	if !c.at.IsZero() && now.Before(c.at) {
		return false
	}
	c.pending = false
	c.at = time.Time{}
	return true
}

// Pending returns the scheduled instant, if any. A zero time means the reset
// happens at the next boundary.
func (c *Coordinator) Pending() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at, c.pending
}
