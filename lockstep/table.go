package lockstep

import (
	"sort"
	"sync"

	"github.com/automoto/ballpit-mp/shared/messages"
)

// ActionTable buffers actions per tick until the stepper drains them.
// It is safe for concurrent use.
type ActionTable struct {
	mu      sync.Mutex
	buckets map[messages.Tick][]messages.Action
}

func NewActionTable() *ActionTable {
	return &ActionTable{buckets: make(map[messages.Tick][]messages.Action)}
}

// Schedule appends a to the bucket of tick. Any tick is accepted, including
// ones that have already been drained.
func (t *ActionTable) Schedule(tick messages.Tick, a messages.Action) {
	t.mu.Lock()
	t.buckets[tick] = append(t.buckets[tick], a)
	t.mu.Unlock()
}

// Drain removes and returns the bucket of tick, leaving it empty. A second
// Drain without a Schedule in between returns an empty slice.
func (t *ActionTable) Drain(tick messages.Tick) []messages.Action {
	t.mu.Lock()
	defer t.mu.Unlock()

	actions := t.buckets[tick]
	delete(t.buckets, tick)
	if actions == nil {
		return []messages.Action{}
	}
	return actions
}

// PruneBefore drops every bucket older than tick and returns how many actions
// were discarded.
func (t *ActionTable) PruneBefore(tick messages.Tick) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	dropped := 0
	for k, actions := range t.buckets {
		if k < tick {
			dropped += len(actions)
			delete(t.buckets, k)
		}
	}
	return dropped
}

// Pending returns the number of buffered actions across all ticks.
func (t *ActionTable) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, actions := range t.buckets {
		n += len(actions)
	}
	return n
}

// Ticks returns the ticks that currently hold actions, ascending.
func (t *ActionTable) Ticks() []messages.Tick {
	t.mu.Lock()
	ticks := make([]messages.Tick, 0, len(t.buckets))
	for k, actions := range t.buckets {
		if len(actions) > 0 {
			ticks = append(ticks, k)
		}
	}
	t.mu.Unlock()

	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	return ticks
}

// Reset discards everything.
func (t *ActionTable) Reset() {
	t.mu.Lock()
	t.buckets = make(map[messages.Tick][]messages.Action)
	t.mu.Unlock()
}
