package main

import (
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/automoto/ballpit-mp/shared/messages"
	"go.uber.org/zap"
)

type relayRecord struct {
	messages.RelayListing
	LastSeen time.Time
}

// Registry is an in-memory store of active relays with TTL-based expiry.
type Registry struct {
	mu     sync.RWMutex
	relays map[string]*relayRecord
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

func NewRegistry(ttl time.Duration, log *zap.Logger) *Registry {
	return &Registry{
		relays: make(map[string]*relayRecord),
		ttl:    ttl,
		now:    time.Now,
		log:    log.Named("registry"),
	}
}

// Register stores l under a fresh id and returns the id.
func (r *Registry) Register(l messages.RelayListing) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	id := fmt.Sprintf("%x", b)

	l.ID = id

	r.mu.Lock()
	r.relays[id] = &relayRecord{
		RelayListing: l,
		LastSeen:     r.now(),
	}
	r.mu.Unlock()

	return id
}

func (r *Registry) Heartbeat(id string, peers int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.relays[id]
	if !ok {
		return false
	}
	rec.LastSeen = r.now()
	rec.Peers = peers
	return true
}

// List returns the live relays sorted by name.
func (r *Registry) List() []messages.RelayListing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]messages.RelayListing, 0, len(r.relays))
	for _, rec := range r.relays {
		result = append(result, rec.RelayListing)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Len returns the number of live relays.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.relays)
}

// Expire drops relays that have not been seen for a full TTL and returns how
// many were removed.
func (r *Registry) Expire() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, rec := range r.relays {
		if now.Sub(rec.LastSeen) >= r.ttl {
			r.log.Info("expired relay",
				zap.String("name", rec.Name),
				zap.String("id", id),
				zap.Duration("last_seen", now.Sub(rec.LastSeen).Round(time.Second)))
			delete(r.relays, id)
			n++
		}
	}
	return n
}

// Run expires stale relays every interval until stop is closed.
func (r *Registry) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.Expire()
		}
	}
}
