package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/automoto/ballpit-mp/shared/messages"
	"go.uber.org/zap"
)

type fixedPeers int

func (n fixedPeers) PeerCount() int { return int(n) }

type fakeMaster struct {
	mu         sync.Mutex
	registered []messages.RelayListing
	beats      []string
	peers      []int
	forget     bool
}

func (m *fakeMaster) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /relays", func(w http.ResponseWriter, r *http.Request) {
		var l messages.RelayListing
		_ = json.NewDecoder(r.Body).Decode(&l)
		m.mu.Lock()
		m.registered = append(m.registered, l)
		m.forget = false
		m.mu.Unlock()
		l.ID = "relay-1"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(l)
	})
	mux.HandleFunc("POST /relays/{id}/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		var hb messages.RelayHeartbeat
		_ = json.NewDecoder(r.Body).Decode(&hb)
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.forget {
			http.Error(w, `{"error":"unknown relay"}`, http.StatusNotFound)
			return
		}
		m.beats = append(m.beats, r.PathValue("id"))
		m.peers = append(m.peers, hb.Peers)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func testListing() messages.RelayListing {
	return messages.RelayListing{
		Name:          "test relay",
		Address:       "localhost:7373",
		Version:       "dev",
		MaxPeers:      8,
		TickMs:        30,
		ResetPeriodMs: 2000,
	}
}

func TestRegistrationRegistersAndBeats(t *testing.T) {
	master := &fakeMaster{}
	srv := httptest.NewServer(master.handler())
	defer srv.Close()

	reg := NewRegistration(srv.URL+"/", testListing(), 10*time.Millisecond, fixedPeers(3), zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = reg.Run(ctx)

	master.mu.Lock()
	defer master.mu.Unlock()
	if len(master.registered) != 1 {
		t.Fatalf("registrations = %d", len(master.registered))
	}
	got := master.registered[0]
	if got.Name != "test relay" || got.Peers != 3 || got.MaxPeers != 8 || got.TickMs != 30 || got.ResetPeriodMs != 2000 {
		t.Errorf("registration = %+v", got)
	}
	if len(master.beats) == 0 || master.beats[0] != "relay-1" || master.peers[0] != 3 {
		t.Errorf("beats = %v peers = %v", master.beats, master.peers)
	}
	if reg.ID() != "relay-1" {
		t.Errorf("ID() = %q", reg.ID())
	}
}

func TestRegistrationReregistersWhenForgotten(t *testing.T) {
	master := &fakeMaster{}
	srv := httptest.NewServer(master.handler())
	defer srv.Close()

	reg := NewRegistration(srv.URL, testListing(), time.Hour, fixedPeers(0), zap.NewNop())
	ctx := context.Background()
	if err := reg.register(ctx); err != nil {
		t.Fatalf("register: %v", err)
	}

	master.mu.Lock()
	master.forget = true
	master.mu.Unlock()

	if err := reg.beat(ctx); err != nil {
		t.Fatalf("beat: %v", err)
	}
	master.mu.Lock()
	defer master.mu.Unlock()
	if len(master.registered) != 2 {
		t.Errorf("registrations = %d, want 2", len(master.registered))
	}
}
