package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/automoto/ballpit-mp/shared/messages"
	"go.uber.org/zap"
)

// PeerCounter reports how many peers a relay currently serves.
type PeerCounter interface {
	PeerCount() int
}

// Registration registers the relay with the master directory and keeps the
// listing alive with heartbeats.
type Registration struct {
	masterURL string
	listing   messages.RelayListing
	interval  time.Duration
	peers     PeerCounter
	client    *http.Client
	log       *zap.Logger

	mu      sync.Mutex
	relayID string
}

// NewRegistration advertises listing, with its peer count kept current from
// peers, to the directory at masterURL every interval.
func NewRegistration(masterURL string, listing messages.RelayListing, interval time.Duration, peers PeerCounter, log *zap.Logger) *Registration {
	return &Registration{
		masterURL: strings.TrimSuffix(masterURL, "/"),
		listing:   listing,
		interval:  interval,
		peers:     peers,
		client:    &http.Client{Timeout: 5 * time.Second},
		log:       log.Named("registration"),
	}
}

// Run registers once and then heartbeats until ctx is done. Failures are
// logged and retried on the next beat; the relay keeps serving regardless.
func (r *Registration) Run(ctx context.Context) error {
	if err := r.register(ctx); err != nil {
		r.log.Warn("initial registration failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.beat(ctx); err != nil {
				r.log.Warn("heartbeat failed", zap.Error(err))
			}
		}
	}
}

// ID is the id the master assigned, empty until registered.
func (r *Registration) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.relayID
}

func (r *Registration) register(ctx context.Context) error {
	listing := r.listing
	listing.Peers = r.peers.PeerCount()

	var result messages.RelayListing
	status, err := r.post(ctx, "/relays", listing, &result)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("register: unexpected status %d", status)
	}
	if result.ID == "" {
		return errors.New("register: master assigned no id")
	}

	r.mu.Lock()
	r.relayID = result.ID
	r.mu.Unlock()
	r.log.Info("registered with master", zap.String("id", result.ID))
	return nil
}

func (r *Registration) beat(ctx context.Context) error {
	id := r.ID()
	if id == "" {
		return r.register(ctx)
	}

	status, err := r.post(ctx, "/relays/"+url.PathEscape(id)+"/heartbeat", messages.RelayHeartbeat{
		Peers: r.peers.PeerCount(),
	}, nil)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		r.log.Info("master lost our registration, re-registering")
		return r.register(ctx)
	}
	return fmt.Errorf("heartbeat: unexpected status %d", status)
}

func (r *Registration) post(ctx context.Context, path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.masterURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode: %w", err)
		}
	}
	return resp.StatusCode, nil
}
