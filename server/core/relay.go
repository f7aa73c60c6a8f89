// Package core is the relay: it accepts peers over websockets, forwards every
// packet a peer sends to all other peers and schedules the resets that keep
// their worlds aligned.
package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/network"
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/automoto/ballpit-mp/shared/protocol"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// ErrUnknownPeer is returned by SendTo for an id that is not connected.
var ErrUnknownPeer = errors.New("unknown peer")

type peer struct {
	id   network.ConnID
	conn *websocket.Conn
	log  *zap.Logger

	send chan []byte
	quit chan struct{}
	done chan struct{} // closed when the writer exited
	cut  atomic.Bool
}

// Relay is the hub of the star. It implements http.Handler; mount it where
// peers should connect.
type Relay struct {
	log   *zap.Logger
	cfg   config.RelayConfig
	codec *protocol.Codec

	mu       sync.Mutex
	peers    map[network.ConnID]*peer
	nextID   network.ConnID
	handlers []network.Handler

	closeSlow func(*websocket.Conn) error
}

func NewRelay(cfg config.RelayConfig, log *zap.Logger) *Relay {
	return &Relay{
		log:   log.Named("relay"),
		cfg:   cfg,
		codec: protocol.NewCodec(),
		peers: make(map[network.ConnID]*peer),

		closeSlow: (*websocket.Conn).CloseNow,
	}
}

// Subscribe registers h for every lifecycle event. Handlers are called from
// the connection's goroutine, in order per connection.
func (r *Relay) Subscribe(h network.Handler) {
	r.mu.Lock()
	r.handlers = append(slices.Clip(r.handlers), h)
	r.mu.Unlock()
}

// PeerCount returns the number of connected peers.
func (r *Relay) PeerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// Peers returns the connected peer ids, ascending.
func (r *Relay) Peers() []network.ConnID {
	r.mu.Lock()
	ids := make([]network.ConnID, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Broadcast sends p to every connected peer.
func (r *Relay) Broadcast(p messages.Packet) error {
	frame, err := r.codec.Encode(p)
	if err != nil {
		return err
	}
	var slow []*peer
	r.mu.Lock()
	for _, pr := range r.peers {
		if !r.enqueue(pr, frame) {
			slow = append(slow, pr)
		}
	}
	r.mu.Unlock()
	r.cut(slow)
	return nil
}

// SendTo sends p to one peer.
func (r *Relay) SendTo(id network.ConnID, p messages.Packet) error {
	frame, err := r.codec.Encode(p)
	if err != nil {
		return err
	}
	r.mu.Lock()
	pr, ok := r.peers[id]
	queued := ok && r.enqueue(pr, frame)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("send to %d: %w", id, ErrUnknownPeer)
	}
	if !queued {
		r.cut([]*peer{pr})
	}
	return nil
}

// forward fans a frame out to everyone but its sender.
func (r *Relay) forward(from network.ConnID, frame []byte) int {
	var slow []*peer
	n := 0
	r.mu.Lock()
	for id, pr := range r.peers {
		if id == from {
			continue
		}
		if r.enqueue(pr, frame) {
			n++
		} else {
			slow = append(slow, pr)
		}
	}
	r.mu.Unlock()
	r.cut(slow)
	return n
}

// enqueue must be called with r.mu held. It reports false when pr's queue is
// full.
func (r *Relay) enqueue(pr *peer, frame []byte) bool {
	select {
	case pr.send <- frame:
		return true
	default:
		return false
	}
}

// cut closes peers that cannot keep up rather than stalling everyone else.
// Closing waits on the connection, so it must happen without r.mu held. The
// read loop then removes the peer.
func (r *Relay) cut(slow []*peer) {
	for _, pr := range slow {
		if !pr.cut.CompareAndSwap(false, true) {
			continue
		}
		pr.log.Warn("send queue full, dropping peer")
		_ = r.closeSlow(pr.conn)
	}
}

func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.cfg.MaxPeers > 0 && r.PeerCount() >= r.cfg.MaxPeers {
		http.Error(w, "relay full", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, req, nil)
	if err != nil {
		r.log.Warn("websocket accept failed", zap.String("remote", req.RemoteAddr), zap.Error(err))
		return
	}
	conn.SetReadLimit(protocol.MaxFrameSize)

	pr := r.add(conn)
	pr.log.Info("peer accepted", zap.String("remote", req.RemoteAddr))

	if r.cfg.Greeting != "" {
		if err := r.SendTo(pr.id, messages.ChatMessage(r.cfg.Greeting)); err != nil {
			pr.log.Warn("greeting failed", zap.Error(err))
		}
	}
	r.deliver(network.Event{Kind: network.EventAccepted, Conn: pr.id})

	err = r.readLoop(req.Context(), pr)
	r.remove(pr, err)
}

func (r *Relay) add(conn *websocket.Conn) *peer {
	queue := r.cfg.SendQueue
	if queue <= 0 {
		queue = 1
	}

	r.mu.Lock()
	r.nextID++
	pr := &peer{
		id:   r.nextID,
		conn: conn,
		log:  r.log.With(zap.Uint64("conn", uint64(r.nextID))),
		send: make(chan []byte, queue),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	r.peers[pr.id] = pr
	r.mu.Unlock()

	go r.writeLoop(pr)
	return pr
}

func (r *Relay) readLoop(ctx context.Context, pr *peer) error {
	for {
		_, data, err := pr.conn.Read(ctx)
		if err != nil {
			return err
		}
		p, err := r.codec.Decode(data)
		if err != nil {
			pr.log.Warn("discarding packet", zap.Error(err))
			continue
		}
		r.deliver(network.Event{Kind: network.EventMessage, Conn: pr.id, Packet: p})
		n := r.forward(pr.id, data)
		pr.log.Debug("forwarded", zap.Int("peers", n), zap.Int("bytes", len(data)))
	}
}

func (r *Relay) writeLoop(pr *peer) {
	defer close(pr.done)
	for {
		select {
		case <-pr.quit:
			return
		case frame := <-pr.send:
			ctx := context.Background()
			var cancel context.CancelFunc = func() {}
			if r.cfg.WriteTimeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, r.cfg.WriteTimeout)
			}
			err := pr.conn.Write(ctx, websocket.MessageBinary, frame)
			cancel()
			if err != nil {
				pr.log.Debug("write failed", zap.Error(err))
				_ = pr.conn.CloseNow()
				return
			}
		}
	}
}

// remove takes pr out of the broadcast set and stops its writer before the
// Disconnected event goes out.
func (r *Relay) remove(pr *peer, cause error) {
	r.mu.Lock()
	delete(r.peers, pr.id)
	r.mu.Unlock()

	close(pr.quit)
	<-pr.done
	_ = pr.conn.CloseNow()

	switch websocket.CloseStatus(cause) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		cause = nil
		pr.log.Info("peer left")
	default:
		pr.log.Info("peer dropped", zap.Error(cause))
	}
	r.deliver(network.Event{Kind: network.EventDisconnected, Conn: pr.id, Err: cause})
}

func (r *Relay) deliver(e network.Event) {
	r.mu.Lock()
	hs := r.handlers
	r.mu.Unlock()
	for _, h := range hs {
		h(e)
	}
}

// CloseAll disconnects every peer. Their handlers still observe Disconnected.
func (r *Relay) CloseAll() {
	r.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(r.peers))
	for _, pr := range r.peers {
		conns = append(conns, pr.conn)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Close(websocket.StatusGoingAway, "relay shutting down")
		}()
	}
	wg.Wait()
}

// ListenAndServe serves the relay on cfg.BindAddress until ctx is done.
func (r *Relay) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", r)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"ok","peers":%d}`, r.PeerCount())
	})

	srv := &http.Server{Addr: r.cfg.BindAddress, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	r.log.Info("relay listening", zap.String("addr", r.cfg.BindAddress), zap.Int("max_peers", r.cfg.MaxPeers))

	select {
	case err := <-errCh:
		return fmt.Errorf("relay listen: %w", err)
	case <-ctx.Done():
	}

	r.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	r.log.Info("relay stopped")
	return nil
}
