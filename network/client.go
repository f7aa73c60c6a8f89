// Package network is the peer side of the relay connection: it dials the
// relay, routes decoded packets onto typed channels and publishes the local
// peer's packets.
package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/automoto/ballpit-mp/shared/protocol"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

var (
	// ErrHandshakeTimeout is returned by Dial when the relay does not complete
	// the websocket handshake within NetConfig.HandshakeTimeout.
	ErrHandshakeTimeout = errors.New("relay handshake timed out")
	// ErrClosed is returned by sends on a closed client.
	ErrClosed = errors.New("client closed")
)

// Client is one peer's connection to the relay. Received packets are routed
// by type: action packets and reset requests to their own channels, chat and
// lifecycle changes to Events. The channels are closed once the connection
// is gone.
type Client struct {
	log   *zap.Logger
	codec *protocol.Codec
	conn  *websocket.Conn

	writeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	actionCh chan messages.ActionPacket
	resetCh  chan messages.ResetRequest
	eventCh  chan Event

	mu        sync.Mutex
	closed    bool
	closeErr  error
	closeOnce sync.Once
}

// Dial connects to the relay at url and starts the receive loop.
func Dial(ctx context.Context, url string, cfg config.NetConfig, log *zap.Logger) (*Client, error) {
	dialCtx := ctx
	if cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.HandshakeTimeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(dialCtx, url, nil)
	if err != nil {
		if ctx.Err() == nil && errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("dial %s: %w", url, ErrHandshakeTimeout)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(protocol.MaxFrameSize)

	queue := cfg.EventQueue
	if queue <= 0 {
		queue = 1
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		log:          log.Named("client").With(zap.String("relay", url)),
		codec:        protocol.NewCodec(),
		conn:         conn,
		writeTimeout: cfg.WriteTimeout,
		ctx:          runCtx,
		cancel:       cancel,
		done:         make(chan struct{}),
		actionCh:     make(chan messages.ActionPacket, config.Sim.RemoteQueue),
		resetCh:      make(chan messages.ResetRequest, 4),
		eventCh:      make(chan Event, queue),
	}

	c.log.Info("connected to relay")
	c.emit(Event{Kind: EventConnected})
	go c.readLoop()
	return c, nil
}

// ActionPackets delivers packets scheduled by other peers.
func (c *Client) ActionPackets() <-chan messages.ActionPacket { return c.actionCh }

// ResetRequests delivers resync requests issued by the relay.
func (c *Client) ResetRequests() <-chan messages.ResetRequest { return c.resetCh }

// Events delivers lifecycle changes and chat. Events are dropped when the
// consumer falls behind; Disconnected is always the last one.
func (c *Client) Events() <-chan Event { return c.eventCh }

// Done is closed when the receive loop has exited.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended, nil while it is alive or after a
// clean Close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

// Send encodes p and writes it as one binary message.
func (c *Client) Send(p messages.Packet) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	frame, err := c.codec.Encode(p)
	if err != nil {
		return err
	}

	ctx := c.ctx
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	if err := c.conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
		if c.ctx.Err() != nil {
			return ErrClosed
		}
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *Client) SendActionPacket(p messages.ActionPacket) error {
	return c.Send(messages.ActionPacketMessage(p))
}

func (c *Client) SendChat(text string) error {
	return c.Send(messages.ChatMessage(text))
}

// Publish forwards packets from outbound until it is closed or ctx is done.
func (c *Client) Publish(ctx context.Context, outbound <-chan messages.ActionPacket) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return ErrClosed
		case p, ok := <-outbound:
			if !ok {
				return nil
			}
			if err := c.SendActionPacket(p); err != nil {
				return fmt.Errorf("publish tick %d: %w", p.Tick, err)
			}
		}
	}
}

// Close shuts the connection and waits for the receive loop to exit.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
		c.cancel()
	})
	<-c.done
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)

	var err error
	for {
		var data []byte
		_, data, err = c.conn.Read(c.ctx)
		if err != nil {
			break
		}
		p, derr := c.codec.Decode(data)
		if derr != nil {
			c.log.Warn("discarding packet", zap.Error(derr))
			continue
		}
		if !c.route(p) {
			err = ErrClosed
			break
		}
	}

	c.mu.Lock()
	graceful := c.closed || websocket.CloseStatus(err) == websocket.StatusNormalClosure
	if !graceful {
		c.closeErr = err
	}
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	_ = c.conn.CloseNow()

	if graceful {
		c.log.Info("disconnected from relay")
		err = nil
	} else {
		c.log.Warn("connection to relay lost", zap.Error(err))
	}
	c.emit(Event{Kind: EventDisconnected, Err: err})

	close(c.actionCh)
	close(c.resetCh)
	close(c.eventCh)
}

// route hands p to its consumer. Simulation packets are never dropped; the
// reader blocks until there is room or the client is closed.
func (c *Client) route(p messages.Packet) bool {
	if p.Kind == messages.PacketChat {
		c.emit(Event{Kind: EventMessage, Packet: p})
		return true
	}

	sp := p.Client
	switch sp.Kind {
	case messages.SimActionPacket:
		select {
		case c.actionCh <- *sp.ActionPacket:
		case <-c.ctx.Done():
			return false
		}
	case messages.SimReset:
		select {
		case c.resetCh <- *sp.Reset:
		case <-c.ctx.Done():
			return false
		}
	default:
		// Bare actions carry no tick, so they cannot be scheduled.
		c.log.Debug("ignoring untimed action", zap.Stringer("action", *sp.Action))
	}
	return true
}

func (c *Client) emit(e Event) {
	if e.Kind == EventDisconnected {
		// Make room so the final event is never lost.
		for {
			select {
			case c.eventCh <- e:
				return
			default:
			}
			select {
			case <-c.eventCh:
			default:
			}
		}
	}
	select {
	case c.eventCh <- e:
	default:
		c.log.Debug("event queue full, dropping", zap.Stringer("kind", e.Kind))
	}
}
