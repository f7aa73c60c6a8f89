// Package peer wires a lockstep stepper to a relay connection. It is what
// both the headless peer and the viewer run.
package peer

import (
	"context"
	"errors"
	"fmt"

	"github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/lockstep"
	"github.com/automoto/ballpit-mp/network"
	"github.com/automoto/ballpit-mp/shared/messages"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrRelayLost is returned by Run when the relay connection ends first.
var ErrRelayLost = errors.New("relay connection lost")

// Session is one running peer. Without a client it simulates alone.
type Session struct {
	log      *zap.Logger
	client   *network.Client
	stepper  *lockstep.Stepper
	input    chan messages.Action
	outbound chan messages.ActionPacket
}

// Join dials the relay at url and builds a stepper fed by it.
func Join(ctx context.Context, url string, cfg lockstep.Config, netCfg config.NetConfig, log *zap.Logger) (*Session, error) {
	client, err := network.Dial(ctx, url, netCfg, log)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	return newSession(client, cfg, log), nil
}

// Offline builds a session that never talks to a relay.
func Offline(cfg lockstep.Config, log *zap.Logger) *Session {
	return newSession(nil, cfg, log)
}

func newSession(client *network.Client, cfg lockstep.Config, log *zap.Logger) *Session {
	s := &Session{
		log:   log.Named("peer"),
		input: make(chan messages.Action, queueSize(config.Sim.InputQueue)),
	}

	ports := lockstep.Ports{Input: s.input}
	if client != nil {
		s.client = client
		s.outbound = make(chan messages.ActionPacket, queueSize(config.Sim.OutboundQueue))
		ports.Remote = client.ActionPackets()
		ports.Resets = client.ResetRequests()
		ports.Outbound = s.outbound
	}
	s.stepper = lockstep.NewStepper(cfg, ports, log)
	return s
}

func queueSize(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// Run steps the world and pumps outbound packets until ctx is done or the
// relay goes away. The connection is closed on return.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.stepper.Run(ctx) })

	if s.client != nil {
		g.Go(func() error { return s.client.Publish(ctx, s.outbound) })
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return s.client.Close()
			case <-s.client.Done():
				if err := s.client.Err(); err != nil {
					return fmt.Errorf("%w: %w", ErrRelayLost, err)
				}
				return ErrRelayLost
			}
		})
	}

	err := g.Wait()
	if s.client != nil {
		_ = s.client.Close()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Submit queues a locally originated action. It reports false when the
// input queue is full and the action was dropped.
func (s *Session) Submit(a messages.Action) bool {
	if err := a.Validate(); err != nil {
		s.log.Debug("rejecting action", zap.Stringer("action", a), zap.Error(err))
		return false
	}
	select {
	case s.input <- a:
		return true
	default:
		s.log.Warn("input queue full, dropping action", zap.Stringer("action", a))
		return false
	}
}

// Chat sends a line to every other peer. Offline sessions drop it.
func (s *Session) Chat(text string) error {
	if s.client == nil {
		return nil
	}
	return s.client.SendChat(text)
}

// Events is the relay lifecycle and chat stream, nil when offline.
func (s *Session) Events() <-chan network.Event {
	if s.client == nil {
		return nil
	}
	return s.client.Events()
}

func (s *Session) Snapshots() <-chan lockstep.Snapshot { return s.stepper.Snapshots() }

func (s *Session) Stats() lockstep.Stats { return s.stepper.Stats() }

func (s *Session) Stepper() *lockstep.Stepper { return s.stepper }

func (s *Session) Online() bool { return s.client != nil }
