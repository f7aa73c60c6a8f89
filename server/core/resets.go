package core

import (
	"context"
	"time"

	"github.com/automoto/ballpit-mp/lockstep"
	"github.com/automoto/ballpit-mp/network"
	"github.com/automoto/ballpit-mp/shared/messages"
	"go.uber.org/zap"
)

// ResetScheduler is the authoritative source of resets. It tells every peer
// to rebuild its world at an aligned instant whenever someone joins, and
// periodically to bound drift from lost packets.
type ResetScheduler struct {
	relay  *Relay
	log    *zap.Logger
	period time.Duration
	bias   float64
	every  time.Duration
	now    func() time.Time
}

// NewResetScheduler subscribes to relay joins. period and bias feed
// lockstep.NextResetTime; every is the periodic interval, 0 for joins only.
func NewResetScheduler(relay *Relay, period time.Duration, bias float64, every time.Duration, log *zap.Logger) *ResetScheduler {
	return newResetScheduler(relay, period, bias, every, time.Now, log)
}

func newResetScheduler(relay *Relay, period time.Duration, bias float64, every time.Duration, now func() time.Time, log *zap.Logger) *ResetScheduler {
	s := &ResetScheduler{
		relay:  relay,
		log:    log.Named("resets"),
		period: period,
		bias:   bias,
		every:  every,
		now:    now,
	}
	relay.Subscribe(s.handle)
	return s
}

func (s *ResetScheduler) handle(e network.Event) {
	if e.Kind == network.EventAccepted {
		s.Schedule("peer joined")
	}
}

// Schedule broadcasts a reset at the next aligned instant and returns it.
func (s *ResetScheduler) Schedule(reason string) messages.ResetRequest {
	req := messages.ResetAt(lockstep.NextResetTime(s.now(), s.period, s.bias))
	if err := s.relay.Broadcast(messages.ResetMessage(req)); err != nil {
		s.log.Error("reset broadcast failed", zap.Error(err))
		return req
	}
	s.log.Info("reset scheduled",
		zap.String("reason", reason),
		zap.Time("at", req.At.Time()),
		zap.Int("peers", s.relay.PeerCount()))
	return req
}

// Run issues periodic resets until ctx is done.
func (s *ResetScheduler) Run(ctx context.Context) error {
	if s.every <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.relay.PeerCount() > 0 {
				s.Schedule("periodic")
			}
		}
	}
}
