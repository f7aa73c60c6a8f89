// Package lockstep advances a deterministic world one tick at a time from a
// table of tick-stamped actions, and resets it when peers agree to resync.
package lockstep

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automoto/ballpit-mp/config"
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/automoto/ballpit-mp/systems"
	"go.uber.org/zap"
)

// Config is the stepper's view of config.Sim plus the startup state.
type Config struct {
	TickInterval       time.Duration
	Dt                 gamemath.Fixed // seconds per tick; derived from TickInterval when zero
	InputDelay         messages.Tick
	MaxLead            messages.Tick // 0 = unlimited
	WorldBound         gamemath.Fixed
	ClockSkewTolerance time.Duration

	// Initial is the canonical startup state every reset rebuilds.
	Initial []Body
}

// DefaultConfig derives a Config from config.Sim.
func DefaultConfig() Config {
	return Config{
		TickInterval:       config.Sim.TickInterval,
		InputDelay:         messages.Tick(config.Sim.InputDelay),
		MaxLead:            messages.Tick(config.Sim.MaxLead),
		WorldBound:         gamemath.FromInt(config.Sim.WorldBound),
		ClockSkewTolerance: config.Sim.ClockSkewTolerance,
	}
}

// DtOf converts a tick interval to seconds without floating point.
func DtOf(interval time.Duration) gamemath.Fixed {
	return gamemath.FromRatio(interval.Microseconds(), 1_000_000)
}

// Ports are the channels a stepper talks through. Any of them may be nil.
type Ports struct {
	Input    <-chan messages.Action       // locally originated actions
	Remote   <-chan messages.ActionPacket // packets from other peers
	Resets   <-chan messages.ResetRequest // resync requests from the relay
	Outbound chan<- messages.ActionPacket // local packets to publish
}

// Stats counts what the stepper did since it was created.
type Stats struct {
	Ticks           uint64
	Resets          uint64
	StaleDropped    uint64
	AheadDropped    uint64
	OutboundDropped uint64
	Pruned          uint64
	Faults          uint64
}

type counters struct {
	ticks, resets, stale, ahead, outbound, pruned, faults atomic.Uint64
}

// Stepper owns a World and its ActionTable. Step is not reentrant; Run calls
// it from a single goroutine.
type Stepper struct {
	cfg      Config
	log      *zap.Logger
	pipeline []systems.System
	ports    Ports

	mu    sync.Mutex
	world *World
	table *ActionTable
	coord Coordinator

	snapshots chan Snapshot
	stats     counters
}

func NewStepper(cfg Config, ports Ports, log *zap.Logger) *Stepper {
	if cfg.Dt == 0 {
		cfg.Dt = DtOf(cfg.TickInterval)
	}
	s := &Stepper{
		cfg: cfg,
		log: log.Named("stepper"),
		pipeline: []systems.System{
			systems.ApplySpawns,
			systems.ApplyOutwardForces,
			systems.ApplyCircularForces,
			systems.Integrate,
			systems.CullOutOfBounds(cfg.WorldBound),
		},
		ports:     ports,
		table:     NewActionTable(),
		snapshots: make(chan Snapshot, 1),
	}
	s.world = s.startupWorld()
	return s
}

// Run steps on the configured cadence until ctx is done.
func (s *Stepper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.log.Info("stepper started",
		zap.Duration("interval", s.cfg.TickInterval),
		zap.Stringer("dt", s.cfg.Dt))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stepper stopped", zap.Uint64("tick", uint64(s.Tick())))
			return ctx.Err()
		case now := <-ticker.C:
			s.Step(now)
		}
	}
}

// Step runs one cycle: resync check, intake, advance, publish.
func (s *Stepper) Step(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.intakeResets(now)
	if s.coord.Due(now) {
		s.reset("requested")
	}

	s.intakeLocal()
	s.intakeRemote()

	tick := s.world.Tick()
	if err := s.advance(); err != nil {
		s.stats.faults.Add(1)
		s.log.Error("simulation fault, resetting", zap.Uint64("tick", uint64(tick)), zap.Error(err))
		s.reset("fault")
	}

	s.publish(Capture(s.world))
}

func (s *Stepper) intakeResets(now time.Time) {
	for _, req := range drainChan(s.ports.Resets) {
		late := s.coord.Request(req, now)
		if late > s.cfg.ClockSkewTolerance {
			s.log.Warn("reset instant already passed, resetting now",
				zap.Stringer("request", req), zap.Duration("late", late))
		}
	}
}

func (s *Stepper) intakeLocal() {
	tick := s.world.Tick() + s.cfg.InputDelay
	for _, a := range drainChan(s.ports.Input) {
		p := messages.ActionPacket{Tick: tick, Action: a}
		if s.ports.Outbound != nil {
			select {
			case s.ports.Outbound <- p:
			default:
				// Nobody else will see it, so neither may we.
				s.stats.outbound.Add(1)
				s.log.Warn("outbound queue full, dropping local action", zap.Stringer("action", a))
				continue
			}
		}
		s.table.Schedule(p.Tick, p.Action)
	}
}

func (s *Stepper) intakeRemote() {
	for _, p := range drainChan(s.ports.Remote) {
		s.schedule(p)
	}
}

// schedule applies the past/future window policy before touching the table.
func (s *Stepper) schedule(p messages.ActionPacket) bool {
	current := s.world.Tick()
	if p.Tick < current {
		s.stats.stale.Add(1)
		s.log.Warn("dropping action for a past tick",
			zap.Uint64("tick", uint64(p.Tick)),
			zap.Uint64("current", uint64(current)),
			zap.Stringer("action", p.Action))
		return false
	}
	if s.cfg.MaxLead > 0 && p.Tick > current+s.cfg.MaxLead {
		s.stats.ahead.Add(1)
		s.log.Debug("dropping action too far ahead",
			zap.Uint64("tick", uint64(p.Tick)),
			zap.Uint64("current", uint64(current)))
		return false
	}
	s.table.Schedule(p.Tick, p.Action)
	return true
}

func (s *Stepper) advance() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	tick := s.world.Tick()
	actions := s.table.Drain(tick)
	// Arrival order differs between peers; application order must not.
	slices.SortFunc(actions, compareActions)
	s.world.Run(s.pipeline, actions)
	s.stats.ticks.Add(1)

	if n := s.table.PruneBefore(s.world.Tick()); n > 0 {
		s.stats.pruned.Add(uint64(n))
		s.log.Warn("pruned actions left behind", zap.Int("count", n))
	}
	return nil
}

func (s *Stepper) publish(snap Snapshot) {
	select { // drain stale, push latest
	case <-s.snapshots:
	default:
	}
	select {
	case s.snapshots <- snap:
	default:
	}
}

func (s *Stepper) reset(reason string) {
	s.world = s.startupWorld()
	s.table.Reset()
	s.stats.resets.Add(1)
	s.log.Info("world reset", zap.String("reason", reason), zap.Int("bodies", len(s.cfg.Initial)))
}

func (s *Stepper) startupWorld() *World {
	w := NewWorld(s.cfg.Dt)
	for _, b := range s.cfg.Initial {
		w.Spawn(b)
	}
	return w
}

// RequestReset queues a reset without going through the Resets port.
func (s *Stepper) RequestReset(req messages.ResetRequest) {
	s.coord.Request(req, time.Now())
}

// Schedule inserts a packet as if it had arrived from the network.
func (s *Stepper) Schedule(p messages.ActionPacket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule(p)
}

// Snapshots delivers the latest state after each tick. Stale snapshots are
// replaced, never queued.
func (s *Stepper) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Tick returns the tick the next step will simulate.
func (s *Stepper) Tick() messages.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Tick()
}

// Inspect runs fn with exclusive access to the world.
func (s *Stepper) Inspect(fn func(w *World, t *ActionTable)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.world, s.table)
}

func (s *Stepper) Stats() Stats {
	return Stats{
		Ticks:           s.stats.ticks.Load(),
		Resets:          s.stats.resets.Load(),
		StaleDropped:    s.stats.stale.Load(),
		AheadDropped:    s.stats.ahead.Load(),
		OutboundDropped: s.stats.outbound.Load(),
		Pruned:          s.stats.pruned.Load(),
		Faults:          s.stats.faults.Load(),
	}
}

func compareActions(a, b messages.Action) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Position.X, b.Position.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Position.Y, b.Position.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.Strength, b.Strength)
}

func drainChan[T any](ch <-chan T) []T {
	var out []T
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}
