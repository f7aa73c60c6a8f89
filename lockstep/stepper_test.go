package lockstep

import (
	"sync"
	"testing"
	"time"

	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"
)

var epoch = time.UnixMilli(1_700_000_000_000)

func testConfig() Config {
	return Config{
		TickInterval: 30 * time.Millisecond,
		Dt:           gamemath.One,
	}
}

func newTestStepper(cfg Config, ports Ports) *Stepper {
	return NewStepper(cfg, ports, zap.NewNop())
}

func step(s *Stepper, n int) {
	for i := 0; i < n; i++ {
		s.Step(epoch.Add(time.Duration(i) * 30 * time.Millisecond))
	}
}

func positions(s *Stepper) []gamemath.Fixed2 {
	var out []gamemath.Fixed2
	s.Inspect(func(w *World, _ *ActionTable) {
		w.EachBody(func(_ donburi.Entity, pos, _, _ *gamemath.Fixed2) {
			out = append(out, *pos)
		})
	})
	return out
}

type bodyState struct {
	pos, vel, acc gamemath.Fixed2
}

func bodyStates(s *Stepper) []bodyState {
	var out []bodyState
	s.Inspect(func(w *World, _ *ActionTable) {
		w.EachBody(func(_ donburi.Entity, pos, vel, acc *gamemath.Fixed2) {
			out = append(out, bodyState{*pos, *vel, *acc})
		})
	})
	return out
}

func TestStepperSpawnBall(t *testing.T) {
	s := newTestStepper(testConfig(), Ports{})
	s.Schedule(messages.ActionPacket{Tick: 0, Action: messages.SpawnBall(gamemath.Vec2(3, 4))})

	step(s, 1)

	got := positions(s)
	if len(got) != 1 || got[0] != gamemath.Vec2(3, 4) {
		t.Fatalf("positions = %v", got)
	}
	if s.Tick() != 1 {
		t.Errorf("Tick() = %d", s.Tick())
	}
	if b := bodyStates(s)[0]; !b.vel.IsZero() || !b.acc.IsZero() {
		t.Errorf("spawned ball moving: vel=%v acc=%v", b.vel, b.acc)
	}
}

func TestStepperOutwardForceRealTick(t *testing.T) {
	cfg := testConfig()
	cfg.Dt = DtOf(cfg.TickInterval)
	cfg.Initial = []Body{{Position: gamemath.Vec2(10, 0)}}
	s := newTestStepper(cfg, Ports{})
	strength := gamemath.FromInt(3)
	s.Schedule(messages.ActionPacket{Tick: 0, Action: messages.OutwardForce(gamemath.Zero2, strength)})

	step(s, 1)

	wantVel := gamemath.Vec2(10, 0).Scale(strength).Scale(cfg.Dt)
	got := bodyStates(s)
	if len(got) != 1 {
		t.Fatalf("bodies = %v", got)
	}
	if got[0].vel != wantVel {
		t.Errorf("velocity = %v, want %v", got[0].vel, wantVel)
	}
	// 30 units/s^2 over 1966/65536 s, truncated.
	if got[0].vel.X.Raw() != 58980 || got[0].vel.Y != 0 {
		t.Errorf("velocity raw = %d,%d", got[0].vel.X.Raw(), got[0].vel.Y.Raw())
	}
	if want := gamemath.Vec2(10, 0).Add(wantVel.Scale(cfg.Dt)); got[0].pos != want {
		t.Errorf("position = %v, want %v", got[0].pos, want)
	}
	if !got[0].acc.IsZero() {
		t.Errorf("acceleration not cleared: %v", got[0].acc)
	}
}

func TestStepperOutwardForce(t *testing.T) {
	cfg := testConfig()
	cfg.Initial = []Body{{Position: gamemath.Vec2(10, 0)}}
	s := newTestStepper(cfg, Ports{})
	s.Schedule(messages.ActionPacket{Tick: 0, Action: messages.OutwardForce(gamemath.Zero2, gamemath.FromInt(2))})

	step(s, 1)

	// a = (10,0)*2, v = a*dt, p = (10,0) + v*dt with dt = 1.
	if got := positions(s); len(got) != 1 || got[0] != gamemath.Vec2(30, 0) {
		t.Fatalf("after force: %v", got)
	}

	step(s, 1)

	// Acceleration does not carry over; velocity does.
	if got := positions(s); got[0] != gamemath.Vec2(50, 0) {
		t.Errorf("after coasting: %v", got)
	}
}

func TestStepperCircularForce(t *testing.T) {
	cfg := testConfig()
	cfg.Initial = []Body{{Position: gamemath.Vec2(10, 0)}}
	s := newTestStepper(cfg, Ports{})
	s.Schedule(messages.ActionPacket{Tick: 0, Action: messages.CircularForce(gamemath.Zero2, gamemath.One)})

	step(s, 1)

	if got := positions(s); got[0] != gamemath.Vec2(10, 10) {
		t.Errorf("tangential push: %v", got)
	}
}

func TestStepperSpawnSeesForcesOfSameTick(t *testing.T) {
	spawn := messages.SpawnBall(gamemath.Vec2(10, 0))
	force := messages.OutwardForce(gamemath.Zero2, gamemath.One)

	for _, order := range [][]messages.Action{{spawn, force}, {force, spawn}} {
		s := newTestStepper(testConfig(), Ports{})
		for _, a := range order {
			s.Schedule(messages.ActionPacket{Tick: 5, Action: a})
		}
		step(s, 6)

		if got := positions(s); len(got) != 1 || got[0] != gamemath.Vec2(20, 0) {
			t.Errorf("order %v: positions = %v", order, got)
		}
	}
}

func TestStepperDeterministicAcrossArrivalOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Dt = DtOf(30 * time.Millisecond)
	cfg.Initial = []Body{
		{Position: gamemath.Vec2(1, 2), Velocity: gamemath.Vec2(3, -1)},
		{Position: gamemath.Vec2(-5, 7)},
	}
	packets := []messages.ActionPacket{
		{Tick: 2, Action: messages.SpawnBall(gamemath.Vec2(4, 4))},
		{Tick: 2, Action: messages.OutwardForce(gamemath.Vec2(1, 1), gamemath.FromRatio(3, 2))},
		{Tick: 2, Action: messages.CircularForce(gamemath.Vec2(-1, 0), gamemath.FromInt(-2))},
		{Tick: 7, Action: messages.OutwardForce(gamemath.Vec2(0, 3), gamemath.Half)},
		{Tick: 7, Action: messages.SpawnBall(gamemath.Vec2(-2, -2))},
	}

	a := newTestStepper(cfg, Ports{})
	b := newTestStepper(cfg, Ports{})
	for i := range packets {
		a.Schedule(packets[i])
		b.Schedule(packets[len(packets)-1-i])
	}
	// Two worlds in one process stepping at the same time share no state.
	var wg sync.WaitGroup
	for _, st := range []*Stepper{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			step(st, 20)
		}()
	}
	wg.Wait()

	var sa, sb Snapshot
	a.Inspect(func(w *World, _ *ActionTable) { sa = Capture(w) })
	b.Inspect(func(w *World, _ *ActionTable) { sb = Capture(w) })
	if sa.Checksum != sb.Checksum {
		t.Fatalf("checksums diverged: %x vs %x", sa.Checksum, sb.Checksum)
	}
	if len(sa.Bodies) != 4 {
		t.Errorf("bodies = %d, want 4", len(sa.Bodies))
	}
}

func TestStepperDropsStalePackets(t *testing.T) {
	s := newTestStepper(testConfig(), Ports{})
	step(s, 3)

	if s.Schedule(messages.ActionPacket{Tick: 1, Action: messages.SpawnBall(gamemath.Zero2)}) {
		t.Error("past packet was accepted")
	}
	if s.Stats().StaleDropped != 1 {
		t.Errorf("StaleDropped = %d", s.Stats().StaleDropped)
	}
	if !s.Schedule(messages.ActionPacket{Tick: 3, Action: messages.SpawnBall(gamemath.Zero2)}) {
		t.Error("packet for the current tick was rejected")
	}
}

func TestStepperDropsPacketsTooFarAhead(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLead = 4
	s := newTestStepper(cfg, Ports{})

	if s.Schedule(messages.ActionPacket{Tick: 5, Action: messages.SpawnBall(gamemath.Zero2)}) {
		t.Error("packet beyond MaxLead was accepted")
	}
	if !s.Schedule(messages.ActionPacket{Tick: 4, Action: messages.SpawnBall(gamemath.Zero2)}) {
		t.Error("packet at the MaxLead edge was rejected")
	}
	if s.Stats().AheadDropped != 1 {
		t.Errorf("AheadDropped = %d", s.Stats().AheadDropped)
	}
}

func TestStepperPublishesLocalActions(t *testing.T) {
	input := make(chan messages.Action, 1)
	outbound := make(chan messages.ActionPacket, 1)
	cfg := testConfig()
	cfg.InputDelay = 2
	s := newTestStepper(cfg, Ports{Input: input, Outbound: outbound})

	input <- messages.SpawnBall(gamemath.Vec2(1, 1))
	step(s, 1)

	select {
	case p := <-outbound:
		if p.Tick != 2 || p.Action.Kind != messages.ActionSpawnBall {
			t.Errorf("outbound packet = %+v", p)
		}
	default:
		t.Fatal("local action was not published")
	}
	if len(positions(s)) != 0 {
		t.Error("delayed action applied too early")
	}
	step(s, 2)
	if len(positions(s)) != 1 {
		t.Error("delayed action never applied")
	}
}

func TestStepperDropsLocalActionWhenOutboundFull(t *testing.T) {
	input := make(chan messages.Action, 1)
	outbound := make(chan messages.ActionPacket) // nobody reads
	s := newTestStepper(testConfig(), Ports{Input: input, Outbound: outbound})

	input <- messages.SpawnBall(gamemath.Zero2)
	step(s, 1)

	if len(positions(s)) != 0 {
		t.Error("unpublished action was applied locally")
	}
	if s.Stats().OutboundDropped != 1 {
		t.Errorf("OutboundDropped = %d", s.Stats().OutboundDropped)
	}
}

func TestStepperSnapshotLatestWins(t *testing.T) {
	s := newTestStepper(testConfig(), Ports{})
	step(s, 3)

	snap := <-s.Snapshots()
	if snap.Tick != 3 {
		t.Errorf("snapshot tick = %d, want 3", snap.Tick)
	}
	select {
	case extra := <-s.Snapshots():
		t.Errorf("stale snapshot queued: %+v", extra)
	default:
	}
}

func TestStepperFaultResetsWorld(t *testing.T) {
	s := newTestStepper(testConfig(), Ports{})
	s.Inspect(func(w *World, _ *ActionTable) {
		w.Spawn(Body{Position: gamemath.Vec2(1<<46, 0)})
	})
	s.Schedule(messages.ActionPacket{Tick: 0, Action: messages.OutwardForce(gamemath.Zero2, gamemath.FromInt(1<<20))})

	step(s, 1)

	st := s.Stats()
	if st.Faults != 1 || st.Resets != 1 {
		t.Errorf("stats = %+v", st)
	}
	if s.Tick() != 0 || len(positions(s)) != 0 {
		t.Error("world was not rebuilt after the fault")
	}

	step(s, 1)
	if s.Tick() != 1 {
		t.Errorf("stepper did not resume, tick = %d", s.Tick())
	}
}

func TestStepperResetNowThroughPort(t *testing.T) {
	resets := make(chan messages.ResetRequest, 1)
	cfg := testConfig()
	cfg.Initial = []Body{{Position: gamemath.Vec2(1, 1), Velocity: gamemath.Vec2(1, 0)}}
	s := newTestStepper(cfg, Ports{Resets: resets})
	s.Schedule(messages.ActionPacket{Tick: 1, Action: messages.SpawnBall(gamemath.Zero2)})
	step(s, 4)

	resets <- messages.ResetImmediately()
	step(s, 1)

	if s.Tick() != 1 {
		t.Errorf("tick after reset step = %d, want 1", s.Tick())
	}
	if got := positions(s); len(got) != 1 || got[0] != gamemath.Vec2(2, 1) {
		t.Errorf("positions = %v", got)
	}
	if s.Stats().Resets != 1 {
		t.Errorf("Resets = %d", s.Stats().Resets)
	}
}

func TestStepperTimedResetConverges(t *testing.T) {
	cfg := testConfig()
	cfg.Initial = []Body{{Position: gamemath.Vec2(0, 0), Velocity: gamemath.Vec2(1, 1)}}
	ra := make(chan messages.ResetRequest, 1)
	rb := make(chan messages.ResetRequest, 1)
	a := newTestStepper(cfg, Ports{Resets: ra})
	b := newTestStepper(cfg, Ports{Resets: rb})

	// The peers diverge: only a sees a spawn.
	a.Schedule(messages.ActionPacket{Tick: 0, Action: messages.SpawnBall(gamemath.Vec2(9, 9))})
	step(a, 5)
	step(b, 2)

	at := epoch.Add(500 * time.Millisecond)
	req := messages.ResetAt(messages.TimePointOf(at))
	ra <- req
	rb <- req

	a.Step(at.Add(-time.Millisecond))
	if a.Stats().Resets != 0 {
		t.Fatal("reset fired early")
	}
	a.Step(at)
	b.Step(at)

	var sa, sb Snapshot
	a.Inspect(func(w *World, _ *ActionTable) { sa = Capture(w) })
	b.Inspect(func(w *World, _ *ActionTable) { sb = Capture(w) })
	if sa.Tick != 1 || sa.Checksum != sb.Checksum {
		t.Errorf("after reset a=%+v b=%+v", sa, sb)
	}
}
