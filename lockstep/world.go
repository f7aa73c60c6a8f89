package lockstep

import (
	"sync"

	"github.com/automoto/ballpit-mp/components"
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/automoto/ballpit-mp/systems"
	"github.com/automoto/ballpit-mp/systems/factory"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// Body describes one entity of a startup state.
type Body struct {
	Position gamemath.Fixed2
	Velocity gamemath.Fixed2
}

// World owns the component storage of one simulation, its frame resource and
// the queries over it. Queries are never shared between worlds.
type World struct {
	world     donburi.World
	frame     donburi.Entity
	bodies    *donburi.Query
	drawables *donburi.Query
	step      *systems.Step
}

// donburi numbers worlds from an unguarded counter.
var newWorldMu sync.Mutex

// NewWorld returns an empty world whose steps last dt seconds.
func NewWorld(dt gamemath.Fixed) *World {
	newWorldMu.Lock()
	dw := donburi.NewWorld()
	newWorldMu.Unlock()

	w := &World{
		world:  dw,
		frame:  factory.CreateFrame(dw, dt).Entity(),
		bodies: systems.NewBodyQuery(),
		drawables: donburi.NewQuery(filter.Contains(
			components.Position,
			components.Drawable,
		)),
	}
	w.step = systems.NewStep(dw, w.frame, w.bodies)
	return w
}

// Spawn adds a ball. Simulation code spawns through actions; this is for
// building startup states.
func (w *World) Spawn(b Body) donburi.Entity {
	return factory.CreateMovingBall(w.world, b.Position, b.Velocity).Entity()
}

// Despawn removes e and reports whether it was alive.
func (w *World) Despawn(e donburi.Entity) bool {
	if !w.world.Valid(e) {
		return false
	}
	w.world.Remove(e)
	return true
}

// Alive reports whether e refers to a live entity.
func (w *World) Alive(e donburi.Entity) bool {
	return w.world.Valid(e)
}

// EachBody visits every entity with Position, Velocity and Acceleration.
// The order is fixed for the duration of the call.
func (w *World) EachBody(fn func(e donburi.Entity, pos, vel, acc *gamemath.Fixed2)) {
	w.bodies.Each(w.world, func(entry *donburi.Entry) {
		fn(entry.Entity(),
			components.Position.Get(entry),
			components.Velocity.Get(entry),
			components.Acceleration.Get(entry))
	})
}

// EachDrawable visits every entity with Position and Drawable.
func (w *World) EachDrawable(fn func(e donburi.Entity, pos *gamemath.Fixed2, d *components.DrawableData)) {
	w.drawables.Each(w.world, func(entry *donburi.Entry) {
		fn(entry.Entity(), components.Position.Get(entry), components.Drawable.Get(entry))
	})
}

// Count returns the number of simulated bodies.
func (w *World) Count() int {
	return w.bodies.Count(w.world)
}

// Frame exposes the step resource.
func (w *World) Frame() *components.FrameData {
	return components.Frame.Get(w.world.Entry(w.frame))
}

// Tick is the tick the next step will simulate.
func (w *World) Tick() messages.Tick {
	return w.Frame().Tick
}

// Run executes the pipeline once for the given actions and advances the tick.
func (w *World) Run(pipeline []systems.System, actions []messages.Action) {
	f := w.Frame()
	f.Actions = actions
	for _, sys := range pipeline {
		sys(w.step)
	}
	f = w.Frame()
	f.Actions = nil
	f.Tick++
}

// Donburi exposes the underlying storage for read-only inspection.
func (w *World) Donburi() donburi.World {
	return w.world
}
