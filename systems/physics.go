package systems

import (
	"github.com/automoto/ballpit-mp/components"
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/yohamta/donburi"
)

// Integrate advances every body by one semi-implicit Euler step:
// v += a*dt, then p += v*dt. The per-tick acceleration is cleared afterwards.
func Integrate(s *Step) {
	dt := s.Frame().Dt
	s.Bodies.Each(s.World, func(e *donburi.Entry) {
		pos := components.Position.Get(e)
		vel := components.Velocity.Get(e)
		acc := components.Acceleration.Get(e)

		*vel = vel.Add(acc.Scale(dt))
		*pos = pos.Add(vel.Scale(dt))
		*acc = gamemath.Zero2
	})
}

// CullOutOfBounds returns a system despawning bodies whose position leaves the
// square [-bound, bound]. A zero bound disables culling.
func CullOutOfBounds(bound gamemath.Fixed) System {
	return func(s *Step) {
		if bound <= 0 {
			return
		}
		var out []donburi.Entity
		s.Bodies.Each(s.World, func(e *donburi.Entry) {
			pos := components.Position.Get(e)
			if pos.X.Abs() > bound || pos.Y.Abs() > bound {
				out = append(out, e.Entity())
			}
		})
		for _, entity := range out {
			s.World.Remove(entity)
		}
	}
}
