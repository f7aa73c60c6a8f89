package systems

import (
	"github.com/automoto/ballpit-mp/components"
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/automoto/ballpit-mp/systems/factory"
	"github.com/yohamta/donburi"
)

// ApplySpawns creates one ball per SpawnBall action of the current frame.
func ApplySpawns(s *Step) {
	for _, a := range s.Frame().Actions {
		if a.Kind == messages.ActionSpawnBall {
			factory.CreateBall(s.World, a.Position)
		}
	}
}

// ApplyOutwardForces pushes every body away from each OutwardForce origin,
// proportionally to its offset from that origin.
func ApplyOutwardForces(s *Step) {
	applyForces(s, messages.ActionOutwardForce, gamemath.Identity)
}

// ApplyCircularForces pushes every body tangentially around each
// CircularForce origin (counter-clockwise for positive strength).
func ApplyCircularForces(s *Step) {
	applyForces(s, messages.ActionCircularForce, gamemath.Rotation90)
}

func applyForces(s *Step, kind messages.ActionKind, shape gamemath.Mat2) {
	for _, a := range s.Frame().Actions {
		if a.Kind != kind {
			continue
		}
		s.Bodies.Each(s.World, func(e *donburi.Entry) {
			offset := components.Position.Get(e).Sub(a.Position)
			acc := components.Acceleration.Get(e)
			*acc = acc.Add(shape.MulVec(offset).Scale(a.Strength))
		})
	}
}
