package systems

import (
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/shared/messages"
)

// PointerState is one frame of pointer input, already reduced to
// just-pressed edges by the caller.
type PointerState struct {
	X, Y     int
	Spawn    bool // left button
	Push     bool // right button
	Swirl    bool // middle button or C
	Reversed bool // shift held: pull instead of push, clockwise swirl
}

// MapPointer turns pointer edges into actions at the cursor. strength is in
// whole units per second squared per unit of distance.
func MapPointer(in PointerState, view View, strength int64) []messages.Action {
	var out []messages.Action
	pos := view.ToWorld(in.X, in.Y)
	s := gamemath.FromInt(strength)
	if in.Reversed {
		s = s.Neg()
	}

	if in.Spawn {
		out = append(out, messages.SpawnBall(pos))
	}
	if in.Push {
		out = append(out, messages.OutwardForce(pos, s))
	}
	if in.Swirl {
		out = append(out, messages.CircularForce(pos, s))
	}
	return out
}
