package messages

import (
	"fmt"

	"github.com/automoto/ballpit-mp/shared/gamemath"
)

// Tick is the shared simulated clock. It only moves forward between resets.
type Tick uint64

// ActionKind tags the Action union.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionSpawnBall
	ActionOutwardForce
	ActionCircularForce
	ActionKindCount // Must be last
)

var actionNames = [ActionKindCount]string{
	ActionNone:          "none",
	ActionSpawnBall:     "spawn_ball",
	ActionOutwardForce:  "outward_force",
	ActionCircularForce: "circular_force",
}

func (k ActionKind) String() string {
	if k < ActionKindCount {
		return actionNames[k]
	}
	return fmt.Sprintf("action(%d)", uint8(k))
}

// Action is a discrete gameplay intent. Treat values as immutable.
// Strength is unused by SpawnBall.
type Action struct {
	Kind     ActionKind
	Position gamemath.Fixed2
	Strength gamemath.Fixed
}

func SpawnBall(pos gamemath.Fixed2) Action {
	return Action{Kind: ActionSpawnBall, Position: pos}
}

func OutwardForce(pos gamemath.Fixed2, strength gamemath.Fixed) Action {
	return Action{Kind: ActionOutwardForce, Position: pos, Strength: strength}
}

func CircularForce(pos gamemath.Fixed2, strength gamemath.Fixed) Action {
	return Action{Kind: ActionCircularForce, Position: pos, Strength: strength}
}

// Validate rejects actions with an unknown tag.
func (a Action) Validate() error {
	if a.Kind == ActionNone || a.Kind >= ActionKindCount {
		return fmt.Errorf("invalid action kind %d", uint8(a.Kind))
	}
	return nil
}

func (a Action) String() string {
	if a.Kind == ActionSpawnBall {
		return fmt.Sprintf("%s%s", a.Kind, a.Position)
	}
	return fmt.Sprintf("%s%s*%s", a.Kind, a.Position, a.Strength)
}

// ActionPacket binds an Action to the tick it must be applied at.
type ActionPacket struct {
	Tick   Tick
	Action Action
}
