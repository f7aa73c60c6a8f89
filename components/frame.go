package components

import (
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/yohamta/donburi"
)

// FrameData is a singleton resource holding what systems may read during a step.
type FrameData struct {
	Tick    messages.Tick
	Dt      gamemath.Fixed // seconds
	Actions []messages.Action
}

var Frame = donburi.NewComponentType[FrameData]()
