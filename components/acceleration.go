package components

import (
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/yohamta/donburi"
)

// Acceleration accumulates the forces applied during the current tick.
// Integration consumes and clears it.
var Acceleration = donburi.NewComponentType[gamemath.Fixed2]()
