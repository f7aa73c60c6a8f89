package components

import (
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/yohamta/donburi"
)

var Velocity = donburi.NewComponentType[gamemath.Fixed2]()
