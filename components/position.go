package components

import (
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/yohamta/donburi"
)

var Position = donburi.NewComponentType[gamemath.Fixed2]()
