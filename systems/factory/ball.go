package factory

import (
	"github.com/automoto/ballpit-mp/archetypes"
	"github.com/automoto/ballpit-mp/components"
	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/tags"
	"github.com/yohamta/donburi"
)

// CreateBall spawns a ball at rest at pos.
func CreateBall(w donburi.World, pos gamemath.Fixed2) *donburi.Entry {
	return CreateMovingBall(w, pos, gamemath.Zero2)
}

// CreateMovingBall spawns a ball with an initial velocity.
func CreateMovingBall(w donburi.World, pos, vel gamemath.Fixed2) *donburi.Entry {
	entry := archetypes.Ball.Spawn(w)

	components.Position.SetValue(entry, pos)
	components.Velocity.SetValue(entry, vel)
	components.Acceleration.SetValue(entry, gamemath.Zero2)
	components.Drawable.SetValue(entry, components.DrawableData{Asset: tags.AssetBall})

	return entry
}

// CreateFrame spawns the per-step resource entity.
func CreateFrame(w donburi.World, dt gamemath.Fixed) *donburi.Entry {
	entry := archetypes.Frame.Spawn(w)
	components.Frame.SetValue(entry, components.FrameData{Dt: dt})
	return entry
}
