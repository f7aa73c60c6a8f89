package archetypes

import (
	"github.com/automoto/ballpit-mp/components"
	"github.com/automoto/ballpit-mp/tags"
	"github.com/yohamta/donburi"
)

var (
	Ball = newArchetype(
		tags.Ball,
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Drawable,
	)
	Frame = newArchetype(
		tags.Frame,
		components.Frame,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(w donburi.World, cs ...donburi.IComponentType) *donburi.Entry {
	all := make([]donburi.IComponentType, 0, len(a.components)+len(cs))
	all = append(all, a.components...)
	all = append(all, cs...)
	return w.Entry(w.Create(all...))
}
