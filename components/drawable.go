package components

import "github.com/yohamta/donburi"

// DrawableData names the asset the renderer should draw at the entity's position.
type DrawableData struct {
	Asset string
}

var Drawable = donburi.NewComponentType[DrawableData]()
