// Package scenes holds the viewer's screens: picking a relay and watching the
// shared ball pit.
package scenes

import "github.com/hajimehoshi/ebiten/v2"

// Scene is one screen of the viewer.
type Scene interface {
	Update()
	Draw(screen *ebiten.Image)
}

// SceneChanger allows scenes to trigger transitions
type SceneChanger interface {
	ChangeScene(scene Scene)
}
