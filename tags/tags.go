package tags

import "github.com/yohamta/donburi"

var (
	Ball  = donburi.NewTag().SetName("Ball")
	Frame = donburi.NewTag().SetName("Frame")
)

// Asset names understood by the renderer
const (
	AssetBall = "ball"
)
