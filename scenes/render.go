package scenes

import (
	"image/color"
	"strings"

	"github.com/automoto/ballpit-mp/lockstep"
	"github.com/automoto/ballpit-mp/systems"
	"github.com/automoto/ballpit-mp/tags"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var assetColors = map[string]color.RGBA{
	tags.AssetBall: {230, 110, 60, 255},
}

func drawBodies(screen *ebiten.Image, snap lockstep.Snapshot, view systems.View, radius float32) {
	for _, b := range snap.Bodies {
		if !view.Visible(b.Position, radius) {
			continue
		}
		x, y := view.ToScreen(b.Position)
		c, ok := assetColors[b.Asset]
		if !ok {
			c = color.RGBA{255, 0, 255, 255}
		}
		vector.FillCircle(screen, x, y, radius, c, true)
	}
}

func drawHUD(screen *ebiten.Image, hud string, chat []string) {
	ebitenutil.DebugPrintAt(screen, hud, 8, 8)
	if len(chat) > 0 {
		h := screen.Bounds().Dy()
		ebitenutil.DebugPrintAt(screen, strings.Join(chat, "\n"), 8, h-16*len(chat)-8)
	}
}

func drawBanner(screen *ebiten.Image, b *systems.Banner) {
	if !b.Visible() {
		return
	}
	w := float32(screen.Bounds().Dx())
	h := float32(screen.Bounds().Dy())
	a := uint8(b.Alpha() * 160)
	vector.FillRect(screen, 0, h/2-20, w, 40, color.RGBA{0, 0, 0, a}, false)
	ebitenutil.DebugPrintAt(screen, b.Text, int(w/2)-len(b.Text)*3, int(h/2)-8)
}
