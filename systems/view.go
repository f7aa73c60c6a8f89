package systems

import "github.com/automoto/ballpit-mp/shared/gamemath"

// View maps world units to window pixels. The world origin sits at the
// window centre and y grows downwards, as on screen.
type View struct {
	Width, Height int
	PixelsPerUnit int
}

// ToScreen converts a world position to pixel coordinates for drawing.
func (v View) ToScreen(p gamemath.Fixed2) (float32, float32) {
	x, y := p.Float64()
	ppu := float64(v.PixelsPerUnit)
	return float32(float64(v.Width)/2 + x*ppu), float32(float64(v.Height)/2 + y*ppu)
}

// ToWorld converts a cursor position to an exact world position. The result
// is snapped to 1/PixelsPerUnit so every peer receives the same value.
func (v View) ToWorld(px, py int) gamemath.Fixed2 {
	ppu := int64(v.PixelsPerUnit)
	if ppu <= 0 {
		ppu = 1
	}
	dx := int64(px) - int64(v.Width)/2
	dy := int64(py) - int64(v.Height)/2
	return gamemath.Fixed2{
		X: gamemath.FromRatio(dx, ppu),
		Y: gamemath.FromRatio(dy, ppu),
	}
}

// Visible reports whether a world position lands inside the window, with a
// margin of r pixels.
func (v View) Visible(p gamemath.Fixed2, r float32) bool {
	x, y := v.ToScreen(p)
	return x >= -r && y >= -r && x <= float32(v.Width)+r && y <= float32(v.Height)+r
}
