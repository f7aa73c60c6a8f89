package systems

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Banner is a fading overlay shown when the world was rebuilt by a reset.
type Banner struct {
	Text     string
	duration float32
	tween    *gween.Tween
	alpha    float32
}

func NewBanner(text string, seconds float32) *Banner {
	return &Banner{Text: text, duration: seconds}
}

// Trigger restarts the fade at full opacity.
func (b *Banner) Trigger() {
	b.tween = gween.New(1, 0, b.duration, ease.OutQuad)
	b.alpha = 1
}

// Update advances the fade by dt seconds.
func (b *Banner) Update(dt float32) {
	if b.tween == nil {
		return
	}
	alpha, done := b.tween.Update(dt)
	b.alpha = alpha
	if done {
		b.tween = nil
		b.alpha = 0
	}
}

// Alpha is the current opacity in [0, 1].
func (b *Banner) Alpha() float32 { return b.alpha }

func (b *Banner) Visible() bool { return b.alpha > 0 }
