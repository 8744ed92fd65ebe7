// Package background renders the static backdrop drawn behind the drive scene.
package background

import (
	"image/color"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Generator creates backdrop images of a fixed size
type Generator struct {
	Width  int
	Height int
}

// NewGenerator creates a new background generator
func NewGenerator(width, height int) *Generator {
	return &Generator{
		Width:  width,
		Height: height,
	}
}

// GenerateVerge creates a sky band over a grass verge dotted with bushes. The
// same seed always gives the same image.
func (g *Generator) GenerateVerge(seed int64) *ebiten.Image {
	img := ebiten.NewImage(g.Width, g.Height)
	rng := rand.New(rand.NewSource(seed))

	horizon := float32(g.Height) * 0.35
	img.Fill(color.RGBA{30, 100, 30, 255})
	vector.DrawFilledRect(img, 0, 0, float32(g.Width), horizon, color.RGBA{110, 150, 200, 255}, false)

	// Grass noise
	for i := 0; i < g.Width*g.Height/40; i++ {
		x := float32(rng.Intn(g.Width))
		y := horizon + float32(rng.Intn(g.Height-int(horizon)))
		shade := uint8(80 + rng.Intn(60))
		vector.DrawFilledRect(img, x, y, 2, 2, color.RGBA{30, shade, 30, 255}, false)
	}

	// Bushes shrink toward the horizon
	for i := 0; i < g.Width/12; i++ {
		y := horizon + float32(rng.Intn(g.Height-int(horizon)))
		depth := (y - horizon) / (float32(g.Height) - horizon)
		r := 3 + depth*float32(5+rng.Intn(10))
		c := color.RGBA{
			uint8(40 + rng.Intn(40)),
			uint8(100 + rng.Intn(50)),
			uint8(40 + rng.Intn(40)),
			255,
		}
		vector.DrawFilledCircle(img, float32(rng.Intn(g.Width)), y, r, c, true)
	}
	return img
}
