package ui

import (
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// TitleScreen waits for the player to start
type TitleScreen struct {
	startTime      time.Time
	onStartPressed func()
}

// NewTitleScreen creates a new title screen
func NewTitleScreen(onStartPressed func()) *TitleScreen {
	return &TitleScreen{
		startTime:      time.Now(),
		onStartPressed: onStartPressed,
	}
}

// Update starts on Enter, Space, a click or a tap
func (ts *TitleScreen) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) ||
		inpututil.IsKeyJustPressed(ebiten.KeySpace) ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) ||
		len(inpututil.AppendJustPressedTouchIDs(nil)) > 0 {
		if ts.onStartPressed != nil {
			ts.onStartPressed()
		}
	}
	return nil
}

// Draw renders the title screen
func (ts *TitleScreen) Draw(screen *ebiten.Image) {
	width, height := screen.Bounds().Dx(), screen.Bounds().Dy()
	screen.Fill(color.RGBA{15, 20, 35, 255})

	elapsed := time.Since(ts.startTime).Seconds()
	centerX := float64(width) / 2
	centerY := float64(height) / 3

	// Pulse between 1.0 and 1.1
	pulse := 1.0 + 0.1*math.Sin(elapsed*2)
	brightness := math.Min(1.0+0.2*math.Sin(elapsed*1.5), 1)
	DrawText(screen, "DRIVEPORT", centerX, centerY, 128*pulse, color.RGBA{
		uint8(255 * brightness),
		uint8(200 * brightness),
		uint8(50 * brightness),
		255,
	})
	DrawText(screen, "Raycast Vehicle Sandbox", centerX, centerY+100, 32, color.RGBA{180, 180, 200, 255})

	if int(elapsed*2)%2 == 0 {
		DrawText(screen, "Press ENTER or SPACE to Start", centerX, float64(height)-100, 24, color.RGBA{150, 200, 255, 255})
	}

	drawDecorativeLines(screen, width, height)
}

func drawDecorativeLines(screen *ebiten.Image, width, height int) {
	lineColor := color.RGBA{50, 60, 80, 100}
	for _, y := range []float32{float32(height) / 6, float32(height) * 5 / 6} {
		vector.StrokeLine(screen, 0, y, float32(width), y, 2, lineColor, false)
	}
}
