package ui

import (
	"fmt"
	"image/color"

	"github.com/golangdaddy/driveport/pkg/models"
	"github.com/golangdaddy/driveport/pkg/models/car"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// GarageScreen lists the car presets and starts a drive with the chosen one
type GarageScreen struct {
	cars          []*car.Car
	selected      int
	onCarSelected func(*car.Car)
}

// NewGarageScreen creates a garage with the preset named initial selected
func NewGarageScreen(initial string, onCarSelected func(*car.Car)) *GarageScreen {
	gs := &GarageScreen{
		cars:          models.CarInventory.GetAllCars(),
		onCarSelected: onCarSelected,
	}
	for i, c := range gs.cars {
		if c.Name() == initial {
			gs.selected = i
		}
	}
	return gs
}

// Update handles list navigation and selection
func (gs *GarageScreen) Update() error {
	if len(gs.cars) == 0 {
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		gs.selected = (gs.selected - 1 + len(gs.cars)) % len(gs.cars)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		gs.selected = (gs.selected + 1) % len(gs.cars)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if gs.onCarSelected != nil {
			gs.onCarSelected(gs.cars[gs.selected])
		}
	}
	return nil
}

// Draw renders the preset list and the selected car's tuning
func (gs *GarageScreen) Draw(screen *ebiten.Image) {
	width, height := screen.Bounds().Dx(), screen.Bounds().Dy()
	screen.Fill(color.RGBA{20, 20, 30, 255})

	centerX := float64(width) / 2
	DrawText(screen, "SELECT CAR", centerX, 60, 64, titleColor)

	buttonWidth, buttonHeight := 360.0, 44.0
	listX := centerX - buttonWidth - 20
	y := 140.0
	for i, c := range gs.cars {
		DrawButton(screen, fmt.Sprintf("%s (%d)", c.Name(), c.Year), listX, y, buttonWidth, buttonHeight, i == gs.selected)
		y += buttonHeight + 16
	}

	if len(gs.cars) > 0 {
		c := gs.cars[gs.selected]
		lines := []string{
			fmt.Sprintf("Mass         %.0f kg", c.Mass),
			fmt.Sprintf("Stiffness    %.1f", c.Suspension.Stiffness),
			fmt.Sprintf("Damping      %.1f / %.1f", c.Suspension.DampingCompression, c.Suspension.DampingRelaxation),
			fmt.Sprintf("Rest length  %.2f m", c.Suspension.RestLength),
			fmt.Sprintf("Tyre radius  %.2f m", c.Tyres.Radius),
			fmt.Sprintf("Friction     %.2f", c.Tyres.FrictionSlip),
			fmt.Sprintf("Brakes       %s x%.1f", c.Brakes.Type, c.Brakes.StoppingPower),
		}
		statsY := 150.0
		for _, l := range lines {
			DrawTextAt(screen, l, centerX+20, statsY, 20, labelColor)
			statsY += 30
		}
	}

	DrawText(screen, "Arrow Keys: Navigate | Enter: Drive", centerX, float64(height)-50, 20, hintColor)
}
