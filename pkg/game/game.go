package game

import (
	"github.com/golangdaddy/driveport/pkg/config"
	"github.com/golangdaddy/driveport/pkg/models/car"
	"github.com/golangdaddy/driveport/pkg/posestream"
	"github.com/golangdaddy/driveport/pkg/scene"
	"github.com/golangdaddy/driveport/pkg/telemetry"
	"github.com/golangdaddy/driveport/pkg/ui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
)

// Game implements the ebiten.Game interface and manages the overall game state
type Game struct {
	settings *config.Settings
	metrics  *telemetry.Instruments
	hub      *posestream.Hub
	logger   zerolog.Logger

	currentScreen Screen
	lastPreset    string
}

// Screen represents a UI screen interface
type Screen interface {
	Update() error
	Draw(screen *ebiten.Image)
}

// NewGame starts on the title screen. hub may be nil when the pose stream is
// disabled.
func NewGame(settings *config.Settings, metrics *telemetry.Instruments, hub *posestream.Hub, logger zerolog.Logger) *Game {
	g := &Game{
		settings:   settings,
		metrics:    metrics,
		hub:        hub,
		logger:     logger,
		lastPreset: settings.Vehicle.Preset,
	}
	g.showTitle()
	return g
}

func (g *Game) showTitle() {
	g.currentScreen = ui.NewTitleScreen(g.showGarage)
}

func (g *Game) showGarage() {
	g.currentScreen = ui.NewGarageScreen(g.lastPreset, g.startDrive)
}

// startDrive builds a scene for the chosen car and switches to it. A scene
// that fails to build leaves the player in the garage.
func (g *Game) startDrive(preset *car.Car) {
	g.lastPreset = preset.Name()
	sc, err := scene.New(g.settings, preset, g.metrics, g.logger)
	if err != nil {
		g.logger.Error().Err(err).Str("car", preset.Name()).Msg("failed to start drive")
		return
	}
	g.currentScreen = NewDriveScreen(sc, g.hub, g.settings.Window.Width, g.settings.Window.Height, g.logger, g.showGarage)
}

// Update handles game logic updates
func (g *Game) Update() error {
	if g.currentScreen != nil {
		return g.currentScreen.Update()
	}
	return nil
}

// Draw renders the current screen
func (g *Game) Draw(screen *ebiten.Image) {
	if g.currentScreen != nil {
		g.currentScreen.Draw(screen)
	}
}

// Layout follows the window so the camera sees the real aspect ratio
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return outsideWidth, outsideHeight
}
