package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/golangdaddy/driveport/pkg/config"
	"github.com/golangdaddy/driveport/pkg/game"
	"github.com/golangdaddy/driveport/pkg/logging"
	"github.com/golangdaddy/driveport/pkg/models"
	"github.com/golangdaddy/driveport/pkg/posestream"
	"github.com/golangdaddy/driveport/pkg/telemetry"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run())
}

func run() int {
	settings, err := config.Load(".")
	if err != nil {
		fallback := logging.New("info", nil)
		fallback.Error().Err(err).Msg("failed to load config")
		return 1
	}
	logger := logging.New(settings.LogLevel, nil)

	if _, ok := models.CarInventory.Find(settings.Vehicle.Preset); !ok {
		logger.Warn().Str("preset", settings.Vehicle.Preset).Str("fallback", models.DefaultCar).Msg("unknown car preset")
		settings.Vehicle.Preset = models.DefaultCar
	}

	metrics, err := telemetry.New(telemetry.Meter())
	if err != nil {
		logger.Error().Err(err).Msg("failed to create telemetry instruments")
		return 1
	}

	var hub *posestream.Hub
	if settings.PoseStream.Enabled {
		hub = posestream.NewHub(logger)
		srv := startPoseServer(settings.PoseStream.Addr, hub, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
			hub.Close()
		}()
	}

	ebiten.SetWindowSize(settings.Window.Width, settings.Window.Height)
	ebiten.SetWindowTitle("Driveport")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	logger.Info().
		Float64("tickRate", settings.Physics.TickRate).
		Str("preset", settings.Vehicle.Preset).
		Bool("poseStream", hub != nil).
		Msg("starting driveport")

	runErr := ebiten.RunGame(game.NewGame(settings, metrics, hub, logger))

	c := metrics.Counts()
	logger.Info().
		Int64("ticks", c.Ticks).
		Int64("skipped", c.SkippedTicks).
		Int64("contactLoss", c.ContactLoss).
		Int64("respawns", c.Respawns).
		Msg("driveport stopped")

	if runErr != nil {
		logger.Error().Err(runErr).Msg("game loop exited")
		return 1
	}
	return 0
}

func startPoseServer(addr string, hub *posestream.Hub, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/poses", hub)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("pose stream server failed")
		}
	}()
	logger.Info().Str("addr", addr).Str("path", "/poses").Msg("pose stream listening")
	return srv
}
