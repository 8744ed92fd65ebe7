// Package config loads driveport settings from driveport.cfg.json with viper.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory
const FileName = "driveport.cfg.json"

// Physics configures the world
type Physics struct {
	TickRate float64   `json:"tickRate" mapstructure:"tickRate"` // steps per second
	Gravity  []float64 `json:"gravity" mapstructure:"gravity"`
}

// Controller configures input handling
type Controller struct {
	MaxForce           float64 `json:"maxForce" mapstructure:"maxForce"`
	MaxBrake           float64 `json:"maxBrake" mapstructure:"maxBrake"`
	MaxSteer           float64 `json:"maxSteer" mapstructure:"maxSteer"`
	StepSteer          float64 `json:"stepSteer" mapstructure:"stepSteer"`
	JoystickSteerRange float64 `json:"joystickSteerRange" mapstructure:"joystickSteerRange"`
	AutoBrakeSpeed     float64 `json:"autoBrakeSpeed" mapstructure:"autoBrakeSpeed"`
}

// Camera configures the drive camera
type Camera struct {
	Smoothing       float64   `json:"smoothing" mapstructure:"smoothing"`
	InitialPosition []float64 `json:"initialPosition" mapstructure:"initialPosition"`
}

// Respawn configures when a fallen vehicle is replaced
type Respawn struct {
	ThresholdY float64 `json:"thresholdY" mapstructure:"thresholdY"`
	Delay      float64 `json:"delay" mapstructure:"delay"` // seconds
}

// Vehicle selects the car preset
type Vehicle struct {
	Preset string `json:"preset" mapstructure:"preset"`
}

// Track selects the track layout
type Track struct {
	File string `json:"file" mapstructure:"file"` // empty uses the built-in demo track
}

// Window sets the initial window size
type Window struct {
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// PoseStream configures the websocket pose output
type PoseStream struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// Settings is the whole configuration
type Settings struct {
	LogLevel   string     `json:"logLevel" mapstructure:"logLevel"`
	Physics    Physics    `json:"physics" mapstructure:"physics"`
	Controller Controller `json:"controller" mapstructure:"controller"`
	Camera     Camera     `json:"camera" mapstructure:"camera"`
	Respawn    Respawn    `json:"respawn" mapstructure:"respawn"`
	Vehicle    Vehicle    `json:"vehicle" mapstructure:"vehicle"`
	Track      Track      `json:"track" mapstructure:"track"`
	Window     Window     `json:"window" mapstructure:"window"`
	PoseStream PoseStream `json:"poseStream" mapstructure:"poseStream"`
}

// SetDefaults registers every default value with viper
func SetDefaults() {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("physics.tickRate", 400)
	viper.SetDefault("physics.gravity", []float64{0, -9.08, 0})

	viper.SetDefault("controller.maxForce", 100)
	viper.SetDefault("controller.maxBrake", 0.3)
	viper.SetDefault("controller.maxSteer", 0.7)
	viper.SetDefault("controller.stepSteer", 0.002)
	viper.SetDefault("controller.joystickSteerRange", 45)
	viper.SetDefault("controller.autoBrakeSpeed", 0.5)

	viper.SetDefault("camera.smoothing", 0.01)
	viper.SetDefault("camera.initialPosition", []float64{15, 15, 0})

	viper.SetDefault("respawn.thresholdY", -10)
	viper.SetDefault("respawn.delay", 0.5)

	viper.SetDefault("vehicle.preset", "BMW E30")
	viper.SetDefault("track.file", "")

	viper.SetDefault("window.width", 1280)
	viper.SetDefault("window.height", 720)

	viper.SetDefault("poseStream.enabled", false)
	viper.SetDefault("poseStream.addr", "localhost:8765")
}

// Load sets defaults and reads driveport.cfg.json from configDir. A missing
// file is not an error; the defaults apply.
func Load(configDir string) (*Settings, error) {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings the simulation cannot run with
func (s *Settings) Validate() error {
	if s.Physics.TickRate <= 0 {
		return fmt.Errorf("physics.tickRate must be positive, got %v", s.Physics.TickRate)
	}
	if len(s.Physics.Gravity) != 3 {
		return fmt.Errorf("physics.gravity needs 3 components, got %d", len(s.Physics.Gravity))
	}
	if len(s.Camera.InitialPosition) != 3 {
		return fmt.Errorf("camera.initialPosition needs 3 components, got %d", len(s.Camera.InitialPosition))
	}
	if s.Camera.Smoothing <= 0 || s.Camera.Smoothing >= 1 {
		return fmt.Errorf("camera.smoothing must be in (0, 1), got %v", s.Camera.Smoothing)
	}
	if s.Controller.MaxSteer < 0 || s.Controller.StepSteer < 0 {
		return fmt.Errorf("controller steering limits must not be negative")
	}
	if s.Respawn.Delay < 0 {
		return fmt.Errorf("respawn.delay must not be negative, got %v", s.Respawn.Delay)
	}
	return nil
}

// Timestep is the fixed physics step length in seconds
func (s *Settings) Timestep() float64 {
	return 1 / s.Physics.TickRate
}
