// Package controller turns driver input into vehicle commands once per physics
// tick and drives the follow camera once per rendered frame.
package controller

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golangdaddy/driveport/pkg/physics"
	"github.com/rs/zerolog"
)

// Vehicle is the part of a raycast vehicle the controller drives
type Vehicle interface {
	NumWheels() int
	SetSteeringValue(angle float64, wheel int) error
	SetBrakeValue(brake float64, wheel int) error
	ApplyEngineForce(force float64, wheel int) error
	Update(dt float64)
	Chassis() physics.RigidBody
	ChassisForward() mgl64.Vec3
}

// Joystick is an on-screen or gamepad stick. Active means the stick is the
// input device this tick; a released stick reports Distance 0.
type Joystick struct {
	Active       bool
	Distance     float64 // 0..1
	AngleDegrees float64 // screen space, 0 = right, 90 = up
}

// Input is the read-only snapshot handed to Tick
type Input struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Brake    bool
	Joystick Joystick

	KeyboardActive bool
}

// Command is what the controller pushed into the vehicle this tick
type Command struct {
	Steering float64
	Engine   float64
	Brake    float64
}

// Braking reports whether the brake lights should be on
func (c Command) Braking() bool {
	return c.Brake > 0
}

// Config holds the tuning of the controller
type Config struct {
	MaxForce           float64
	MaxBrake           float64
	MaxSteer           float64 // radians
	StepSteer          float64 // radians per tick
	JoystickSteerRange float64 // degrees of joystick offset mapped to full lock
	AutoBrakeSpeed     float64 // m/s

	SteeredWheels []int
	DrivenWheels  []int

	Camera CameraConfig
}

// DefaultConfig returns the tuning used by the demo scene
func DefaultConfig() Config {
	return Config{
		MaxForce:           100,
		MaxBrake:           0.3,
		MaxSteer:           0.7,
		StepSteer:          0.002,
		JoystickSteerRange: 45,
		AutoBrakeSpeed:     0.5,
		SteeredWheels:      []int{0, 1},
		DrivenWheels:       []int{2, 3},
		Camera:             DefaultCameraConfig(),
	}
}

// Metrics receives controller events worth counting
type Metrics interface {
	TickCompleted()
	TickSkipped()
}

type nopMetrics struct{}

func (nopMetrics) TickCompleted() {}
func (nopMetrics) TickSkipped()   {}

// Option configures a Controller
type Option func(*Controller)

// WithMetrics routes tick counts to m
func WithMetrics(m Metrics) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithOrbitCamera sets the camera used in orbit mode
func WithOrbitCamera(o OrbitCamera) Option {
	return func(c *Controller) {
		c.orbit = o
	}
}

// Controller holds the steering accumulator and camera state between calls
type Controller struct {
	cfg     Config
	vehicle Vehicle
	logger  zerolog.Logger
	metrics Metrics

	steering float64
	last     Command

	rig   *CameraRig
	mode  CameraMode
	orbit OrbitCamera

	staleWarned bool
}

// New creates a controller for v. v may be nil until SetVehicle is called.
func New(cfg Config, v Vehicle, logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		vehicle: v,
		logger:  logger.With().Str("component", "controller").Logger(),
		metrics: nopMetrics{},
		rig:     NewCameraRig(cfg.Camera),
		mode:    CameraDrive,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.orbit == nil {
		c.orbit = NewOrbit(DefaultOrbitConfig())
	}
	return c
}

// SetVehicle swaps the driven vehicle, typically after a respawn
func (c *Controller) SetVehicle(v Vehicle) {
	c.vehicle = v
	c.steering = 0
	c.last = Command{}
	c.staleWarned = false
}

// Steering returns the ramped steering accumulator
func (c *Controller) Steering() float64 {
	return c.steering
}

// LastCommand returns what the most recent tick pushed into the vehicle
func (c *Controller) LastCommand() Command {
	return c.last
}

func (c *Controller) live() bool {
	if c.vehicle != nil {
		if ch := c.vehicle.Chassis(); ch != nil && ch.Valid() {
			return true
		}
	}
	if !c.staleWarned {
		c.logger.Warn().Msg("vehicle is not mounted, skipping controller callbacks")
		c.staleWarned = true
	}
	return false
}

// Tick resolves input into steering, engine and brake values, pushes them into
// the vehicle and advances it by dt. It is meant to run in the physics
// pre-step hook. A missing or despawned vehicle makes it a no-op.
func (c *Controller) Tick(dt float64, in Input) Command {
	if !c.live() {
		c.metrics.TickSkipped()
		return Command{}
	}
	c.staleWarned = false

	var cmd Command
	if in.Joystick.Active {
		cmd = c.joystickCommand(in.Joystick)
	} else {
		cmd = c.keyboardCommand(in)
	}
	c.apply(cmd)
	c.vehicle.Update(dt)

	c.last = cmd
	c.metrics.TickCompleted()
	return cmd
}

func (c *Controller) apply(cmd Command) {
	for i := 0; i < c.vehicle.NumWheels(); i++ {
		if err := c.vehicle.SetBrakeValue(cmd.Brake, i); err != nil {
			c.logger.Debug().Err(err).Int("wheel", i).Msg("set brake")
		}
	}
	for _, i := range c.cfg.SteeredWheels {
		if err := c.vehicle.SetSteeringValue(cmd.Steering, i); err != nil {
			c.logger.Debug().Err(err).Int("wheel", i).Msg("set steering")
		}
	}
	for _, i := range c.cfg.DrivenWheels {
		if err := c.vehicle.ApplyEngineForce(cmd.Engine, i); err != nil {
			c.logger.Debug().Err(err).Int("wheel", i).Msg("apply engine force")
		}
	}
}
