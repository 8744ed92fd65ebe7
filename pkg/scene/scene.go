// Package scene runs the drive scene headlessly: the physics space and track,
// the mounted vehicle, its controller and the respawner. Renderers read poses
// from it and never touch the physics directly.
package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golangdaddy/driveport/pkg/config"
	"github.com/golangdaddy/driveport/pkg/controller"
	"github.com/golangdaddy/driveport/pkg/models/car"
	"github.com/golangdaddy/driveport/pkg/physics"
	"github.com/golangdaddy/driveport/pkg/posestream"
	"github.com/golangdaddy/driveport/pkg/raycast"
	"github.com/golangdaddy/driveport/pkg/road"
	"github.com/golangdaddy/driveport/pkg/telemetry"
	"github.com/golangdaddy/driveport/pkg/vehicle"
	"github.com/rs/zerolog"
)

// maxSubsteps caps how many physics steps one frame may run, so a long stall
// does not turn into a burst of catch-up steps.
const maxSubsteps = 32

// TrackDefinition returns the configured track layout, or the demo track
func TrackDefinition(s *config.Settings) (road.Definition, error) {
	if s.Track.File == "" {
		return road.Demo, nil
	}
	return road.LoadFile(s.Track.File)
}

// ControllerConfig maps settings onto controller tuning. The preset's brake
// stopping power scales the maximum brake.
func ControllerConfig(s *config.Settings, preset *car.Car) controller.Config {
	cfg := controller.DefaultConfig()
	cfg.MaxForce = s.Controller.MaxForce
	cfg.MaxBrake = s.Controller.MaxBrake
	if preset != nil && preset.Brakes.StoppingPower > 0 {
		cfg.MaxBrake *= preset.Brakes.StoppingPower
	}
	cfg.MaxSteer = s.Controller.MaxSteer
	cfg.StepSteer = s.Controller.StepSteer
	cfg.JoystickSteerRange = s.Controller.JoystickSteerRange
	cfg.AutoBrakeSpeed = s.Controller.AutoBrakeSpeed
	cfg.Camera.Smoothing = s.Camera.Smoothing
	cfg.Camera.InitialPosition = vec3(s.Camera.InitialPosition)
	return cfg
}

func vec3(v []float64) mgl64.Vec3 {
	var out mgl64.Vec3
	copy(out[:], v)
	return out
}

// Scene owns one drive session
type Scene struct {
	space    *physics.Space
	ctrl     *controller.Controller
	respawn  *controller.Respawner
	metrics  *telemetry.Instruments
	logger   zerolog.Logger
	preset   *car.Car
	entity   *vehicle.Entity
	track    []road.Piece
	unhook   func()
	input    controller.Input
	pending  float64
	lastPose controller.CameraPose
	maxSteer float64
}

// New builds the track, spawns preset and mounts it on a controller
func New(s *config.Settings, preset *car.Car, metrics *telemetry.Instruments, logger zerolog.Logger) (*Scene, error) {
	if preset == nil {
		return nil, fmt.Errorf("scene: nil preset")
	}
	logger = logger.With().Str("component", "scene").Logger()

	def, err := TrackDefinition(s)
	if err != nil {
		return nil, err
	}
	track, err := def.Colliders()
	if err != nil {
		return nil, fmt.Errorf("build track: %w", err)
	}

	sc := &Scene{
		space:   physics.NewSpace(s.Timestep(), vec3(s.Physics.Gravity)),
		metrics: metrics,
		logger:  logger,
		preset:  preset,
		track:   track,
	}
	for _, p := range track {
		sc.space.AddStatic(p.Box)
	}

	cfg := ControllerConfig(s, preset)
	sc.maxSteer = cfg.MaxSteer
	sc.ctrl = controller.New(cfg, nil, logger, controller.WithMetrics(metrics))
	sc.lastPose = sc.ctrl.Frame(0, controller.FrameInput{})
	sc.unhook = sc.space.OnBeforeStep(func(physics.World) { sc.preStep() })

	sc.respawn = controller.NewRespawner(controller.RespawnConfig{
		ThresholdY: s.Respawn.ThresholdY,
		Delay:      s.Respawn.Delay,
	}, sc.spawn, logger)
	sc.respawn.OnSpawn = func(m controller.Mountable) {
		e := m.(*vehicle.Entity)
		sc.entity = e
		sc.ctrl.SetVehicle(e.Raycast())
	}
	sc.respawn.OnDespawn = func() {
		sc.entity = nil
		sc.ctrl.SetVehicle(nil)
	}

	if err := sc.respawn.Start(); err != nil {
		sc.unhook()
		return nil, err
	}
	logger.Info().
		Str("car", preset.Name()).
		Float64("timestep", s.Timestep()).
		Int("trackPieces", len(track)).
		Msg("scene ready")
	return sc, nil
}

func (sc *Scene) spawn() (controller.Mountable, error) {
	return vehicle.Spawn(sc.space, sc.preset, sc.logger, raycast.WithRecorder(sc.metrics))
}

// preStep runs the controller inside the physics step. A panic skips the tick
// instead of tearing down the game loop.
func (sc *Scene) preStep() {
	defer func() {
		if r := recover(); r != nil {
			sc.logger.Error().Interface("panic", r).Msg("controller tick panicked")
			sc.metrics.TickSkipped()
		}
	}()
	sc.ctrl.Tick(sc.space.Timestep(), sc.input)
}

// Update advances the simulation by a frame of length dt in fixed physics
// steps, then checks whether the vehicle fell off the track. It returns the
// number of physics steps taken.
func (sc *Scene) Update(dt float64, in controller.Input) int {
	if dt <= 0 {
		return 0
	}
	sc.input = in

	ts := sc.space.Timestep()
	sc.pending += dt
	steps := int(math.Floor(sc.pending/ts + 1e-9))
	if steps > maxSubsteps {
		sc.logger.Debug().Int("dropped", steps-maxSubsteps).Msg("dropping simulation steps")
		steps = maxSubsteps
		sc.pending = 0
	} else {
		sc.pending = math.Max(sc.pending-float64(steps)*ts, 0)
	}

	for i := 0; i < steps; i++ {
		sc.space.Step()
	}

	respawned, err := sc.respawn.Update(dt)
	if err != nil {
		sc.logger.Warn().Err(err).Msg("respawn failed, retrying")
	}
	if respawned {
		sc.metrics.Respawned()
	}
	return steps
}

// Camera advances the camera by a rendered frame of length dt
func (sc *Scene) Camera(dt float64, in controller.FrameInput) controller.CameraPose {
	sc.lastPose = sc.ctrl.Frame(dt, in)
	return sc.lastPose
}

// RotateCamera drags the orbit camera. Drive mode ignores it.
func (sc *Scene) RotateCamera(dYaw, dElevation float64) bool {
	return sc.ctrl.RotateOrbit(dYaw, dElevation)
}

// ToggleCamera switches between the drive and orbit cameras
func (sc *Scene) ToggleCamera() controller.CameraMode {
	return sc.ctrl.ToggleCameraMode()
}

// Controller returns the controller driving the mounted vehicle
func (sc *Scene) Controller() *controller.Controller {
	return sc.ctrl
}

// Space returns the physics space
func (sc *Scene) Space() *physics.Space {
	return sc.space
}

// Track returns the static track pieces
func (sc *Scene) Track() []road.Piece {
	return sc.track
}

// MaxSteer is the steering lock in radians
func (sc *Scene) MaxSteer() float64 {
	return sc.maxSteer
}

// Entity returns the mounted vehicle, or nil while respawning
func (sc *Scene) Entity() *vehicle.Entity {
	return sc.entity
}

// Respawns returns how many times the vehicle has been replaced
func (sc *Scene) Respawns() int {
	return sc.respawn.Respawns()
}

// SpeedKmh is the mounted vehicle's forward speed, or 0 while respawning
func (sc *Scene) SpeedKmh() float64 {
	if sc.entity == nil {
		return 0
	}
	return sc.entity.Raycast().CurrentSpeedKmHour()
}

// PoseFrame snapshots the scene for pose stream clients
func (sc *Scene) PoseFrame() posestream.Frame {
	f := posestream.Frame{
		Tick: sc.space.Steps(),
		Camera: posestream.Camera{
			Position: sc.lastPose.Position,
			LookAt:   sc.lastPose.LookAt,
		},
		Braking: sc.ctrl.LastCommand().Braking(),
	}
	if sc.entity == nil || !sc.entity.Alive() {
		return f
	}

	body := sc.entity.Body()
	f.Chassis = pose(body.Translation(), body.Rotation())
	f.SpeedKmh = sc.SpeedKmh()
	f.Wheels = make([]posestream.Pose, 0, sc.entity.Wheels())
	for i := 0; i < sc.entity.Wheels(); i++ {
		t, _ := sc.entity.WheelPose(i)
		f.Wheels = append(f.Wheels, pose(t.Position, t.Rotation))
	}
	return f
}

func pose(p mgl64.Vec3, q mgl64.Quat) posestream.Pose {
	return posestream.Pose{
		Position:   p,
		Quaternion: [4]float64{q.V.X(), q.V.Y(), q.V.Z(), q.W},
	}
}

// Close despawns the vehicle and detaches the controller from the space
func (sc *Scene) Close() {
	sc.unhook()
	if sc.entity != nil {
		sc.entity.Despawn()
		sc.entity = nil
	}
	sc.ctrl.SetVehicle(nil)
}
