package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CameraMode selects who writes the camera
type CameraMode int

const (
	// CameraDrive follows the vehicle or the scroll position
	CameraDrive CameraMode = iota
	// CameraOrbit hands the camera to an OrbitCamera
	CameraOrbit
)

func (m CameraMode) String() string {
	switch m {
	case CameraDrive:
		return "drive"
	case CameraOrbit:
		return "orbit"
	}
	return "unknown"
}

// CameraPose is a camera position and the point it looks at
type CameraPose struct {
	Position mgl64.Vec3
	LookAt   mgl64.Vec3
}

// FrameInput is what the render callback knows about the viewport and page
type FrameInput struct {
	Width, Height  float64
	ScrollOffset   float64 // 0..1
	KeyboardActive bool
	Showcase       bool // camera parked on the showcase framing
}

// CameraConfig tunes the drive camera
type CameraConfig struct {
	Smoothing       float64 // k in 1 - k^dt
	InitialPosition mgl64.Vec3
	InitialLookAt   mgl64.Vec3
	BasePosition    mgl64.Vec3
	BaseLookAt      mgl64.Vec3
	ScaleDirection  mgl64.Vec3 // pulled back along this, times the aspect coefficient
}

// DefaultCameraConfig returns the demo scene framing
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Smoothing:       0.01,
		InitialPosition: mgl64.Vec3{15, 15, 0},
		InitialLookAt:   mgl64.Vec3{0, 0, 0},
		BasePosition:    mgl64.Vec3{20, 20, 0},
		BaseLookAt:      mgl64.Vec3{10, 10, 0},
		ScaleDirection:  mgl64.Vec3{10, 0, 0},
	}
}

const (
	showcaseX      = 0.01
	showcaseScroll = -85
	scrollSpan     = 100
	lateralFollow  = 0.3
)

// SmoothingFactor is the frame-rate independent lerp weight 1 - k^dt
func SmoothingFactor(k, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return 1 - math.Pow(k, dt)
}

// AspectScale pulls the camera back on tall viewports. ratio is height/width.
func AspectScale(ratio float64, showcase bool) float64 {
	switch {
	case showcase:
		return 1
	case ratio > 0.5 && ratio < 1:
		return 2 * ratio * ratio * ratio
	case ratio > 1 && ratio < 2:
		return 1.3 * ratio
	case ratio > 2:
		return 1.2 * ratio
	}
	return ratio * ratio * ratio
}

// CameraRig smooths the drive camera toward a desired pose each frame
type CameraRig struct {
	cfg     CameraConfig
	current CameraPose
}

// NewCameraRig creates a rig at the configured initial pose
func NewCameraRig(cfg CameraConfig) *CameraRig {
	return &CameraRig{
		cfg:     cfg,
		current: CameraPose{Position: cfg.InitialPosition, LookAt: cfg.InitialLookAt},
	}
}

// Current returns the last rendered pose
func (r *CameraRig) Current() CameraPose {
	return r.current
}

// Reset places the rig at p without smoothing
func (r *CameraRig) Reset(p CameraPose) {
	r.current = p
}

// Desired computes the target pose for a chassis position and frame input
func (r *CameraRig) Desired(chassis mgl64.Vec3, in FrameInput) CameraPose {
	ratio := 1.0
	if in.Width > 0 && in.Height > 0 {
		ratio = in.Height / in.Width
	}

	base := r.cfg.BasePosition
	scroll := mgl64.Clamp(in.ScrollOffset, 0, 1)*2*scrollSpan - scrollSpan
	if in.Showcase {
		base[0] = showcaseX
		if ratio > 1 && ratio < 2 {
			base[1] = 24 * ratio
		} else {
			base[1] = 27 * ratio
		}
		scroll = showcaseScroll
	}

	lift := 3.0
	if ratio > 1 {
		lift = 9
	}
	scale := r.cfg.ScaleDirection.Add(mgl64.Vec3{0, lift, 0})

	x, z := scroll, 0.0
	if in.KeyboardActive && !in.Showcase {
		x = chassis.X()
		z = lateralFollow * chassis.Z()
	}

	return CameraPose{
		Position: base.Add(scale.Mul(AspectScale(ratio, in.Showcase))).Add(mgl64.Vec3{x, 0, 0}),
		LookAt:   r.cfg.BaseLookAt.Add(mgl64.Vec3{x, 0, z}),
	}
}

// Step moves the rig toward desired by SmoothingFactor(k, dt) and returns the new pose
func (r *CameraRig) Step(dt float64, desired CameraPose) CameraPose {
	t := SmoothingFactor(r.cfg.Smoothing, dt)
	r.current.Position = lerp(r.current.Position, desired.Position, t)
	r.current.LookAt = lerp(r.current.LookAt, desired.LookAt, t)
	return r.current
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// OrbitCamera takes over the camera in orbit mode
type OrbitCamera interface {
	Update(dt float64, target mgl64.Vec3) CameraPose
	Reset(from CameraPose)
}

// OrbitConfig tunes the built-in orbit camera
type OrbitConfig struct {
	Distance  float64
	Elevation float64 // radians above the horizon
	Speed     float64 // radians per second of automatic rotation
}

// DefaultOrbitConfig returns a slow turntable around the vehicle
func DefaultOrbitConfig() OrbitConfig {
	return OrbitConfig{Distance: 12, Elevation: 0.5, Speed: 0.3}
}

// Orbit circles a target at a fixed distance. Rotate adds user input on top of
// the automatic rotation.
type Orbit struct {
	cfg       OrbitConfig
	yaw       float64
	elevation float64
}

// NewOrbit creates an orbit camera
func NewOrbit(cfg OrbitConfig) *Orbit {
	return &Orbit{cfg: cfg, elevation: cfg.Elevation}
}

// Rotate nudges the orbit by user drag, keeping the camera above the ground
func (o *Orbit) Rotate(dYaw, dElevation float64) {
	o.yaw += dYaw
	o.elevation = mgl64.Clamp(o.elevation+dElevation, 0.05, math.Pi/2-0.05)
}

// Reset starts the orbit from the direction of an existing pose
func (o *Orbit) Reset(from CameraPose) {
	d := from.Position.Sub(from.LookAt)
	if d.Len() < 1e-9 {
		return
	}
	o.yaw = math.Atan2(d.Z(), d.X())
	o.elevation = mgl64.Clamp(math.Asin(d.Normalize().Y()), 0.05, math.Pi/2-0.05)
}

func (o *Orbit) Update(dt float64, target mgl64.Vec3) CameraPose {
	o.yaw += o.cfg.Speed * dt
	horiz := o.cfg.Distance * math.Cos(o.elevation)
	offset := mgl64.Vec3{
		horiz * math.Cos(o.yaw),
		o.cfg.Distance * math.Sin(o.elevation),
		horiz * math.Sin(o.yaw),
	}
	return CameraPose{Position: target.Add(offset), LookAt: target}
}

// CameraMode returns the active camera mode
func (c *Controller) CameraMode() CameraMode {
	return c.mode
}

// ToggleCameraMode flips between drive and orbit. Each mode starts from the
// pose the other left behind so the switch does not jump.
func (c *Controller) ToggleCameraMode() CameraMode {
	if c.mode == CameraDrive {
		c.orbit.Reset(c.rig.Current())
		c.mode = CameraOrbit
	} else {
		c.mode = CameraDrive
	}
	c.logger.Info().Str("mode", c.mode.String()).Msg("camera mode changed")
	return c.mode
}

// Rotatable is an orbit camera the user can drag
type Rotatable interface {
	Rotate(dYaw, dElevation float64)
}

// RotateOrbit passes a user drag, in radians, to the orbit camera. It does
// nothing in drive mode or when the orbit camera cannot be dragged.
func (c *Controller) RotateOrbit(dYaw, dElevation float64) bool {
	if c.mode != CameraOrbit {
		return false
	}
	r, ok := c.orbit.(Rotatable)
	if !ok {
		return false
	}
	r.Rotate(dYaw, dElevation)
	return true
}

// Frame updates the camera for one rendered frame of length dt. In drive mode
// it smooths the rig toward the desired pose. In orbit mode it returns the
// orbit camera's pose and parks the rig there, so drive mode resumes from it.
func (c *Controller) Frame(dt float64, in FrameInput) CameraPose {
	var chassis mgl64.Vec3
	mounted := false
	if c.vehicle != nil {
		if ch := c.vehicle.Chassis(); ch != nil && ch.Valid() {
			chassis = ch.Translation()
			mounted = true
		}
	}

	if c.mode == CameraOrbit {
		target := c.rig.Current().LookAt
		if mounted {
			target = chassis
		}
		pose := c.orbit.Update(dt, target)
		c.rig.Reset(pose)
		return pose
	}

	if !mounted {
		// Hold the camera while the vehicle is respawning.
		return c.rig.Current()
	}
	return c.rig.Step(dt, c.rig.Desired(chassis, in))
}
