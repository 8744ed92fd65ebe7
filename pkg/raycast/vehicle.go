// Package raycast simulates a wheeled vehicle on top of a rigid-body world by
// casting one suspension ray per wheel instead of simulating wheel bodies.
package raycast

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golangdaddy/driveport/pkg/physics"
	"github.com/rs/zerolog"
)

const (
	// Free-spinning wheels have no ground reaction; these stand in for wheel inertia.
	freeSpinInertia   = 1.0
	freeSpinBrakeRate = 50.0 // rad/s² per unit of brake value
	freeSpinDamping   = 0.99 // per tick

	// msToKmh converts metres per second to kilometres per hour
	msToKmh = 3.6
)

// AxisConfig names which chassis-space axis (0=X, 1=Y, 2=Z) points right, up and forward
type AxisConfig struct {
	Right   int
	Up      int
	Forward int
}

// DefaultAxes is X forward, Y up, Z right
var DefaultAxes = AxisConfig{Right: 2, Up: 1, Forward: 0}

func (a AxisConfig) valid() bool {
	seen := [3]bool{}
	for _, i := range []int{a.Right, a.Up, a.Forward} {
		if i < 0 || i > 2 || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

func unitAxis(i int) mgl64.Vec3 {
	var v mgl64.Vec3
	v[i] = 1
	return v
}

// Recorder receives per-tick events worth counting
type Recorder interface {
	WheelContactLost(wheel int)
	StaleTick()
}

type nopRecorder struct{}

func (nopRecorder) WheelContactLost(int) {}
func (nopRecorder) StaleTick()           {}

// Option configures a Vehicle
type Option func(*Vehicle)

// WithLogger sets the logger used for stale-chassis warnings
func WithLogger(logger zerolog.Logger) Option {
	return func(v *Vehicle) {
		v.logger = logger
	}
}

// WithRecorder routes contact-loss and stale-tick events to r
func WithRecorder(r Recorder) Option {
	return func(v *Vehicle) {
		if r != nil {
			v.recorder = r
		}
	}
}

// Vehicle owns an ordered list of wheels and borrows a chassis body from a world
type Vehicle struct {
	world   physics.World
	chassis physics.RigidBody
	axes    AxisConfig

	wheels []WheelState

	logger      zerolog.Logger
	recorder    Recorder
	staleWarned bool

	// per-tick scratch, indexed like wheels
	forwardSpeed []float64
	drive        []float64
}

// New creates a vehicle with no wheels
func New(world physics.World, chassis physics.RigidBody, axes AxisConfig, opts ...Option) (*Vehicle, error) {
	if world == nil {
		return nil, fmt.Errorf("%w: nil world", ErrInvalidVehicle)
	}
	if chassis == nil {
		return nil, fmt.Errorf("%w: nil chassis", ErrInvalidVehicle)
	}
	if !axes.valid() {
		return nil, fmt.Errorf("%w: axes %+v are not a permutation of 0, 1, 2", ErrInvalidVehicle, axes)
	}

	v := &Vehicle{
		world:    world,
		chassis:  chassis,
		axes:     axes,
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// AddWheel appends a wheel and returns its index. Wheels cannot be removed.
func (v *Vehicle) AddWheel(opts WheelOptions) (int, error) {
	if err := opts.validate(); err != nil {
		return -1, err
	}
	opts.DirectionLocal = opts.DirectionLocal.Normalize()
	opts.AxleLocal = opts.AxleLocal.Normalize()

	w := WheelState{WheelOptions: opts}
	w.SuspensionLength = opts.SuspensionRestLength
	w.WorldTransform.Rotation = mgl64.QuatIdent()

	v.wheels = append(v.wheels, w)
	v.forwardSpeed = append(v.forwardSpeed, 0)
	v.drive = append(v.drive, 0)
	return len(v.wheels) - 1, nil
}

func (v *Vehicle) wheel(i int) (*WheelState, error) {
	if i < 0 || i >= len(v.wheels) {
		return nil, fmt.Errorf("%w: %d of %d", ErrWheelIndex, i, len(v.wheels))
	}
	return &v.wheels[i], nil
}

// SetSteeringValue sets the steering angle in radians. No clamping is done here.
func (v *Vehicle) SetSteeringValue(angle float64, i int) error {
	w, err := v.wheel(i)
	if err != nil {
		return err
	}
	w.SteeringAngle = angle
	return nil
}

// SetBrakeValue sets a non-negative brake value; negative values are treated as zero
func (v *Vehicle) SetBrakeValue(brake float64, i int) error {
	w, err := v.wheel(i)
	if err != nil {
		return err
	}
	w.BrakeValue = math.Max(brake, 0)
	return nil
}

// ApplyEngineForce sets the signed engine force; positive drives forward
func (v *Vehicle) ApplyEngineForce(force float64, i int) error {
	w, err := v.wheel(i)
	if err != nil {
		return err
	}
	w.EngineForce = force
	return nil
}

// NumWheels returns the number of wheels added so far
func (v *Vehicle) NumWheels() int {
	return len(v.wheels)
}

// Wheels returns a copy of every wheel's state in index order
func (v *Vehicle) Wheels() []WheelState {
	out := make([]WheelState, len(v.wheels))
	copy(out, v.wheels)
	return out
}

// Wheel returns a copy of one wheel's state
func (v *Vehicle) Wheel(i int) (WheelState, bool) {
	if i < 0 || i >= len(v.wheels) {
		return WheelState{}, false
	}
	return v.wheels[i], true
}

// Chassis returns the borrowed chassis body
func (v *Vehicle) Chassis() physics.RigidBody {
	return v.chassis
}

// Axes returns the vehicle's axis configuration
func (v *Vehicle) Axes() AxisConfig {
	return v.axes
}

// ChassisForward returns the chassis forward axis in world space
func (v *Vehicle) ChassisForward() mgl64.Vec3 {
	return v.chassis.Rotation().Rotate(unitAxis(v.axes.Forward))
}

// CurrentSpeedKmHour is the chassis speed along its forward axis
func (v *Vehicle) CurrentSpeedKmHour() float64 {
	if !v.chassis.Valid() {
		return 0
	}
	return v.chassis.LinearVelocity().Dot(v.ChassisForward()) * msToKmh
}

// Update advances every wheel by dt and applies the summed wheel forces to the
// chassis. It must run before the world integrates the tick.
func (v *Vehicle) Update(dt float64) {
	if !v.chassis.Valid() {
		if !v.staleWarned {
			v.logger.Warn().Int("wheels", len(v.wheels)).Msg("chassis reference is stale, skipping vehicle update")
			v.staleWarned = true
		}
		v.recorder.StaleTick()
		return
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		dt = v.world.Timestep()
	}

	pos := v.chassis.Translation()
	rot := v.chassis.Rotation()
	mass := v.chassis.Mass()
	up := rot.Rotate(unitAxis(v.axes.Up))
	forward := rot.Rotate(unitAxis(v.axes.Forward))

	inContact := 0
	for i := range v.wheels {
		if v.updateSuspension(i, dt, pos, rot, mass) {
			inContact++
		}
	}

	type appliedForce struct{ force, point mgl64.Vec3 }
	forces := make([]appliedForce, 0, 3*inContact)

	for i := range v.wheels {
		w := &v.wheels[i]
		v.drive[i] = w.EngineForce * w.ForwardAcceleration
		v.forwardSpeed[i] = 0
		if !w.InContact {
			continue
		}
		share := mass / float64(inContact)

		forces = append(forces, appliedForce{w.ContactNormal.Mul(w.SuspensionForce), w.ContactPoint})

		fwd, side, ok := groundFrame(forward, up, w.ContactNormal, w.SteeringAngle)
		if !ok {
			continue
		}
		vel := v.chassis.VelocityAtPoint(w.ContactPoint)
		vFwd := vel.Dot(fwd)
		vSide := vel.Dot(side)
		v.forwardSpeed[i] = vFwd

		w.ForwardForce, w.SideForce, w.Sliding = frictionForces(w, v.drive[i], vFwd, vSide, share, dt)

		forces = append(forces, appliedForce{fwd.Mul(w.ForwardForce), w.ContactPoint})

		// Lift the side force toward the centre of mass to reduce body roll.
		rel := w.ContactPoint.Sub(pos)
		rel = rel.Sub(up.Mul(rel.Dot(up) * (1 - w.RollInfluence)))
		forces = append(forces, appliedForce{side.Mul(w.SideForce), pos.Add(rel)})
	}

	for i := range v.wheels {
		v.integrateRotation(i, dt)
		v.updateTransform(i, pos, rot)
	}

	for _, f := range forces {
		v.chassis.ApplyForceAtPoint(f.force, f.point)
	}
}

// updateSuspension casts the wheel ray and fills in the suspension state.
// It reports whether the wheel touches ground.
func (v *Vehicle) updateSuspension(i int, dt float64, pos mgl64.Vec3, rot mgl64.Quat, mass float64) bool {
	w := &v.wheels[i]
	hadContact := w.InContact
	prevLength := w.SuspensionLength

	origin := pos.Add(rot.Rotate(w.ChassisConnectionPointLocal))
	dir := rot.Rotate(w.DirectionLocal)

	hit, ok := v.world.CastRay(origin, dir, w.RayLength(), v.chassis)
	if !ok {
		w.clearContact()
		if hadContact {
			v.recorder.WheelContactLost(i)
		}
		return false
	}

	w.InContact = true
	w.SuspensionLength = ClampSuspensionLength(hit.Distance-w.Radius, w.SuspensionRestLength, w.MaxSuspensionTravel)
	if hadContact {
		w.SuspensionRelativeVelocity = (prevLength - w.SuspensionLength) / dt
	} else {
		w.SuspensionRelativeVelocity = 0
	}

	w.ContactPoint = hit.Point
	w.ContactNormal = hit.Normal
	if w.ContactNormal.Len() < 1e-9 {
		w.ContactNormal = dir.Mul(-1)
	} else {
		w.ContactNormal = w.ContactNormal.Normalize()
	}
	w.ContactFriction = hit.Friction

	spring, damping := w.suspensionTerms()
	w.SpringForce = spring
	force := (spring + damping*w.SuspensionRelativeVelocity) * mass
	w.SuspensionForce = mgl64.Clamp(force, 0, math.Max(w.MaxSuspensionForce, 0))
	return true
}

// groundFrame returns the steered forward and side directions projected onto
// the contact plane.
func groundFrame(forward, up, normal mgl64.Vec3, steer float64) (fwd, side mgl64.Vec3, ok bool) {
	fwd = mgl64.QuatRotate(steer, up).Rotate(forward)
	fwd = fwd.Sub(normal.Mul(fwd.Dot(normal)))
	if fwd.Len() < 1e-9 {
		return fwd, side, false
	}
	fwd = fwd.Normalize()
	side = fwd.Cross(normal)
	return fwd, side, true
}

// frictionForces computes the longitudinal and lateral contact forces for one
// wheel carrying share of the chassis mass.
func frictionForces(w *WheelState, drive, vFwd, vSide, share, dt float64) (forward, side float64, sliding bool) {
	forward = drive

	// Braking opposes the rolling direction and stops at zero speed.
	if brake := w.BrakeValue * w.SuspensionForce; brake > 0 && vFwd != 0 {
		stop := math.Abs(vFwd) * share / dt
		forward -= math.Copysign(math.Min(brake, stop), vFwd)
	}

	limit := w.SuspensionForce * w.ContactFriction * w.FrictionSlip
	if math.Abs(forward) > limit {
		forward = math.Copysign(limit, forward)
		sliding = true
	}

	side = -vSide * w.SideFrictionStiffness * w.SideAcceleration * share
	if stop := math.Abs(vSide) * share / dt; math.Abs(side) > stop {
		side = math.Copysign(stop, side)
	}
	if math.Abs(side) > limit {
		side = math.Copysign(limit, side)
		sliding = true
	}
	return forward, side, sliding
}

func (v *Vehicle) integrateRotation(i int, dt float64) {
	w := &v.wheels[i]
	drive := v.drive[i]

	if w.InContact {
		w.AngularVelocity = v.forwardSpeed[i] / w.Radius
		if w.Sliding && w.UseCustomSlidingRotationalSpeed && drive != 0 {
			w.AngularVelocity = math.Copysign(math.Abs(w.CustomSlidingRotationalSpeed), drive)
		}
	} else {
		w.AngularVelocity += drive * w.Radius / freeSpinInertia * dt
		if w.BrakeValue > 0 {
			slow := w.BrakeValue * freeSpinBrakeRate * dt
			if math.Abs(w.AngularVelocity) <= slow {
				w.AngularVelocity = 0
			} else {
				w.AngularVelocity -= math.Copysign(slow, w.AngularVelocity)
			}
		}
		w.AngularVelocity *= freeSpinDamping
	}

	w.DeltaRotation = w.AngularVelocity * dt
	w.Rotation = wrapAngle(w.Rotation + w.DeltaRotation)
}

// updateTransform places the wheel centre suspensionLength below its
// connection point and orients it by chassis, steering then spin.
func (v *Vehicle) updateTransform(i int, pos mgl64.Vec3, rot mgl64.Quat) {
	w := &v.wheels[i]
	origin := pos.Add(rot.Rotate(w.ChassisConnectionPointLocal))
	dir := rot.Rotate(w.DirectionLocal)
	w.WorldTransform.Position = origin.Add(dir.Mul(w.SuspensionLength))

	steer := mgl64.QuatRotate(w.SteeringAngle, unitAxis(v.axes.Up))
	// Rolling forward spins against the axle direction for a right-pointing axle.
	spin := mgl64.QuatRotate(-w.Rotation, w.AxleLocal)
	w.WorldTransform.Rotation = rot.Mul(steer).Mul(spin).Normalize()
}
