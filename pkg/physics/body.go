package physics

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidBody is returned when body options cannot produce a simulable body.
var ErrInvalidBody = errors.New("invalid body")

// BodyOptions configures a dynamic box body.
type BodyOptions struct {
	Mass           float64
	HalfExtents    mgl64.Vec3 // collider half size
	ColliderOffset mgl64.Vec3 // collider centre relative to the body origin, body space
	Position       mgl64.Vec3
	Rotation       mgl64.Quat
	Friction       float64
	LinearDamping  float64 // fraction of velocity removed per second
	AngularDamping float64
}

// Body is a dynamic box rigid body.
type Body struct {
	mass       float64
	invInertia mgl64.Vec3 // body-space diagonal
	half       mgl64.Vec3
	offset     mgl64.Vec3
	friction   float64
	linDamp    float64
	angDamp    float64

	position mgl64.Vec3
	rotation mgl64.Quat
	linVel   mgl64.Vec3
	angVel   mgl64.Vec3

	force  mgl64.Vec3
	torque mgl64.Vec3

	space *Space
}

// NewBody creates a detached body. It becomes valid once added to a Space.
func NewBody(opts BodyOptions) (*Body, error) {
	if opts.Mass <= 0 {
		return nil, fmt.Errorf("%w: mass %v must be positive", ErrInvalidBody, opts.Mass)
	}
	h := opts.HalfExtents
	if h.X() <= 0 || h.Y() <= 0 || h.Z() <= 0 {
		return nil, fmt.Errorf("%w: half extents %v must be positive", ErrInvalidBody, h)
	}
	rot := opts.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}

	// Solid box: I = m/3 * (b^2 + c^2) for half extents a, b, c.
	x2, y2, z2 := h.X()*h.X(), h.Y()*h.Y(), h.Z()*h.Z()
	m3 := opts.Mass / 3
	inertia := mgl64.Vec3{m3 * (y2 + z2), m3 * (x2 + z2), m3 * (x2 + y2)}

	return &Body{
		mass:       opts.Mass,
		invInertia: mgl64.Vec3{1 / inertia.X(), 1 / inertia.Y(), 1 / inertia.Z()},
		half:       h,
		offset:     opts.ColliderOffset,
		friction:   opts.Friction,
		linDamp:    opts.LinearDamping,
		angDamp:    opts.AngularDamping,
		position:   opts.Position,
		rotation:   rot.Normalize(),
	}, nil
}

func (b *Body) Valid() bool                 { return b != nil && b.space != nil }
func (b *Body) Mass() float64               { return b.mass }
func (b *Body) Translation() mgl64.Vec3     { return b.position }
func (b *Body) Rotation() mgl64.Quat        { return b.rotation }
func (b *Body) LinearVelocity() mgl64.Vec3  { return b.linVel }
func (b *Body) AngularVelocity() mgl64.Vec3 { return b.angVel }

// VelocityAtPoint returns the world velocity of a point rigidly attached to the body.
func (b *Body) VelocityAtPoint(p mgl64.Vec3) mgl64.Vec3 {
	return b.linVel.Add(b.angVel.Cross(p.Sub(b.position)))
}

// ApplyForceAtPoint accumulates a world-space force applied at a world point.
// Accumulators are consumed by the next Space.Step.
func (b *Body) ApplyForceAtPoint(force, point mgl64.Vec3) {
	b.force = b.force.Add(force)
	b.torque = b.torque.Add(point.Sub(b.position).Cross(force))
}

// SetPose teleports the body and clears its velocities.
func (b *Body) SetPose(position mgl64.Vec3, rotation mgl64.Quat) {
	b.position = position
	b.rotation = rotation.Normalize()
	b.linVel = mgl64.Vec3{}
	b.angVel = mgl64.Vec3{}
}

// SetLinearVelocity overrides the body's linear velocity.
func (b *Body) SetLinearVelocity(v mgl64.Vec3) { b.linVel = v }

// SetAngularVelocity overrides the body's angular velocity.
func (b *Body) SetAngularVelocity(w mgl64.Vec3) { b.angVel = w }

// HalfExtents returns the collider half size.
func (b *Body) HalfExtents() mgl64.Vec3 { return b.half }

// invInertiaWorld applies the world-space inverse inertia tensor to v.
func (b *Body) invInertiaWorld(v mgl64.Vec3) mgl64.Vec3 {
	local := b.rotation.Conjugate().Rotate(v)
	local = mgl64.Vec3{local.X() * b.invInertia.X(), local.Y() * b.invInertia.Y(), local.Z() * b.invInertia.Z()}
	return b.rotation.Rotate(local)
}

// colliderCenter returns the world position of the collider centre.
func (b *Body) colliderCenter() mgl64.Vec3 {
	return b.position.Add(b.rotation.Rotate(b.offset))
}

// Corners returns the eight collider corners in world space.
func (b *Body) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	c := b.colliderCenter()
	i := 0
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				local := mgl64.Vec3{sx * b.half.X(), sy * b.half.Y(), sz * b.half.Z()}
				out[i] = c.Add(b.rotation.Rotate(local))
				i++
			}
		}
	}
	return out
}

func (b *Body) applyImpulseAt(impulse, point mgl64.Vec3) {
	b.linVel = b.linVel.Add(impulse.Mul(1 / b.mass))
	b.angVel = b.angVel.Add(b.invInertiaWorld(point.Sub(b.position).Cross(impulse)))
}

func (b *Body) integrate(dt float64, gravity mgl64.Vec3) {
	accel := gravity.Add(b.force.Mul(1 / b.mass))
	b.linVel = b.linVel.Add(accel.Mul(dt))
	b.angVel = b.angVel.Add(b.invInertiaWorld(b.torque).Mul(dt))

	if b.linDamp > 0 {
		b.linVel = b.linVel.Mul(mgl64.Clamp(1-b.linDamp*dt, 0, 1))
	}
	if b.angDamp > 0 {
		b.angVel = b.angVel.Mul(mgl64.Clamp(1-b.angDamp*dt, 0, 1))
	}

	b.position = b.position.Add(b.linVel.Mul(dt))

	spin := mgl64.Quat{W: 0, V: b.angVel}.Mul(b.rotation).Scale(0.5 * dt)
	b.rotation = b.rotation.Add(spin).Normalize()

	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}
