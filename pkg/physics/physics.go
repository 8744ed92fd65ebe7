// Package physics is the rigid-body boundary the vehicle core talks to, plus a
// small reference world used by the demo and the tests.
package physics

import "github.com/go-gl/mathgl/mgl64"

// RayHit describes the closest intersection found by a ray cast.
type RayHit struct {
	Distance float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Friction float64
}

// World is the part of a physics engine the vehicle core borrows.
type World interface {
	// CastRay returns the closest hit along dir within maxDist, ignoring the
	// colliders of the excluded bodies.
	CastRay(origin, dir mgl64.Vec3, maxDist float64, exclude ...RigidBody) (RayHit, bool)
	Timestep() float64
}

// RigidBody is a borrowed handle to a body owned by a World. Valid reports
// false once the body has been removed from its world.
type RigidBody interface {
	Valid() bool
	Mass() float64
	Translation() mgl64.Vec3
	Rotation() mgl64.Quat
	LinearVelocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
	VelocityAtPoint(p mgl64.Vec3) mgl64.Vec3
	ApplyForceAtPoint(force, point mgl64.Vec3)
}
