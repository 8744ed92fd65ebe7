package raycast

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WheelOptions is the immutable configuration of one wheel
type WheelOptions struct {
	ChassisConnectionPointLocal mgl64.Vec3 // offset from the chassis origin, chassis space
	DirectionLocal              mgl64.Vec3 // suspension "down", normalised by AddWheel
	AxleLocal                   mgl64.Vec3 // spin axis, normalised by AddWheel

	Radius               float64
	SuspensionRestLength float64
	SuspensionStiffness  float64
	MaxSuspensionTravel  float64
	MaxSuspensionForce   float64
	DampingCompression   float64
	DampingRelaxation    float64

	FrictionSlip          float64
	SideFrictionStiffness float64
	RollInfluence         float64

	CustomSlidingRotationalSpeed    float64
	UseCustomSlidingRotationalSpeed bool

	ForwardAcceleration float64
	SideAcceleration    float64
}

// MaxSuspensionLength is the longest the suspension may extend
func (o WheelOptions) MaxSuspensionLength() float64 {
	return o.SuspensionRestLength + o.MaxSuspensionTravel
}

// RayLength is how far below the connection point the wheel looks for ground
func (o WheelOptions) RayLength() float64 {
	return o.MaxSuspensionLength() + o.Radius
}

func (o WheelOptions) validate() error {
	if !(o.Radius > 0) || math.IsInf(o.Radius, 0) {
		return &ConfigurationError{Field: "Radius", Value: o.Radius}
	}
	if !(o.SuspensionRestLength >= 0) || math.IsInf(o.SuspensionRestLength, 0) {
		return &ConfigurationError{Field: "SuspensionRestLength", Value: o.SuspensionRestLength}
	}
	if o.MaxSuspensionTravel < 0 || math.IsNaN(o.MaxSuspensionTravel) || math.IsInf(o.MaxSuspensionTravel, 0) {
		return &ConfigurationError{Field: "MaxSuspensionTravel", Value: o.MaxSuspensionTravel}
	}
	if !usableDirection(o.DirectionLocal) {
		return &ConfigurationError{Field: "DirectionLocal", Value: o.DirectionLocal}
	}
	if !usableDirection(o.AxleLocal) {
		return &ConfigurationError{Field: "AxleLocal", Value: o.AxleLocal}
	}
	for _, v := range o.ChassisConnectionPointLocal {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigurationError{Field: "ChassisConnectionPointLocal", Value: o.ChassisConnectionPointLocal}
		}
	}
	return nil
}

func usableDirection(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return v.Len() > 1e-9
}

// Transform is a world-space pose
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// WheelState is a wheel's configuration plus the live state written by Update
type WheelState struct {
	WheelOptions

	SuspensionLength           float64
	SuspensionRelativeVelocity float64 // positive while compressing
	SpringForce                float64 // per unit chassis mass, before damping and clamping
	SuspensionForce            float64 // applied along the contact normal, after clamping

	InContact       bool
	ContactPoint    mgl64.Vec3
	ContactNormal   mgl64.Vec3
	ContactFriction float64

	ForwardForce float64
	SideForce    float64
	Sliding      bool

	AngularVelocity float64 // rad/s, positive rolls forward
	DeltaRotation   float64
	Rotation        float64 // accumulated spin in [0, 2π)

	WorldTransform Transform

	SteeringAngle float64
	BrakeValue    float64
	EngineForce   float64
}

// ClampSuspensionLength keeps a raw suspension length inside [0, rest+maxTravel].
// NaN falls back to the rest length.
func ClampSuspensionLength(length, rest, maxTravel float64) float64 {
	if math.IsNaN(length) {
		return rest
	}
	return mgl64.Clamp(length, 0, rest+maxTravel)
}

// suspensionTerms returns the per-unit-mass spring term and the damping
// coefficient picked from the direction of travel.
func (w *WheelState) suspensionTerms() (spring, damping float64) {
	spring = w.SuspensionStiffness * (w.SuspensionRestLength - w.SuspensionLength)
	damping = w.DampingRelaxation
	if w.SuspensionRelativeVelocity > 0 {
		damping = w.DampingCompression
	}
	return spring, damping
}

func (w *WheelState) clearContact() {
	w.InContact = false
	w.SuspensionLength = w.SuspensionRestLength
	w.SuspensionRelativeVelocity = 0
	w.SpringForce = 0
	w.SuspensionForce = 0
	w.ContactPoint = mgl64.Vec3{}
	w.ContactNormal = mgl64.Vec3{}
	w.ContactFriction = 0
	w.ForwardForce = 0
	w.SideForce = 0
	w.Sliding = false
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
