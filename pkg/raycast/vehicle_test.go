package raycast

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golangdaddy/driveport/pkg/physics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorld struct {
	hit      bool
	distance float64
	friction float64
	casts    int
	excluded int
}

func (w *fakeWorld) CastRay(origin, dir mgl64.Vec3, maxDist float64, exclude ...physics.RigidBody) (physics.RayHit, bool) {
	w.casts++
	w.excluded = len(exclude)
	if !w.hit {
		return physics.RayHit{}, false
	}
	d := dir.Normalize()
	return physics.RayHit{
		Distance: w.distance,
		Point:    origin.Add(d.Mul(w.distance)),
		Normal:   mgl64.Vec3{0, 1, 0},
		Friction: w.friction,
	}, true
}

func (w *fakeWorld) Timestep() float64 { return 1.0 / 400 }

type appliedForce struct {
	force, point mgl64.Vec3
}

type fakeBody struct {
	valid   bool
	mass    float64
	pos     mgl64.Vec3
	vel     mgl64.Vec3
	applied []appliedForce
}

func (b *fakeBody) Valid() bool                           { return b.valid }
func (b *fakeBody) Mass() float64                         { return b.mass }
func (b *fakeBody) Translation() mgl64.Vec3               { return b.pos }
func (b *fakeBody) Rotation() mgl64.Quat                  { return mgl64.QuatIdent() }
func (b *fakeBody) LinearVelocity() mgl64.Vec3            { return b.vel }
func (b *fakeBody) AngularVelocity() mgl64.Vec3           { return mgl64.Vec3{} }
func (b *fakeBody) VelocityAtPoint(mgl64.Vec3) mgl64.Vec3 { return b.vel }
func (b *fakeBody) ApplyForceAtPoint(force, point mgl64.Vec3) {
	b.applied = append(b.applied, appliedForce{force, point})
}

type countingRecorder struct {
	lost  []int
	stale int
}

func (r *countingRecorder) WheelContactLost(wheel int) { r.lost = append(r.lost, wheel) }
func (r *countingRecorder) StaleTick()                 { r.stale++ }

func testWheel(x, z float64) WheelOptions {
	return WheelOptions{
		ChassisConnectionPointLocal:     mgl64.Vec3{x, -0.35, z},
		DirectionLocal:                  mgl64.Vec3{0, -1.3, 0},
		AxleLocal:                       mgl64.Vec3{0, 0, 1},
		Radius:                          0.4,
		SuspensionRestLength:            0.3,
		SuspensionStiffness:             30,
		MaxSuspensionTravel:             0.3,
		MaxSuspensionForce:              100000,
		DampingCompression:              4.4,
		DampingRelaxation:               2.3,
		FrictionSlip:                    1.4,
		SideFrictionStiffness:           1,
		RollInfluence:                   0.01,
		CustomSlidingRotationalSpeed:    -30,
		UseCustomSlidingRotationalSpeed: true,
		ForwardAcceleration:             5,
		SideAcceleration:                3,
	}
}

func addFourWheels(t *testing.T, v *Vehicle) {
	t.Helper()
	for _, p := range [][2]float64{{1.45, 0.85}, {1.45, -0.85}, {-1.38, 0.85}, {-1.38, -0.85}} {
		_, err := v.AddWheel(testWheel(p[0], p[1]))
		require.NoError(t, err)
	}
}

func newFakeVehicle(t *testing.T, world *fakeWorld, body *fakeBody, opts ...Option) *Vehicle {
	t.Helper()
	v, err := New(world, body, DefaultAxes, opts...)
	require.NoError(t, err)
	return v
}

func TestNewRejectsBadInput(t *testing.T) {
	body := &fakeBody{valid: true, mass: 1}
	_, err := New(nil, body, DefaultAxes)
	assert.ErrorIs(t, err, ErrInvalidVehicle)

	_, err = New(&fakeWorld{}, nil, DefaultAxes)
	assert.ErrorIs(t, err, ErrInvalidVehicle)

	_, err = New(&fakeWorld{}, body, AxisConfig{Right: 0, Up: 0, Forward: 1})
	assert.ErrorIs(t, err, ErrInvalidVehicle)
}

func TestAddWheelValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WheelOptions)
		field  string
	}{
		{"zero radius", func(o *WheelOptions) { o.Radius = 0 }, "Radius"},
		{"negative radius", func(o *WheelOptions) { o.Radius = -1 }, "Radius"},
		{"NaN radius", func(o *WheelOptions) { o.Radius = math.NaN() }, "Radius"},
		{"negative rest length", func(o *WheelOptions) { o.SuspensionRestLength = -0.1 }, "SuspensionRestLength"},
		{"zero direction", func(o *WheelOptions) { o.DirectionLocal = mgl64.Vec3{} }, "DirectionLocal"},
		{"infinite direction", func(o *WheelOptions) { o.DirectionLocal = mgl64.Vec3{0, math.Inf(-1), 0} }, "DirectionLocal"},
		{"NaN axle", func(o *WheelOptions) { o.AxleLocal = mgl64.Vec3{math.NaN(), 0, 1} }, "AxleLocal"},
		{"zero axle", func(o *WheelOptions) { o.AxleLocal = mgl64.Vec3{} }, "AxleLocal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newFakeVehicle(t, &fakeWorld{}, &fakeBody{valid: true, mass: 50})
			opts := testWheel(0, 0)
			tt.mutate(&opts)

			idx, err := v.AddWheel(opts)
			require.Error(t, err)
			assert.Equal(t, -1, idx)
			assert.ErrorIs(t, err, ErrInvalidWheel)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Equal(t, 0, v.NumWheels())
		})
	}
}

func TestAddWheelNormalisesDirections(t *testing.T) {
	v := newFakeVehicle(t, &fakeWorld{}, &fakeBody{valid: true, mass: 50})
	addFourWheels(t, v)

	require.Equal(t, 4, v.NumWheels())
	w, ok := v.Wheel(2)
	require.True(t, ok)
	assert.InDelta(t, 1, w.DirectionLocal.Len(), 1e-12)
	assert.InDelta(t, -1, w.DirectionLocal.Y(), 1e-12)
	assert.InDelta(t, 0.3, w.SuspensionLength, 1e-12)

	_, ok = v.Wheel(4)
	assert.False(t, ok)
}

func TestSettersRejectBadIndex(t *testing.T) {
	v := newFakeVehicle(t, &fakeWorld{}, &fakeBody{valid: true, mass: 50})
	addFourWheels(t, v)

	assert.ErrorIs(t, v.SetSteeringValue(0.5, 4), ErrWheelIndex)
	assert.ErrorIs(t, v.SetBrakeValue(1, -1), ErrWheelIndex)
	assert.ErrorIs(t, v.ApplyEngineForce(1, 10), ErrWheelIndex)

	require.NoError(t, v.SetSteeringValue(0.5, 0))
	require.NoError(t, v.SetBrakeValue(-3, 1))
	require.NoError(t, v.ApplyEngineForce(-100, 2))

	wheels := v.Wheels()
	assert.Equal(t, 0.5, wheels[0].SteeringAngle)
	assert.Equal(t, 0.0, wheels[1].BrakeValue)
	assert.Equal(t, -100.0, wheels[2].EngineForce)
}

func TestSpringForceOnFreshContact(t *testing.T) {
	// Chassis at y=1 over ground at y=0: ray from y=0.65 hits at 0.65,
	// giving suspensionLength 0.25.
	world := &fakeWorld{hit: true, distance: 0.65, friction: 1}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 1, 0}}
	v := newFakeVehicle(t, world, body)
	addFourWheels(t, v)

	v.Update(1.0 / 400)

	assert.Equal(t, 4, world.casts)
	assert.Equal(t, 1, world.excluded, "chassis is excluded from its own rays")
	for i, w := range v.Wheels() {
		require.True(t, w.InContact, "wheel %d", i)
		assert.InDelta(t, 0.25, w.SuspensionLength, 1e-12)
		assert.InDelta(t, 1.5, w.SpringForce, 1e-12)
		assert.Equal(t, 0.0, w.SuspensionRelativeVelocity)
		assert.InDelta(t, 75, w.SuspensionForce, 1e-9)
		assert.InDelta(t, 0, w.ContactPoint.Y(), 1e-12)
	}

	// Each wheel pushes straight up at its contact point.
	var upward int
	for _, f := range body.applied {
		if f.force.Y() > 0 {
			upward++
			assert.InDelta(t, 75, f.force.Y(), 1e-9)
			assert.InDelta(t, 0, f.point.Y(), 1e-12)
		}
	}
	assert.Equal(t, 4, upward)
}

func TestSuspensionMonotonicity(t *testing.T) {
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 1, 0}}
	prev := math.Inf(1)

	// Raising the ground shortens the hit distance; going the other way the
	// wheel extends and force falls toward zero at rest length.
	for d := 0.4; d <= 0.7+1e-9; d += 0.02 {
		world := &fakeWorld{hit: true, distance: d, friction: 1}
		v := newFakeVehicle(t, world, body)
		_, err := v.AddWheel(testWheel(0, 0))
		require.NoError(t, err)

		v.Update(1.0 / 400)
		w, _ := v.Wheel(0)
		assert.LessOrEqual(t, w.SuspensionForce, prev, "distance %.2f", d)
		prev = w.SuspensionForce

		if w.SuspensionLength >= w.SuspensionRestLength {
			assert.Equal(t, 0.0, w.SuspensionForce, "distance %.2f", d)
		}
	}
	assert.InDelta(t, 0, prev, 1e-6)
}

func TestNoContact(t *testing.T) {
	world := &fakeWorld{hit: false}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 10, 0}}
	v := newFakeVehicle(t, world, body)
	addFourWheels(t, v)
	require.NoError(t, v.ApplyEngineForce(100, 2))
	require.NoError(t, v.ApplyEngineForce(100, 3))

	v.Update(1.0 / 400)

	for i, w := range v.Wheels() {
		assert.False(t, w.InContact, "wheel %d", i)
		assert.Equal(t, 0.0, w.SuspensionForce)
		assert.Equal(t, w.SuspensionRestLength, w.SuspensionLength)
	}
	assert.Empty(t, body.applied)

	// Driven wheels spin up in the air, the others stay still.
	wheels := v.Wheels()
	assert.Greater(t, wheels[2].AngularVelocity, 0.0)
	assert.Equal(t, 0.0, wheels[0].AngularVelocity)
}

func TestSuspensionLengthClamped(t *testing.T) {
	distances := []float64{-5, -0.1, 0, 0.2, 0.5, 0.99, 3, 1e9, math.Inf(1), math.Inf(-1), math.NaN()}
	world := &fakeWorld{hit: true, friction: 1}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 1, 0}}
	v := newFakeVehicle(t, world, body)
	_, err := v.AddWheel(testWheel(0, 0))
	require.NoError(t, err)

	for _, d := range distances {
		world.distance = d
		v.Update(1.0 / 400)
		w, _ := v.Wheel(0)
		assert.GreaterOrEqual(t, w.SuspensionLength, 0.0, "distance %v", d)
		assert.LessOrEqual(t, w.SuspensionLength, w.MaxSuspensionLength(), "distance %v", d)
		assert.False(t, math.IsNaN(w.SuspensionForce), "distance %v", d)
		assert.GreaterOrEqual(t, w.SuspensionForce, 0.0, "distance %v", d)
		assert.LessOrEqual(t, w.SuspensionForce, w.MaxSuspensionForce, "distance %v", d)
	}
}

func TestClampSuspensionLength(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0.1, 0.1},
		{0.6, 0.6},
		{7, 0.6},
		{math.Inf(1), 0.6},
		{math.Inf(-1), 0},
		{math.NaN(), 0.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampSuspensionLength(tt.in, 0.3, 0.3), "input %v", tt.in)
	}
}

func TestCompressionDamping(t *testing.T) {
	world := &fakeWorld{hit: true, distance: 0.7, friction: 1}
	body := &fakeBody{valid: true, mass: 10, pos: mgl64.Vec3{0, 1, 0}}
	v := newFakeVehicle(t, world, body)
	_, err := v.AddWheel(testWheel(0, 0))
	require.NoError(t, err)

	dt := 0.01
	v.Update(dt)
	world.distance = 0.6 // compresses by 0.1
	v.Update(dt)

	w, _ := v.Wheel(0)
	assert.InDelta(t, 0.2, w.SuspensionLength, 1e-12)
	assert.InDelta(t, 10, w.SuspensionRelativeVelocity, 1e-9)
	assert.InDelta(t, 3, w.SpringForce, 1e-9)
	assert.InDelta(t, (3+4.4*10)*10, w.SuspensionForce, 1e-9)

	world.distance = 0.65 // extends by 0.05
	v.Update(dt)
	w, _ = v.Wheel(0)
	assert.InDelta(t, -5, w.SuspensionRelativeVelocity, 1e-9)
	assert.InDelta(t, 0, w.SuspensionForce, 1e-9, "relaxation damping pulls the total below zero")
}

func TestFreeSpinBrakeNeverReverses(t *testing.T) {
	world := &fakeWorld{hit: false}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 10, 0}}
	v := newFakeVehicle(t, world, body)
	addFourWheels(t, v)

	require.NoError(t, v.ApplyEngineForce(100, 2))
	for i := 0; i < 20; i++ {
		v.Update(1.0 / 400)
	}
	w, _ := v.Wheel(2)
	require.Greater(t, w.AngularVelocity, 0.0)

	require.NoError(t, v.ApplyEngineForce(0, 2))
	for _, brake := range []float64{0.01, 0.3, 1, 1000} {
		require.NoError(t, v.SetBrakeValue(brake, 2))
		v.Update(1.0 / 400)
		w, _ = v.Wheel(2)
		assert.GreaterOrEqual(t, w.AngularVelocity, 0.0, "brake %v", brake)
	}
	assert.Equal(t, 0.0, w.AngularVelocity)
}

func TestContactBrakeNeverReverses(t *testing.T) {
	world := &fakeWorld{hit: true, distance: 0.62, friction: 1}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 1, 0}, vel: mgl64.Vec3{0.5, 0, 0}}
	v := newFakeVehicle(t, world, body)
	addFourWheels(t, v)
	dt := 1.0 / 400

	for i := 0; i < 4; i++ {
		require.NoError(t, v.SetBrakeValue(1000, i))
	}
	v.Update(dt)

	var impulseX float64
	for _, f := range body.applied {
		impulseX += f.force.X() * dt
	}
	// The brake may stop the chassis but never push it backwards.
	assert.Less(t, impulseX, 0.0)
	assert.GreaterOrEqual(t, body.vel.X()+impulseX/body.mass, -1e-9)

	for i, w := range v.Wheels() {
		assert.GreaterOrEqual(t, w.AngularVelocity, 0.0, "wheel %d", i)
	}
}

func TestSideFrictionOpposesSlip(t *testing.T) {
	world := &fakeWorld{hit: true, distance: 0.62, friction: 1}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 1, 0}, vel: mgl64.Vec3{0, 0, 2}}
	v := newFakeVehicle(t, world, body)
	addFourWheels(t, v)

	v.Update(1.0 / 400)

	var sideZ float64
	for _, f := range body.applied {
		sideZ += f.force.Z()
	}
	assert.Less(t, sideZ, 0.0)
	for _, w := range v.Wheels() {
		assert.Less(t, w.SideForce, 0.0)
	}
}

func TestTractionLimitSlides(t *testing.T) {
	world := &fakeWorld{hit: true, distance: 0.62, friction: 0.1}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 1, 0}}
	v := newFakeVehicle(t, world, body)
	addFourWheels(t, v)
	require.NoError(t, v.ApplyEngineForce(100, 2))

	v.Update(1.0 / 400)

	w, _ := v.Wheel(2)
	assert.True(t, w.Sliding)
	assert.InDelta(t, w.SuspensionForce*0.1*1.4, w.ForwardForce, 1e-9)
	assert.Equal(t, 30.0, w.AngularVelocity, "sliding wheel spins at the custom speed")

	w, _ = v.Wheel(0)
	assert.False(t, w.Sliding)
}

func TestWheelTransform(t *testing.T) {
	world := &fakeWorld{hit: true, distance: 0.65, friction: 1}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{2, 1, 3}}
	v := newFakeVehicle(t, world, body)
	addFourWheels(t, v)
	require.NoError(t, v.SetSteeringValue(math.Pi/2, 0))

	v.Update(1.0 / 400)

	w, _ := v.Wheel(0)
	want := mgl64.Vec3{2 + 1.45, 1 - 0.35 - 0.25, 3 + 0.85}
	assert.True(t, w.WorldTransform.Position.ApproxEqualThreshold(want, 1e-9), "got %v", w.WorldTransform.Position)

	// A quarter turn of steering swings the axle from +Z onto +X.
	axle := w.WorldTransform.Rotation.Rotate(mgl64.Vec3{0, 0, 1})
	assert.InDelta(t, 1, math.Abs(axle.X()), 1e-9)

	// Hanging wheels sit at rest length.
	world.hit = false
	v.Update(1.0 / 400)
	w, _ = v.Wheel(3)
	want = mgl64.Vec3{2 - 1.38, 1 - 0.35 - 0.3, 3 - 0.85}
	assert.True(t, w.WorldTransform.Position.ApproxEqualThreshold(want, 1e-9), "got %v", w.WorldTransform.Position)
}

func TestRotationAccumulates(t *testing.T) {
	world := &fakeWorld{hit: true, distance: 0.62, friction: 1}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 1, 0}, vel: mgl64.Vec3{4, 0, 0}}
	v := newFakeVehicle(t, world, body)
	addFourWheels(t, v)

	dt := 0.01
	v.Update(dt)
	w, _ := v.Wheel(1)
	assert.InDelta(t, 10, w.AngularVelocity, 1e-9)
	assert.InDelta(t, 0.1, w.DeltaRotation, 1e-9)
	assert.InDelta(t, 0.1, w.Rotation, 1e-9)

	for i := 0; i < 100; i++ {
		v.Update(dt)
	}
	w, _ = v.Wheel(1)
	assert.GreaterOrEqual(t, w.Rotation, 0.0)
	assert.Less(t, w.Rotation, 2*math.Pi)
}

func TestStaleChassisWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	rec := &countingRecorder{}
	world := &fakeWorld{hit: true, distance: 0.65}
	body := &fakeBody{valid: false, mass: 50}
	v := newFakeVehicle(t, world, body, WithLogger(zerolog.New(&buf)), WithRecorder(rec))
	addFourWheels(t, v)

	v.Update(1.0 / 400)
	v.Update(1.0 / 400)
	v.Update(1.0 / 400)

	assert.Equal(t, 0, world.casts)
	assert.Empty(t, body.applied)
	assert.Equal(t, 3, rec.stale)
	assert.Equal(t, 1, strings.Count(buf.String(), "chassis reference is stale"))
	assert.Equal(t, 0.0, v.CurrentSpeedKmHour())
}

func TestContactLossIsRecorded(t *testing.T) {
	rec := &countingRecorder{}
	world := &fakeWorld{hit: true, distance: 0.65, friction: 1}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 1, 0}}
	v := newFakeVehicle(t, world, body, WithRecorder(rec))
	addFourWheels(t, v)

	v.Update(1.0 / 400)
	assert.Empty(t, rec.lost)

	world.hit = false
	v.Update(1.0 / 400)
	v.Update(1.0 / 400)
	assert.Equal(t, []int{0, 1, 2, 3}, rec.lost)
}

func TestInvalidTimestepFallsBackToWorld(t *testing.T) {
	world := &fakeWorld{hit: true, distance: 0.65, friction: 1}
	body := &fakeBody{valid: true, mass: 50, pos: mgl64.Vec3{0, 1, 0}}
	v := newFakeVehicle(t, world, body)
	addFourWheels(t, v)

	v.Update(1.0 / 400)
	world.distance = 0.64
	v.Update(0)

	w, _ := v.Wheel(0)
	assert.InDelta(t, 0.01*400, w.SuspensionRelativeVelocity, 1e-9)
}

func TestCurrentSpeed(t *testing.T) {
	body := &fakeBody{valid: true, mass: 50, vel: mgl64.Vec3{10, 0, 5}}
	v := newFakeVehicle(t, &fakeWorld{}, body)
	assert.InDelta(t, 36, v.CurrentSpeedKmHour(), 1e-9)
}
