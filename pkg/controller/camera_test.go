package controller

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothingFactor(t *testing.T) {
	assert.Equal(t, 0.0, SmoothingFactor(0.01, 0))
	assert.Equal(t, 0.0, SmoothingFactor(0.01, -1))
	assert.InDelta(t, 0.99, SmoothingFactor(0.01, 1), 1e-12)

	// Two half frames smooth exactly as much as one whole frame.
	half := SmoothingFactor(0.01, 0.5)
	assert.InDelta(t, SmoothingFactor(0.01, 1), 1-(1-half)*(1-half), 1e-12)
}

func TestAspectScale(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		showcase bool
		want     float64
	}{
		{"showcase", 3, true, 1},
		{"wide", 0.4, false, 0.064},
		{"landscape", 0.75, false, 2 * 0.421875},
		{"square", 1, false, 1},
		{"portrait", 1.5, false, 1.95},
		{"tall", 2.5, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AspectScale(tt.ratio, tt.showcase), 1e-12)
		})
	}
}

func TestDesiredCamera(t *testing.T) {
	rig := NewCameraRig(DefaultCameraConfig())
	chassis := mgl64.Vec3{-40, 1, 5}

	t.Run("driving follows the chassis", func(t *testing.T) {
		p := rig.Desired(chassis, FrameInput{Width: 1000, Height: 1000, KeyboardActive: true})
		assert.True(t, p.Position.ApproxEqual(mgl64.Vec3{20 + 10 - 40, 20 + 3, 0}), "got %v", p.Position)
		assert.True(t, p.LookAt.ApproxEqual(mgl64.Vec3{10 - 40, 10, 1.5}), "got %v", p.LookAt)
	})

	t.Run("scrolling follows the page", func(t *testing.T) {
		p := rig.Desired(chassis, FrameInput{Width: 1000, Height: 1000, ScrollOffset: 0.75})
		assert.True(t, p.Position.ApproxEqual(mgl64.Vec3{20 + 10 + 50, 23, 0}), "got %v", p.Position)
		assert.True(t, p.LookAt.ApproxEqual(mgl64.Vec3{10 + 50, 10, 0}), "got %v", p.LookAt)
	})

	t.Run("tall screens lift the camera", func(t *testing.T) {
		p := rig.Desired(chassis, FrameInput{Width: 500, Height: 750})
		coef := 1.3 * 1.5
		assert.True(t, p.Position.ApproxEqual(mgl64.Vec3{20 + 10*coef - 100, 20 + 9*coef, 0}), "got %v", p.Position)
	})

	t.Run("showcase ignores driving", func(t *testing.T) {
		p := rig.Desired(chassis, FrameInput{Width: 1000, Height: 500, KeyboardActive: true, Showcase: true})
		assert.True(t, p.Position.ApproxEqual(mgl64.Vec3{0.01 + 10 - 85, 27*0.5 + 3, 0}), "got %v", p.Position)
		assert.True(t, p.LookAt.ApproxEqual(mgl64.Vec3{10 - 85, 10, 0}), "got %v", p.LookAt)
	})
}

func TestCameraContinuityOnModeSwitch(t *testing.T) {
	v := newFakeVehicle()
	v.chassis.pos = mgl64.Vec3{60, 1, 4}
	c := New(DefaultConfig(), v, zerolog.Nop())

	frame := FrameInput{Width: 1600, Height: 900, ScrollOffset: 0.1, KeyboardActive: true}
	dt := 1.0 / 60
	for i := 0; i < 300; i++ {
		c.Frame(dt, frame)
	}

	for _, keyboard := range []bool{false, true, false} {
		prev := c.rig.Current()
		frame.KeyboardActive = keyboard
		desired := c.rig.Desired(v.chassis.pos, frame)
		got := c.Frame(dt, frame)

		bound := desired.Position.Sub(prev.Position).Len() * SmoothingFactor(0.01, dt)
		moved := got.Position.Sub(prev.Position).Len()
		assert.LessOrEqual(t, moved, bound+1e-9)
		assert.Less(t, moved, desired.Position.Sub(prev.Position).Len(), "camera must not snap")
	}
}

func TestCameraConverges(t *testing.T) {
	v := newFakeVehicle()
	c := New(DefaultConfig(), v, zerolog.Nop())
	frame := FrameInput{Width: 1000, Height: 1000, KeyboardActive: true}

	start := c.rig.Current()
	assert.Equal(t, mgl64.Vec3{15, 15, 0}, start.Position)

	var p CameraPose
	for i := 0; i < 600; i++ {
		p = c.Frame(1.0/60, frame)
	}
	want := c.rig.Desired(v.chassis.pos, frame)
	assert.True(t, p.Position.ApproxEqualThreshold(want.Position, 1e-6))
	assert.True(t, p.LookAt.ApproxEqualThreshold(want.LookAt, 1e-6))
}

func TestCameraHoldsWhileUnmounted(t *testing.T) {
	v := newFakeVehicle()
	c := New(DefaultConfig(), v, zerolog.Nop())
	before := c.Frame(1.0/60, FrameInput{KeyboardActive: true})

	v.chassis.valid = false
	after := c.Frame(1.0/60, FrameInput{KeyboardActive: true})
	assert.Equal(t, before, after)
}

type scriptedOrbit struct {
	pose   CameraPose
	resets int
	calls  int
	target mgl64.Vec3
}

func (o *scriptedOrbit) Update(_ float64, target mgl64.Vec3) CameraPose {
	o.calls++
	o.target = target
	return o.pose
}

func (o *scriptedOrbit) Reset(CameraPose) { o.resets++ }

func TestOrbitModeHandsOverCamera(t *testing.T) {
	v := newFakeVehicle()
	v.chassis.pos = mgl64.Vec3{3, 1, 2}
	orbit := &scriptedOrbit{pose: CameraPose{Position: mgl64.Vec3{0, 50, 0}, LookAt: mgl64.Vec3{3, 1, 2}}}
	c := New(DefaultConfig(), v, zerolog.Nop(), WithOrbitCamera(orbit))
	frame := FrameInput{Width: 1000, Height: 1000, KeyboardActive: true}

	assert.Equal(t, CameraDrive, c.CameraMode())
	c.Frame(1.0/60, frame)
	assert.Equal(t, 0, orbit.calls)

	require.Equal(t, CameraOrbit, c.ToggleCameraMode())
	assert.Equal(t, 1, orbit.resets)
	got := c.Frame(1.0/60, frame)
	assert.Equal(t, orbit.pose, got)
	assert.Equal(t, v.chassis.pos, orbit.target)

	// Drive mode resumes from the orbit pose and smooths away from it.
	require.Equal(t, CameraDrive, c.ToggleCameraMode())
	got = c.Frame(1.0/60, frame)
	desired := c.rig.Desired(v.chassis.pos, frame)
	bound := desired.Position.Sub(orbit.pose.Position).Len() * SmoothingFactor(0.01, 1.0/60)
	assert.LessOrEqual(t, got.Position.Sub(orbit.pose.Position).Len(), bound+1e-9)
	assert.Equal(t, 1, orbit.calls)
}

func TestOrbitCircles(t *testing.T) {
	o := NewOrbit(OrbitConfig{Distance: 10, Elevation: math.Pi / 6, Speed: 1})
	target := mgl64.Vec3{5, 0, 5}

	for i := 0; i < 10; i++ {
		p := o.Update(0.1, target)
		assert.InDelta(t, 10, p.Position.Sub(target).Len(), 1e-9)
		assert.InDelta(t, 5, p.Position.Y(), 1e-9)
		assert.Equal(t, target, p.LookAt)
	}

	o.Rotate(0, 10)
	p := o.Update(0, target)
	assert.Less(t, p.Position.Y()-target.Y(), 10.0)

	o.Reset(CameraPose{Position: mgl64.Vec3{10, 0, 0}, LookAt: mgl64.Vec3{}})
	p = o.Update(0, mgl64.Vec3{})
	assert.Greater(t, p.Position.X(), 0.0)
	assert.InDelta(t, 0, p.Position.Z(), 1e-9)
}

func TestRotateOrbitOnlyInOrbitMode(t *testing.T) {
	v := newFakeVehicle()
	orbit := NewOrbit(OrbitConfig{Distance: 10, Elevation: 0.5})
	c := New(DefaultConfig(), v, zerolog.Nop(), WithOrbitCamera(orbit))

	assert.False(t, c.RotateOrbit(1, 0), "drive mode ignores drags")

	c.ToggleCameraMode()
	before := c.Frame(0, FrameInput{})
	require.True(t, c.RotateOrbit(math.Pi/2, 0))
	after := c.Frame(0, FrameInput{})

	assert.InDelta(t, before.Position.Sub(before.LookAt).Len(), after.Position.Sub(after.LookAt).Len(), 1e-9)
	assert.InDelta(t, before.Position.Y(), after.Position.Y(), 1e-9)
	assert.Greater(t, before.Position.Sub(after.Position).Len(), 1.0)
}

func TestRotateOrbitNeedsDraggableCamera(t *testing.T) {
	c := New(DefaultConfig(), newFakeVehicle(), zerolog.Nop(), WithOrbitCamera(&scriptedOrbit{}))
	c.ToggleCameraMode()
	assert.False(t, c.RotateOrbit(1, 0))
}

func TestCameraModeString(t *testing.T) {
	assert.Equal(t, "drive", CameraDrive.String())
	assert.Equal(t, "orbit", CameraOrbit.String())
	assert.Equal(t, "unknown", CameraMode(9).String())
}
