// Package input turns raw keyboard, touch, gamepad and mouse-wheel state into
// the snapshots the vehicle controller reads each tick.
package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golangdaddy/driveport/pkg/controller"
)

const (
	// ScrollStep is how far one wheel notch moves the page offset
	ScrollStep = 0.02
	// JoystickRadius is the touch drag, in pixels, that gives full throttle
	JoystickRadius = 80.0
	// StickDeadzone ignores gamepad stick noise around the centre
	StickDeadzone = 0.15
	// OrbitDragSpeed is the orbit rotation, in radians, per pixel of mouse drag
	OrbitDragSpeed = 0.01
)

// Keys is the set of drive keys held this tick
type Keys struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Brake    bool
}

func (k Keys) any() bool {
	return k.Forward || k.Backward || k.Left || k.Right || k.Brake
}

// Touch is an active drag: where it started and where it is now, in pixels
type Touch struct {
	StartX, StartY float64
	X, Y           float64
}

// Raw is the device state polled for one tick
type Raw struct {
	Keys    Keys
	WheelDY float64 // positive scrolls up

	Touch *Touch

	StickPresent bool
	StickX       float64 // -1..1, right positive
	StickY       float64 // -1..1, down positive

	DragDX, DragDY float64 // mouse movement in pixels while the button is held
}

// Scroll is a normalised page offset in [0, 1]
type Scroll struct {
	Offset float64
}

// Apply moves the offset by a wheel delta. Scrolling down advances the page.
func (s *Scroll) Apply(dy float64) {
	s.Offset = mgl64.Clamp(s.Offset-dy*ScrollStep, 0, 1)
}

// OrbitDrag is a user rotation of the orbit camera, in radians
type OrbitDrag struct {
	Yaw       float64
	Elevation float64
}

// Zero reports whether there is nothing to rotate
func (d OrbitDrag) Zero() bool {
	return d.Yaw == 0 && d.Elevation == 0
}

// Snapshot is everything the game reads from input for one tick
type Snapshot struct {
	controller.Input
	Scroll Scroll
	Orbit  OrbitDrag
}

// Tracker keeps the state that spans ticks: whether the keyboard is driving,
// whether the joystick was the last device to drive, and where the page is
// scrolled to.
type Tracker struct {
	keyboardActive bool
	joystickDrive  bool
	lastAngle      float64
	scroll         Scroll
}

// Observe folds one tick of raw input into a snapshot. A drive key makes the
// keyboard active; scrolling hands the camera back to the page. Once a
// joystick has driven, releasing it keeps reporting an active stick at zero
// distance until a drive key is pressed, so the controller can auto-brake.
func (t *Tracker) Observe(raw Raw) Snapshot {
	if raw.Keys.any() {
		t.keyboardActive = true
		t.joystickDrive = false
	}
	if raw.WheelDY != 0 {
		t.keyboardActive = false
		t.scroll.Apply(raw.WheelDY)
	}

	in := controller.Input{
		Forward:        raw.Keys.Forward,
		Backward:       raw.Keys.Backward,
		Left:           raw.Keys.Left,
		Right:          raw.Keys.Right,
		Brake:          raw.Keys.Brake,
		KeyboardActive: t.keyboardActive,
	}

	switch {
	case raw.Touch != nil:
		in.Joystick = TouchJoystick(*raw.Touch)
	case raw.StickPresent:
		in.Joystick = StickJoystick(raw.StickX, raw.StickY)
	}
	switch {
	case in.Joystick.Active:
		// The joystick drives the vehicle, so the camera follows it.
		in.KeyboardActive = true
		t.keyboardActive = true
		t.joystickDrive = true
		t.lastAngle = in.Joystick.AngleDegrees
	case t.joystickDrive:
		in.Joystick = controller.Joystick{Active: true, AngleDegrees: t.lastAngle}
	}

	// Dragging up lifts the camera.
	drag := OrbitDrag{
		Yaw:       raw.DragDX * OrbitDragSpeed,
		Elevation: -raw.DragDY * OrbitDragSpeed,
	}
	return Snapshot{Input: in, Scroll: t.scroll, Orbit: drag}
}

// JoystickDriving reports whether the joystick is the current drive device
func (t *Tracker) JoystickDriving() bool {
	return t.joystickDrive
}

// KeyboardActive reports whether the camera should follow the vehicle
func (t *Tracker) KeyboardActive() bool {
	return t.keyboardActive
}

// Scroll returns the current page offset
func (t *Tracker) Scroll() Scroll {
	return t.scroll
}

// TouchJoystick maps a drag from its start point to a joystick reading
func TouchJoystick(tc Touch) controller.Joystick {
	dx := tc.X - tc.StartX
	dy := tc.Y - tc.StartY
	return controller.Joystick{
		Active:       true,
		Distance:     math.Min(math.Hypot(dx, dy)/JoystickRadius, 1),
		AngleDegrees: screenAngle(dx, dy),
	}
}

// StickJoystick maps a gamepad stick to a joystick reading. A centred stick
// is inactive; Tracker decides whether that counts as a release.
func StickJoystick(x, y float64) controller.Joystick {
	d := math.Hypot(x, y)
	if d < StickDeadzone {
		return controller.Joystick{}
	}
	return controller.Joystick{
		Active:       true,
		Distance:     math.Min((d-StickDeadzone)/(1-StickDeadzone), 1),
		AngleDegrees: screenAngle(x, y),
	}
}

// screenAngle turns a y-down pixel delta into degrees, 0 right and 90 up
func screenAngle(dx, dy float64) float64 {
	if dx == 0 && dy == 0 {
		return 0
	}
	return mgl64.RadToDeg(math.Atan2(-dy, dx))
}
