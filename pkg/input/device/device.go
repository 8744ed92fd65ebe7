// Package device polls ebiten for keyboard, touch, gamepad and wheel input.
package device

import (
	"github.com/golangdaddy/driveport/pkg/input"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Source polls ebiten for raw input once per Update
type Source struct {
	input.Tracker

	touchID    ebiten.TouchID
	touching   bool
	touchStart [2]float64
	gamepads   []ebiten.GamepadID

	dragging bool
	cursor   [2]int
}

// NewSource creates an ebiten input source
func NewSource() *Source {
	return &Source{}
}

func pressed(keys ...ebiten.Key) bool {
	for _, k := range keys {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	return false
}

// Poll reads the current device state and folds it into a snapshot
func (s *Source) Poll() input.Snapshot {
	return s.Observe(s.Raw())
}

// Raw reads the current device state without folding it
func (s *Source) Raw() input.Raw {
	var raw input.Raw
	raw.Keys = input.Keys{
		Forward:  pressed(ebiten.KeyArrowUp, ebiten.KeyW),
		Backward: pressed(ebiten.KeyArrowDown, ebiten.KeyS),
		Left:     pressed(ebiten.KeyArrowLeft, ebiten.KeyA),
		Right:    pressed(ebiten.KeyArrowRight, ebiten.KeyD),
		Brake:    pressed(ebiten.KeySpace),
	}
	_, raw.WheelDY = ebiten.Wheel()

	raw.Touch = s.pollTouch()
	raw.DragDX, raw.DragDY = s.pollDrag()

	s.gamepads = ebiten.AppendGamepadIDs(s.gamepads[:0])
	for _, id := range s.gamepads {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		raw.StickPresent = true
		raw.StickX = ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		raw.StickY = ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom) {
			raw.Keys.Brake = true
		}
		break
	}
	return raw
}

// pollTouch follows the first finger down until it lifts
func (s *Source) pollTouch() *input.Touch {
	if s.touching && inpututil.IsTouchJustReleased(s.touchID) {
		s.touching = false
	}
	if !s.touching {
		ids := inpututil.AppendJustPressedTouchIDs(nil)
		if len(ids) == 0 {
			return nil
		}
		s.touchID = ids[0]
		s.touching = true
		x, y := ebiten.TouchPosition(s.touchID)
		s.touchStart = [2]float64{float64(x), float64(y)}
	}
	x, y := ebiten.TouchPosition(s.touchID)
	return &input.Touch{
		StartX: s.touchStart[0],
		StartY: s.touchStart[1],
		X:      float64(x),
		Y:      float64(y),
	}
}

// pollDrag returns how far the mouse moved since the last poll while the
// left button stayed down
func (s *Source) pollDrag() (float64, float64) {
	x, y := ebiten.CursorPosition()
	held := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	var dx, dy float64
	if held && s.dragging {
		dx, dy = float64(x-s.cursor[0]), float64(y-s.cursor[1])
	}
	s.dragging = held
	s.cursor = [2]int{x, y}
	return dx, dy
}

// CameraToggled reports a press of the camera-mode key
func CameraToggled() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyC)
}
