package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxFrameDt caps the measured frame time so a stalled window does not snap
// the camera when it resumes
const MaxFrameDt = 0.25

// FrameClock measures the time between rendered frames
type FrameClock struct {
	last time.Time
}

// Tick returns the seconds since the previous call, 0 on the first call, and
// never more than MaxFrameDt
func (c *FrameClock) Tick(now time.Time) float64 {
	var dt float64
	if !c.last.IsZero() {
		dt = mgl64.Clamp(now.Sub(c.last).Seconds(), 0, MaxFrameDt)
	}
	c.last = now
	return dt
}
