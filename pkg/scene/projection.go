package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golangdaddy/driveport/pkg/controller"
)

const (
	fovY  = 45.0 // degrees
	zNear = 0.1
	zFar  = 1000
)

// Projector maps world points to screen pixels for one camera pose
type Projector struct {
	viewProj      mgl64.Mat4
	width, height float64
}

// NewProjector builds a perspective projection looking from pose.Position at
// pose.LookAt with +Y up
func NewProjector(pose controller.CameraPose, width, height int) Projector {
	w, h := float64(width), float64(height)
	if h <= 0 {
		h = 1
	}
	view := mgl64.LookAtV(pose.Position, pose.LookAt, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(mgl64.DegToRad(fovY), w/h, zNear, zFar)
	return Projector{viewProj: proj.Mul4(view), width: w, height: h}
}

// Project returns p in pixels, y down. ok is false for points behind the
// camera or outside the depth range.
func (pr Projector) Project(p mgl64.Vec3) (x, y float64, ok bool) {
	clip := pr.viewProj.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	if ndc.Z() < -1 || ndc.Z() > 1 {
		return 0, 0, false
	}
	x = (ndc.X() + 1) / 2 * pr.width
	y = (1 - ndc.Y()) / 2 * pr.height
	return x, y, true
}

// BoxEdges lists corner index pairs for the twelve edges of a box whose
// corners are ordered by x, then y, then z sign.
var BoxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}
