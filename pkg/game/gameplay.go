package game

import (
	"fmt"
	"image/color"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golangdaddy/driveport/pkg/background"
	"github.com/golangdaddy/driveport/pkg/controller"
	"github.com/golangdaddy/driveport/pkg/input/device"
	"github.com/golangdaddy/driveport/pkg/posestream"
	"github.com/golangdaddy/driveport/pkg/road"
	"github.com/golangdaddy/driveport/pkg/scene"
	"github.com/golangdaddy/driveport/pkg/ui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"
)

const backdropSeed = 30

var (
	trackColor   = color.RGBA{70, 70, 80, 255}
	gravelColor  = color.RGBA{150, 130, 100, 255}
	iceColor     = color.RGBA{190, 230, 255, 255}
	wallColor    = color.RGBA{180, 180, 190, 255}
	chassisColor = color.RGBA{230, 60, 40, 255}
	wheelColor   = color.RGBA{25, 25, 25, 255}
	brakeColor   = color.RGBA{255, 30, 30, 255}
	hudBg        = color.RGBA{20, 20, 30, 200}
	hudBorder    = color.RGBA{100, 100, 120, 255}
	hudText      = color.RGBA{255, 255, 255, 255}
)

// DriveScreen runs the drive scene and draws it with a simple projected
// wireframe and a HUD
type DriveScreen struct {
	scene  *scene.Scene
	input  *device.Source
	hub    *posestream.Hub
	logger zerolog.Logger
	onExit func()

	backdrop      *ebiten.Image
	width, height int
	showcase      bool

	frameIn controller.FrameInput
	clock   scene.FrameClock
	pose    controller.CameraPose
}

// NewDriveScreen wraps a ready scene. hub may be nil.
func NewDriveScreen(sc *scene.Scene, hub *posestream.Hub, width, height int, logger zerolog.Logger, onExit func()) *DriveScreen {
	return &DriveScreen{
		scene:  sc,
		input:  device.NewSource(),
		hub:    hub,
		logger: logger.With().Str("component", "drive").Logger(),
		onExit: onExit,
		width:  width,
		height: height,
		pose:   sc.Controller().Frame(0, controller.FrameInput{}),
	}
}

// Update advances the simulation one ebiten tick
func (ds *DriveScreen) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		ds.scene.Close()
		if ds.onExit != nil {
			ds.onExit()
		}
		return nil
	}
	if device.CameraToggled() {
		ds.scene.ToggleCamera()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		ds.showcase = !ds.showcase
	}

	dt := 1 / float64(ebiten.TPS())
	snap := ds.input.Poll()
	ds.scene.Update(dt, snap.Input)
	if !snap.Orbit.Zero() {
		ds.scene.RotateCamera(snap.Orbit.Yaw, snap.Orbit.Elevation)
	}

	ds.frameIn = controller.FrameInput{
		ScrollOffset:   snap.Scroll.Offset,
		KeyboardActive: snap.KeyboardActive,
		Showcase:       ds.showcase,
	}

	if ds.hub != nil {
		if err := ds.hub.Publish(ds.scene.PoseFrame()); err != nil {
			ds.logger.Debug().Err(err).Msg("publish pose frame")
		}
	}
	return nil
}

// Draw moves the camera by the measured frame time, then renders the track,
// the car and the HUD
func (ds *DriveScreen) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if ds.backdrop == nil || w != ds.width || h != ds.height {
		ds.width, ds.height = w, h
		ds.backdrop = background.NewGenerator(w, h).GenerateVerge(backdropSeed)
	}

	in := ds.frameIn
	in.Width, in.Height = float64(w), float64(h)
	ds.pose = ds.scene.Camera(ds.clock.Tick(time.Now()), in)

	screen.DrawImage(ds.backdrop, nil)

	pr := scene.NewProjector(ds.pose, w, h)
	for _, p := range ds.scene.Track() {
		drawBox(screen, pr, boxCorners(p.Box.Min, p.Box.Max), pieceColor(p))
	}

	if e := ds.scene.Entity(); e != nil && e.Alive() {
		corners := e.Body().Corners()
		drawBox(screen, pr, corners, chassisColor)

		if ds.scene.Controller().LastCommand().Braking() {
			// Rear top corners carry the brake lights.
			for _, i := range []int{2, 3} {
				if x, y, ok := pr.Project(corners[i]); ok {
					vector.DrawFilledCircle(screen, float32(x), float32(y), 5, brakeColor, true)
				}
			}
		}

		for i := 0; i < e.Wheels(); i++ {
			t, _ := e.WheelPose(i)
			drawWheel(screen, pr, t.Position, e.Preset.Tyres.Radius)
		}
	}

	ds.drawHUD(screen)
}

func pieceColor(p road.Piece) color.Color {
	switch {
	case p.Wall():
		return wallColor
	case p.Surface == 'G':
		return gravelColor
	case p.Surface == 'I':
		return iceColor
	}
	return trackColor
}

func boxCorners(min, max mgl64.Vec3) [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	i := 0
	for _, x := range [2]float64{min.X(), max.X()} {
		for _, y := range [2]float64{min.Y(), max.Y()} {
			for _, z := range [2]float64{min.Z(), max.Z()} {
				out[i] = mgl64.Vec3{x, y, z}
				i++
			}
		}
	}
	return out
}

func drawBox(screen *ebiten.Image, pr scene.Projector, corners [8]mgl64.Vec3, clr color.Color) {
	for _, e := range scene.BoxEdges {
		x0, y0, ok0 := pr.Project(corners[e[0]])
		x1, y1, ok1 := pr.Project(corners[e[1]])
		if !ok0 || !ok1 {
			continue
		}
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 2, clr, true)
	}
}

func drawWheel(screen *ebiten.Image, pr scene.Projector, centre mgl64.Vec3, radius float64) {
	x, y, ok := pr.Project(centre)
	if !ok {
		return
	}
	_, top, ok := pr.Project(centre.Add(mgl64.Vec3{0, radius, 0}))
	if !ok {
		return
	}
	r := float32(y - top)
	if r < 2 {
		r = 2
	}
	vector.DrawFilledCircle(screen, float32(x), float32(y), r, wheelColor, true)
}

// drawHUD draws the speed panel and a steering indicator in the top-left
func (ds *DriveScreen) drawHUD(screen *ebiten.Image) {
	const x, y, width, height = 20.0, 20.0, 220.0, 130.0
	vector.DrawFilledRect(screen, x, y, width, height, hudBg, false)
	vector.StrokeRect(screen, x, y, width, height, 2, hudBorder, false)

	ui.DrawTextAt(screen, fmt.Sprintf("%.0f km/h", ds.scene.SpeedKmh()), x+12, y+10, 32, hudText)
	ui.DrawTextAt(screen, fmt.Sprintf("camera  %s", ds.scene.Controller().CameraMode()), x+12, y+52, 16, hudText)
	ui.DrawTextAt(screen, fmt.Sprintf("respawns %d", ds.scene.Respawns()), x+12, y+72, 16, hudText)

	// Steering bar, centred at zero lock
	barX, barY, barW := float32(x+12), float32(y+102), float32(width-24)
	vector.DrawFilledRect(screen, barX, barY, barW, 8, color.RGBA{60, 60, 80, 255}, false)
	maxSteer := ds.scene.MaxSteer()
	if maxSteer > 0 {
		frac := float32(ds.scene.Controller().Steering() / maxSteer)
		mid := barX + barW/2
		vector.DrawFilledRect(screen, mid+frac*barW/2-3, barY-3, 6, 14, hudText, false)
	}

	if ds.scene.Entity() == nil {
		ui.DrawText(screen, "RESPAWNING", float64(ds.width)/2, float64(ds.height)/2, 48, brakeColor)
	}
}
