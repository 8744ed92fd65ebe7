// Package road builds track colliders from a lane layout. A layout is one
// line per segment and one letter per lane: the letter picks the surface and
// X leaves a gap the car can fall through.
package road

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golangdaddy/driveport/pkg/physics"
)

// Gap marks a lane position with no road
const Gap = 'X'

// Surface friction by lane letter
var Surfaces = map[rune]float64{
	'A': 0.8, // asphalt
	'G': 0.5, // gravel
	'I': 0.1, // ice
}

const wallFriction = 0.3

// Definition describes a straight track running along +X
type Definition struct {
	Segments      []string
	SegmentLength float64
	LaneWidth     float64
	StartX        float64 // x where the first segment begins
	SurfaceY      float64 // height of the driving surface
	SlabThickness float64
	WallHeight    float64 // above the surface; 0 leaves the sides open
}

// Demo is the straight three-lane track of the demo scene: a 200 by 30 slab
// whose surface sits at y -1.5, walled on both sides.
var Demo = Definition{
	Segments:      []string{"AAA", "AAA", "AAA", "AAA"},
	SegmentLength: 50,
	LaneWidth:     10,
	StartX:        -100,
	SurfaceY:      -1.5,
	SlabThickness: 1,
	WallHeight:    3.5,
}

// Piece is one static collider of a built track
type Piece struct {
	Box     physics.StaticBox
	Surface rune // lane letter, or 0 for a wall
}

// Wall reports whether the piece is a side wall
func (p Piece) Wall() bool {
	return p.Surface == 0
}

// Validate checks the dimensions and that every lane letter is known
func (d Definition) Validate() error {
	if len(d.Segments) == 0 {
		return fmt.Errorf("track has no segments")
	}
	if d.SegmentLength <= 0 || d.LaneWidth <= 0 || d.SlabThickness <= 0 {
		return fmt.Errorf("track dimensions must be positive")
	}
	for i, seg := range d.Segments {
		if seg == "" {
			return fmt.Errorf("segment %d is empty", i)
		}
		for _, r := range seg {
			if r == Gap {
				continue
			}
			if _, ok := Surfaces[r]; !ok {
				return fmt.Errorf("segment %d: unknown surface %q", i, r)
			}
		}
	}
	return nil
}

// Colliders builds the slabs and walls. Identical neighbouring segments and
// runs of the same surface within a segment share one box, so the driving
// surface has as few seams as possible.
func (d Definition) Colliders() ([]Piece, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var pieces []Piece
	for start := 0; start < len(d.Segments); {
		end := start + 1
		for end < len(d.Segments) && d.Segments[end] == d.Segments[start] {
			end++
		}
		x0 := d.StartX + float64(start)*d.SegmentLength
		x1 := d.StartX + float64(end)*d.SegmentLength
		pieces = append(pieces, d.row(d.Segments[start], x0, x1)...)
		start = end
	}
	return pieces, nil
}

// row builds the slabs and walls for segments spanning x0..x1
func (d Definition) row(seg string, x0, x1 float64) []Piece {
	lanes := []rune(seg)
	half := float64(len(lanes)) * d.LaneWidth / 2
	bottom := d.SurfaceY - d.SlabThickness

	var out []Piece
	for j := 0; j < len(lanes); {
		k := j + 1
		for k < len(lanes) && lanes[k] == lanes[j] {
			k++
		}
		if lanes[j] != Gap {
			out = append(out, Piece{
				Box: physics.StaticBox{
					Min:      mgl64.Vec3{x0, bottom, -half + float64(j)*d.LaneWidth},
					Max:      mgl64.Vec3{x1, d.SurfaceY, -half + float64(k)*d.LaneWidth},
					Friction: Surfaces[lanes[j]],
				},
				Surface: lanes[j],
			})
		}
		j = k
	}

	if d.WallHeight > 0 {
		top := d.SurfaceY + d.WallHeight
		for _, z := range [2]float64{-half - 1, half} {
			out = append(out, Piece{Box: physics.StaticBox{
				Min:      mgl64.Vec3{x0, bottom, z},
				Max:      mgl64.Vec3{x1, top, z + 1},
				Friction: wallFriction,
			}})
		}
	}
	return out
}

// Parse reads a layout, one segment per line. Blank lines are skipped and
// the remaining fields keep the Demo dimensions.
func Parse(r io.Reader) (Definition, error) {
	d := Demo
	d.Segments = nil

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		d.Segments = append(d.Segments, strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return Definition{}, err
	}
	if err := d.Validate(); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// LoadFile parses a layout file
func LoadFile(filename string) (Definition, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to open track file: %w", err)
	}
	defer file.Close()

	d, err := Parse(file)
	if err != nil {
		return Definition{}, fmt.Errorf("track %s: %w", filename, err)
	}
	return d, nil
}
