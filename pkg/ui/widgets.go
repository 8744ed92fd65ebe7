package ui

import (
	"image/color"

	"github.com/hajimehoshi/bitmapfont/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// bitmapfont glyphs are 16px tall
const glyphHeight = 16.0

var (
	face = text.NewGoXFace(bitmapfont.Face)

	borderColor    = color.RGBA{80, 80, 100, 255}
	buttonColor    = color.RGBA{40, 40, 60, 255}
	highlightColor = color.RGBA{60, 100, 140, 255}
	labelColor     = color.RGBA{255, 255, 255, 255}
	highlightLabel = color.RGBA{200, 240, 255, 255}
	hintColor      = color.RGBA{150, 150, 150, 255}
	titleColor     = color.RGBA{255, 200, 50, 255}
)

// DrawButton draws a bordered button with a centred label
func DrawButton(screen *ebiten.Image, label string, x, y, width, height float64, selected bool) {
	bg, fg := buttonColor, labelColor
	if selected {
		bg, fg = highlightColor, highlightLabel
	}
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(width), float32(height), bg, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(width), float32(height), 2, borderColor, false)

	textWidth := text.Advance(label, face)
	op := &text.DrawOptions{}
	op.GeoM.Translate(x+width/2-textWidth/2, y+height/2-glyphHeight/2)
	op.ColorScale.ScaleWithColor(fg)
	text.Draw(screen, label, face, op)
}

// DrawText draws str centred on (centerX, centerY) at the given pixel size
func DrawText(screen *ebiten.Image, str string, centerX, centerY, size float64, clr color.Color) {
	scale := size / glyphHeight
	w := text.Advance(str, face) * scale

	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(centerX-w/2, centerY-size/2)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, str, face, op)
}

// DrawTextAt draws str with its top-left corner at (x, y)
func DrawTextAt(screen *ebiten.Image, str string, x, y, size float64, clr color.Color) {
	scale := size / glyphHeight
	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, str, face, op)
}
