// Package overlay paints an annotate.Frame onto the display image so a
// session can be saved or served as a flat PNG.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/lehigh-university-libraries/boxocr/pkg/annotate"
)

const FontSize = 15.0

var (
	// Fill is the translucent brush behind every box.
	Fill    = color.NRGBA{R: 100, G: 10, B: 10, A: 40}
	Outline = color.Black
	Ink     = color.Black
)

var regular *truetype.Font

func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("failed to parse font: %v", err))
	}
	regular = f
}

// Paint draws f over a copy of display. Text ops are anchored on their
// first baseline; further lines follow at the font's line height.
func Paint(display image.Image, f annotate.Frame) image.Image {
	dc := gg.NewContextForImage(display)
	face := truetype.NewFace(regular, &truetype.Options{
		Size:    FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	dc.SetFontFace(face)
	lineHeight := dc.FontHeight() * 1.2

	// gg draws relative to the image origin; display bounds may not start at 0,0
	origin := display.Bounds().Min

	for _, op := range f.Ops {
		switch op.Kind {
		case annotate.OpRect, annotate.OpPreview:
			r := op.Rect.Sub(origin)
			x, y := float64(r.Min.X), float64(r.Min.Y)
			w, h := float64(r.Dx()), float64(r.Dy())

			dc.DrawRectangle(x, y, w, h)
			dc.SetColor(Fill)
			dc.Fill()

			dc.SetLineWidth(1)
			dc.DrawRectangle(x+0.5, y+0.5, w, h)
			dc.SetColor(Outline)
			dc.Stroke()
		case annotate.OpText:
			at := op.At.Sub(origin)
			dc.SetColor(Ink)
			for i, line := range strings.Split(op.Text, "\n") {
				dc.DrawString(line, float64(at.X), float64(at.Y)+float64(i)*lineHeight)
			}
		}
	}

	return dc.Image()
}
