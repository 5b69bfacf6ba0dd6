package annotate

import (
	"errors"
	"fmt"
	"image"
)

var ErrInvalidDimensions = errors.New("page dimensions must be positive")

// Transform maps display-space boxes onto the full resolution page.
//
// The scale factors are integer quotients of the source and display sizes,
// so a display that is not an exact divisor of the source drifts by up to
// one source pixel per display pixel. This matches the crops the tool has
// always produced and is kept on purpose.
type Transform struct {
	Source  image.Point
	Display image.Point
	ScaleW  int
	ScaleH  int
}

func NewTransform(source, display image.Point) (Transform, error) {
	if source.X <= 0 || source.Y <= 0 || display.X <= 0 || display.Y <= 0 {
		return Transform{}, fmt.Errorf("%w: source %dx%d, display %dx%d",
			ErrInvalidDimensions, source.X, source.Y, display.X, display.Y)
	}

	return Transform{
		Source:  source,
		Display: display,
		ScaleW:  source.X / display.X,
		ScaleH:  source.Y / display.Y,
	}, nil
}

// ToSource converts a display-space box into source space.
func (t Transform) ToSource(b Box) Box {
	return b.Scale(t.ScaleW, t.ScaleH)
}

// CropRect is the source-space region handed to the recognizer for b.
func (t Transform) CropRect(b Box) image.Rectangle {
	s := t.ToSource(b)
	x, y := s.Left, s.Upper
	width := s.Right - s.Left
	height := s.Lower - s.Upper
	return image.Rect(x, y, x+width, y+height)
}
