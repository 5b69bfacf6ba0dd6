// Package annotate holds the box model, the display/source coordinate
// transform, the per-page annotation session, the mouse interaction state
// machine and the render pass that turns all of it into draw instructions.
package annotate

import "image"

// Box is an axis-aligned rectangle with Left <= Right and Upper <= Lower.
type Box struct {
	Left     int    `json:"left" yaml:"left"`
	Upper    int    `json:"upper" yaml:"upper"`
	Right    int    `json:"right" yaml:"right"`
	Lower    int    `json:"lower" yaml:"lower"`
	Text     string `json:"text" yaml:"text"`
	Rendered bool   `json:"rendered" yaml:"rendered"`
}

// NewBox builds a box from two corner points given in any order.
func NewBox(x0, y0, x1, y1 int) Box {
	b := Box{Left: x0, Upper: y0, Right: x1, Lower: y1}
	if x0 > x1 {
		b.Left, b.Right = x1, x0
	}
	if y0 > y1 {
		b.Upper, b.Lower = y1, y0
	}
	return b
}

// Scale returns a new box with the horizontal edges multiplied by sx and
// the vertical edges by sy.
func (b Box) Scale(sx, sy int) Box {
	return NewBox(b.Left*sx, b.Upper*sy, b.Right*sx, b.Lower*sy)
}

// Tup returns the edges as (left, upper, right, lower).
func (b Box) Tup() (int, int, int, int) {
	return b.Left, b.Upper, b.Right, b.Lower
}

// Contains reports whether (x, y) lies inside the box, edges included.
func (b Box) Contains(x, y int) bool {
	return x >= b.Left && x <= b.Right && y >= b.Upper && y <= b.Lower
}

func (b Box) Width() int  { return b.Right - b.Left }
func (b Box) Height() int { return b.Lower - b.Upper }

// Empty reports a zero width or zero height box.
func (b Box) Empty() bool {
	return b.Width() == 0 || b.Height() == 0
}

func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Upper, b.Right, b.Lower)
}
