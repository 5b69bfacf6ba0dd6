package annotate

import "image"

// TextMargin is how far left of a box its recognized text starts, so long
// lines do not run over the box itself.
const TextMargin = 100

type OpKind string

const (
	OpRect    OpKind = "rect"
	OpText    OpKind = "text"
	OpPreview OpKind = "preview"
)

// DrawOp is one instruction for the display surface. Rect is set for rect
// and preview ops, At and Text for text ops. Coordinates are display space.
type DrawOp struct {
	Kind OpKind          `json:"kind"`
	Rect image.Rectangle `json:"rect"`
	At   image.Point     `json:"at"`
	Text string          `json:"text,omitempty"`
}

type Frame struct {
	Ops []DrawOp `json:"ops"`
}

// Render derives the overlay for the current state. Each committed box is
// marked Rendered as it is emitted; nothing else is remembered between calls.
func Render(s *Session, d Drag) Frame {
	f := Frame{Ops: make([]DrawOp, 0, 2*len(s.boxes)+1)}

	for i := range s.boxes {
		b := &s.boxes[i]
		f.Ops = append(f.Ops, DrawOp{Kind: OpRect, Rect: b.Rect()})
		if b.Text != "" {
			f.Ops = append(f.Ops, DrawOp{
				Kind: OpText,
				At:   image.Pt(b.Left-TextMargin, b.Lower),
				Text: b.Text,
			})
		}
		b.Rendered = true
	}

	if d.Active && d.Press != nil && d.Current != nil {
		preview := NewBox(d.Press.X, d.Press.Y, d.Current.X, d.Current.Y)
		f.Ops = append(f.Ops, DrawOp{Kind: OpPreview, Rect: preview.Rect()})
	}

	return f
}

// Frame renders the machine's session and drag together.
func (m *Machine) Frame() Frame {
	return Render(m.session, m.drag)
}
