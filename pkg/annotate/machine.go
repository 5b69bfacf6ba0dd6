package annotate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
)

// ErrRecognize wraps failures of the OCR collaborator. They are not
// recovered here; callers are expected to end the session.
var ErrRecognize = errors.New("recognize region")

// Button identifies a mouse button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

// ParseButton maps the names used on the wire ("left", "right", "middle").
func ParseButton(name string) Button {
	switch name {
	case "left":
		return ButtonLeft
	case "right":
		return ButtonRight
	case "middle":
		return ButtonMiddle
	default:
		return ButtonNone
	}
}

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return "none"
	}
}

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Cropper returns the source-space region r of the rasterized page.
type Cropper interface {
	Crop(r image.Rectangle) image.Image
}

// Recognizer turns an image region into text. Calls are synchronous.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Drag is the in-progress gesture. Press and Current are nil when unknown.
type Drag struct {
	Press   *image.Point
	Current *image.Point
	Active  bool
}

// Machine drives a Session from press/move/release events given in
// display-space coordinates.
type Machine struct {
	session    *Session
	transform  Transform
	source     Cropper
	recognizer Recognizer
	logger     *slog.Logger

	state State
	drag  Drag
}

func NewMachine(session *Session, transform Transform, source Cropper, recognizer Recognizer) *Machine {
	return &Machine{
		session:    session,
		transform:  transform,
		source:     source,
		recognizer: recognizer,
		logger:     slog.Default(),
	}
}

// WithLogger replaces the logger used for per-event diagnostics.
func (m *Machine) WithLogger(l *slog.Logger) *Machine {
	if l != nil {
		m.logger = l
	}
	return m
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Session() *Session { return m.session }

func (m *Machine) Transform() Transform { return m.transform }

// Drag returns a copy of the current drag state.
func (m *Machine) Drag() Drag {
	d := Drag{Active: m.drag.Active}
	if m.drag.Press != nil {
		p := *m.drag.Press
		d.Press = &p
	}
	if m.drag.Current != nil {
		c := *m.drag.Current
		d.Current = &c
	}
	return d
}

// Press starts a gesture. A left press begins a drag; a right press removes
// every box under pt immediately.
func (m *Machine) Press(button Button, pt image.Point) {
	m.drag = Drag{Press: &pt}
	m.state = Idle

	switch button {
	case ButtonLeft:
		m.drag.Active = true
		m.state = Dragging
	case ButtonRight:
		removed := m.session.RemoveAt(pt.X, pt.Y)
		m.logger.Debug("removed boxes", "x", pt.X, "y", pt.Y, "count", removed)
	}
}

// Move updates the preview point of an active drag.
func (m *Machine) Move(pt image.Point) {
	if m.state != Dragging {
		return
	}
	m.drag.Current = &pt
}

// Release ends a drag. A left release over a non-degenerate rectangle
// commits a box and recognizes its region before returning.
func (m *Machine) Release(ctx context.Context, button Button, pt image.Point) error {
	if m.state != Dragging {
		return nil
	}
	m.drag.Current = &pt
	defer func() {
		m.drag.Active = false
		m.state = Idle
	}()

	if button != ButtonLeft {
		return nil
	}

	press := *m.drag.Press
	if press.X == pt.X || press.Y == pt.Y {
		m.logger.Debug("discarding degenerate drag", "press", press, "release", pt)
		return nil
	}

	box := NewBox(press.X, press.Y, pt.X, pt.Y)
	idx := m.session.Add(box)

	return m.recognize(ctx, idx, box)
}

func (m *Machine) recognize(ctx context.Context, idx int, box Box) error {
	region := m.transform.CropRect(box)
	bounds := image.Rectangle{Max: m.transform.Source}
	if region.Intersect(bounds).Empty() {
		m.logger.Warn("box lies outside the page, skipping recognition", "box", box.Rect(), "region", region)
		return nil
	}

	text, err := m.recognizer.Recognize(ctx, m.source.Crop(region))
	if err != nil {
		return fmt.Errorf("%w %v: %w", ErrRecognize, region, err)
	}

	m.session.SetText(idx, text)
	m.logger.Info("recognized region", "box", box.Rect(), "region", region, "chars", len(text))
	return nil
}
