package annotate

// Session holds the boxes drawn on one loaded page, in creation order.
// It is owned by a single input-handling goroutine and does no locking.
type Session struct {
	Title string
	boxes []Box
}

func NewSession(title string) *Session {
	return &Session{Title: title}
}

// Add appends b and returns its index.
func (s *Session) Add(b Box) int {
	s.boxes = append(s.boxes, b)
	return len(s.boxes) - 1
}

// RemoveAt drops every box containing (x, y), not only the topmost one,
// and returns how many were removed.
func (s *Session) RemoveAt(x, y int) int {
	kept := s.boxes[:0]
	for _, b := range s.boxes {
		if !b.Contains(x, y) {
			kept = append(kept, b)
		}
	}
	removed := len(s.boxes) - len(kept)
	clear(s.boxes[len(kept):])
	s.boxes = kept
	return removed
}

// SetText stores recognized text on the box at index i.
func (s *Session) SetText(i int, text string) {
	if i < 0 || i >= len(s.boxes) {
		return
	}
	s.boxes[i].Text = text
}

// Boxes returns a copy of the boxes in insertion order.
func (s *Session) Boxes() []Box {
	out := make([]Box, len(s.boxes))
	copy(out, s.boxes)
	return out
}

func (s *Session) Len() int {
	return len(s.boxes)
}
