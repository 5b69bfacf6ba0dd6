package annotate

import (
	"testing"
)

func TestSessionRemoveAtKeepsOrder(t *testing.T) {
	s := NewSession("page")
	boxes := []Box{
		NewBox(0, 0, 10, 10), // contains (5,5)
		NewBox(100, 100, 120, 120),
		NewBox(2, 2, 40, 40), // contains (5,5)
		NewBox(200, 0, 220, 20),
		NewBox(5, 5, 6, 6), // corner
		NewBox(300, 300, 301, 301),
	}
	for _, b := range boxes {
		s.Add(b)
	}

	removed := s.RemoveAt(5, 5)
	if removed != 3 {
		t.Errorf("RemoveAt() removed %d, want 3", removed)
	}

	got := s.Boxes()
	want := []Box{boxes[1], boxes[3], boxes[5]}
	if len(got) != len(want) {
		t.Fatalf("Len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("box %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSessionRemoveOverlapping(t *testing.T) {
	s := NewSession("page")
	s.Add(NewBox(0, 0, 50, 50))
	s.Add(NewBox(25, 25, 75, 75))

	if n := s.RemoveAt(30, 30); n != 2 {
		t.Errorf("RemoveAt(30, 30) = %d, want 2", n)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestSessionRemoveMiss(t *testing.T) {
	s := NewSession("page")
	s.Add(NewBox(0, 0, 50, 50))

	if n := s.RemoveAt(200, 200); n != 0 {
		t.Errorf("RemoveAt(200, 200) = %d, want 0", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestSessionBoxesIsCopy(t *testing.T) {
	s := NewSession("page")
	s.Add(NewBox(0, 0, 5, 5))

	out := s.Boxes()
	out[0].Text = "changed"

	if s.Boxes()[0].Text != "" {
		t.Error("mutating Boxes() result changed the session")
	}
}

func TestSessionSetText(t *testing.T) {
	s := NewSession("page")
	i := s.Add(NewBox(0, 0, 5, 5))
	s.SetText(i, "hello\nworld")
	s.SetText(7, "ignored")

	if got := s.Boxes()[0].Text; got != "hello\nworld" {
		t.Errorf("Text = %q, want %q", got, "hello\nworld")
	}
}
