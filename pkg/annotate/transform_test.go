package annotate

import (
	"errors"
	"image"
	"testing"
)

func TestNewTransform(t *testing.T) {
	tests := []struct {
		name         string
		source       image.Point
		display      image.Point
		wantW, wantH int
		wantErr      bool
	}{
		{"exact half", image.Pt(1700, 2200), image.Pt(850, 1100), 2, 2, false},
		{"odd source floors", image.Pt(1701, 2201), image.Pt(850, 1100), 2, 2, false},
		{"non integer ratio floors", image.Pt(1000, 1000), image.Pt(400, 300), 2, 3, false},
		{"identity", image.Pt(640, 480), image.Pt(640, 480), 1, 1, false},
		{"zero display width", image.Pt(640, 480), image.Pt(0, 480), 0, 0, true},
		{"negative source", image.Pt(-1, 480), image.Pt(320, 240), 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransform(tt.source, tt.display)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDimensions) {
					t.Errorf("NewTransform() error = %v, want ErrInvalidDimensions", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTransform() unexpected error: %v", err)
			}
			if tr.ScaleW != tt.wantW || tr.ScaleH != tt.wantH {
				t.Errorf("scale = (%d, %d), want (%d, %d)", tr.ScaleW, tr.ScaleH, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestTransformCropRect(t *testing.T) {
	tr, err := NewTransform(image.Pt(1000, 900), image.Pt(500, 300))
	if err != nil {
		t.Fatal(err)
	}

	b := NewBox(10, 10, 100, 50)
	got := tr.CropRect(b)
	want := image.Rect(20, 30, 200, 150)
	if got != want {
		t.Errorf("CropRect() = %v, want %v", got, want)
	}

	src := tr.ToSource(b)
	if src.Width() != got.Dx() || src.Height() != got.Dy() {
		t.Errorf("crop size %dx%d does not match scaled box %dx%d", got.Dx(), got.Dy(), src.Width(), src.Height())
	}
}
