// Package page rasterizes PDFs and keeps the full resolution page image
// alongside the downscaled copy shown to the user.
package page

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/lehigh-university-libraries/boxocr/pkg/annotate"
)

const (
	DefaultDPI   = 200
	DefaultScale = 0.5
)

var ErrNoPages = errors.New("document has no pages")

// Rasterizer renders the pages of a document to images.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string) ([]image.Image, error)
}

// Page is a loaded page: the rasterized source image and its display copy.
type Page struct {
	Title   string
	Source  image.Image
	Display image.Image
	Scale   float64
}

// New downsizes src by scale for display.
func New(title string, src image.Image, scale float64) (*Page, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source image", annotate.ErrInvalidDimensions)
	}
	b := src.Bounds()
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	if b.Dx() <= 0 || b.Dy() <= 0 || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: source %dx%d at scale %.2f", annotate.ErrInvalidDimensions, b.Dx(), b.Dy(), scale)
	}

	return &Page{
		Title:   title,
		Source:  src,
		Display: imaging.Resize(src, w, h, imaging.Lanczos),
		Scale:   scale,
	}, nil
}

// Load rasterizes path and keeps its first page.
func Load(ctx context.Context, r Rasterizer, path string, scale float64) (*Page, error) {
	pages, err := r.Rasterize(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", path, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}

	p, err := New(path, pages[0], scale)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded page", "file", path, "source", p.SourceSize(), "display", p.DisplaySize())
	return p, nil
}

func (p *Page) SourceSize() image.Point {
	return p.Source.Bounds().Size()
}

func (p *Page) DisplaySize() image.Point {
	return p.Display.Bounds().Size()
}

// Transform maps display coordinates of this page to source coordinates.
func (p *Page) Transform() (annotate.Transform, error) {
	return annotate.NewTransform(p.SourceSize(), p.DisplaySize())
}

// Crop returns region r of the source image, clipped to the page.
func (p *Page) Crop(r image.Rectangle) image.Image {
	return imaging.Crop(p.Source, r)
}
