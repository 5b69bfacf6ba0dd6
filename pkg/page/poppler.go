package page

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Poppler renders PDF pages with pdftoppm (poppler-utils).
type Poppler struct {
	DPI int
	// MaxPages limits how many pages are rendered, starting at page 1.
	// Zero renders every page.
	MaxPages int
	// Binary overrides the pdftoppm executable.
	Binary string
}

func NewPoppler(dpi, maxPages int) *Poppler {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Poppler{DPI: dpi, MaxPages: maxPages, Binary: "pdftoppm"}
}

// Rasterize renders the pages of the PDF at path, in page order.
func (p *Poppler) Rasterize(ctx context.Context, path string) ([]image.Image, error) {
	pageCount, err := countPages(path)
	if err != nil {
		return nil, err
	}
	if pageCount == 0 {
		return nil, ErrNoPages
	}

	last := pageCount
	if p.MaxPages > 0 && p.MaxPages < last {
		last = p.MaxPages
	}

	tmpDir, err := os.MkdirTemp("", "boxocr-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// -png: output PNG format
	// -f/-l: page range
	// -r: resolution in DPI
	outputPrefix := filepath.Join(tmpDir, "page")
	binary := p.Binary
	if binary == "" {
		binary = "pdftoppm"
	}
	cmd := exec.CommandContext(ctx, binary,
		"-png",
		"-f", "1",
		"-l", strconv.Itoa(last),
		"-r", strconv.Itoa(p.DPI),
		path,
		outputPrefix,
	)

	slog.Debug("Rendering PDF", "file", path, "pages", last, "dpi", p.DPI)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	// pdftoppm names pages <prefix>-<n>.png, zero padded to the width of
	// the page count, so a lexical sort is page order.
	files, err := filepath.Glob(outputPrefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("pdftoppm did not create any page images")
	}

	pages := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := imaging.Open(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %s: %w", filepath.Base(f), err)
		}
		pages = append(pages, img)
	}

	return pages, nil
}

func countPages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}
