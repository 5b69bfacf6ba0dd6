package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/boxocr/internal/config"
	"github.com/lehigh-university-libraries/boxocr/pkg/annotate"
	"github.com/lehigh-university-libraries/boxocr/pkg/azure"
	"github.com/lehigh-university-libraries/boxocr/pkg/claude"
	"github.com/lehigh-university-libraries/boxocr/pkg/gemini"
	"github.com/lehigh-university-libraries/boxocr/pkg/ollama"
	"github.com/lehigh-university-libraries/boxocr/pkg/openai"
	"github.com/lehigh-university-libraries/boxocr/pkg/page"
	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
	"github.com/lehigh-university-libraries/boxocr/pkg/tesseract"
	"github.com/lehigh-university-libraries/boxocr/pkg/vision"
)

// rasterizer is swapped out in tests, which have no poppler install.
var rasterizer = func(dpi int) page.Rasterizer {
	// only the first page is ever annotated
	return page.NewPoppler(dpi, 1)
}

// recognizerFor is swapped out in tests, which have no OCR provider.
var recognizerFor = newRecognizer

func newRegistry() *providers.Registry {
	return providers.NewRegistry(
		tesseract.New(),
		vision.New(),
		openai.New(),
		azure.New(),
		claude.New(),
		gemini.New(),
		ollama.New(),
	)
}

// newRecognizer looks up and validates the configured provider.
func newRecognizer(cfg *config.Config) (annotate.Recognizer, error) {
	p, err := newRegistry().Get(cfg.Provider)
	if err != nil {
		return nil, err
	}

	pc := cfg.ProviderConfig()
	if err := p.ValidateConfig(pc); err != nil {
		return nil, fmt.Errorf("provider configuration validation failed: %w", err)
	}
	return providers.NewImageRecognizer(p, pc), nil
}

// openMachine rasterizes the first page of path and wires an annotation
// machine to it.
func openMachine(ctx context.Context, cfg *config.Config, path string, rec annotate.Recognizer) (*page.Page, *annotate.Machine, error) {
	pg, err := page.Load(ctx, rasterizer(cfg.DPI), path, cfg.Scale)
	if err != nil {
		return nil, nil, err
	}

	t, err := pg.Transform()
	if err != nil {
		return nil, nil, err
	}

	slog.Debug("Opened page", "file", path, "scale_w", t.ScaleW, "scale_h", t.ScaleH, "provider", cfg.Provider)
	m := annotate.NewMachine(annotate.NewSession(pg.Title), t, pg, rec).WithLogger(slog.Default())
	return pg, m, nil
}
