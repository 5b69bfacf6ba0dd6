package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
)

// ImageRecognizer feeds cropped page regions to a Provider. Providers work on
// files, so every region is written to a temporary PNG that is removed once
// the call returns.
type ImageRecognizer struct {
	Provider Provider
	Config   Config
	// TempDir is where region images are written; empty uses os.TempDir.
	TempDir string
}

func NewImageRecognizer(p Provider, config Config) *ImageRecognizer {
	if config.Prompt == "" {
		config.Prompt = RegionPrompt
	}
	return &ImageRecognizer{Provider: p, Config: config}
}

// Recognize blocks until the provider answers.
func (r *ImageRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode region: %w", err)
	}

	f, err := os.CreateTemp(r.TempDir, "boxocr-region-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	regionPath := f.Name()
	defer os.Remove(regionPath)

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write region image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write region image: %w", err)
	}

	imageBase64 := base64.StdEncoding.EncodeToString(buf.Bytes())
	text, _, err := r.Provider.ExtractText(ctx, r.Config, regionPath, imageBase64)
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.Provider.Name(), err)
	}

	return strings.TrimRight(text, " \t\r\n"), nil
}
