package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
)

const defaultLanguage = "eng"

// client is the part of *gosseract.Client the provider uses.
type client interface {
	SetLanguage(langs ...string) error
	SetImage(imagepath string) error
	Text() (string, error)
	Close() error
}

// Provider runs the local tesseract engine through gosseract. It needs no
// network access or API key.
type Provider struct {
	clientFactory func() client
}

func New() *Provider {
	return &Provider{clientFactory: func() client { return gosseract.NewClient() }}
}

func (p *Provider) Name() string {
	return "tesseract"
}

func (p *Provider) ValidateConfig(config providers.Config) error {
	for _, lang := range languages(config.Language) {
		if strings.ContainsAny(lang, " /\\") {
			return fmt.Errorf("invalid tesseract language %q", lang)
		}
	}
	return nil
}

// ExtractText ignores the prompt and model; tesseract is driven by the
// language setting alone.
func (p *Provider) ExtractText(ctx context.Context, config providers.Config, imagePath, imageBase64 string) (string, providers.UsageInfo, error) {
	if err := ctx.Err(); err != nil {
		return "", providers.UsageInfo{}, err
	}

	c := p.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(languages(config.Language)...); err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImage(imagePath); err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("tesseract: %w", err)
	}

	return strings.TrimRight(text, " \t\r\n"), providers.UsageInfo{}, nil
}

// languages splits a tesseract language string such as "eng+deu".
func languages(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{defaultLanguage}
	}
	var langs []string
	for _, l := range strings.Split(s, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		return []string{defaultLanguage}
	}
	return langs
}
