package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
)

const (
	defaultURL   = "http://localhost:11434"
	defaultModel = "mistral-small3.2:24b"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Provider implements the Ollama local provider
type Provider struct{}

type generateResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "ollama"
}

// ValidateConfig accepts any configuration; the server is only contacted
// when a region is recognized.
func (p *Provider) ValidateConfig(config providers.Config) error {
	return nil
}

// ExtractText extracts text from a region image using the local generate API
func (p *Provider) ExtractText(ctx context.Context, config providers.Config, imagePath, imageBase64 string) (string, providers.UsageInfo, error) {
	model := config.Model
	if model == "" {
		model = defaultModel
	}

	requestBody := map[string]any{
		"model":  model,
		"prompt": config.Prompt,
		"images": []string{imageBase64},
		"stream": false,
		"options": map[string]any{
			"temperature": config.Temperature,
		},
	}

	// Longer timeout for local inference
	raw, err := providers.PostJSON(ctx, providers.TimeoutOr(config.Timeout, 300*time.Second),
		serverURL()+"/api/generate", nil, requestBody, 200)
	if err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("ollama request failed: %w", err)
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	usage := providers.UsageInfo{
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	}

	return providers.ProcessResponse(p, resp.Response), usage, nil
}

// CleanResponse drops the reasoning block some local models emit before
// the transcription.
func (p *Provider) CleanResponse(response string) string {
	return providers.CleanResponse(thinkBlock.ReplaceAllString(response, ""))
}

func serverURL() string {
	if u := os.Getenv("OLLAMA_URL"); u != "" {
		return strings.TrimSuffix(u, "/")
	}
	return defaultURL
}
