package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	defaultModel   = "claude-sonnet-4-5-20250514"
)

// Provider implements the Anthropic Claude vision provider
type Provider struct{}

// Response represents an Anthropic API response
type Response struct {
	Content []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "claude"
}

func (p *Provider) ValidateConfig(config providers.Config) error {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	return nil
}

// ExtractText extracts text from a region image using the messages API
func (p *Provider) ExtractText(ctx context.Context, config providers.Config, imagePath, imageBase64 string) (string, providers.UsageInfo, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return "", providers.UsageInfo{}, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	// Claude uses "media_type" instead of "mime_type"
	mediaType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mediaType == "" {
		mediaType = "image/png"
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}

	requestBody := map[string]any{
		"model":      model,
		"max_tokens": 4096,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{
						"type": "image",
						"source": map[string]any{
							"type":       "base64",
							"media_type": mediaType,
							"data":       imageBase64,
						},
					},
					{
						"type": "text",
						"text": config.Prompt,
					},
				},
			},
		},
	}
	if config.Temperature > 0 {
		requestBody["temperature"] = config.Temperature
	}

	raw, err := providers.PostJSON(ctx, providers.TimeoutOr(config.Timeout, 120*time.Second),
		baseURL()+"/messages",
		map[string]string{
			"x-api-key":         apiKey,
			"anthropic-version": "2023-06-01",
		},
		requestBody, 200)
	if err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("claude request failed: %w", err)
	}

	var claudeResp Response
	if err := json.Unmarshal(raw, &claudeResp); err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	var extractedText string
	found := false
	for _, content := range claudeResp.Content {
		if content.Type == "text" {
			extractedText = content.Text
			found = true
			break
		}
	}
	if !found {
		return "", providers.UsageInfo{}, fmt.Errorf("no text content in Claude response")
	}

	usage := providers.UsageInfo{
		InputTokens:  claudeResp.Usage.InputTokens,
		OutputTokens: claudeResp.Usage.OutputTokens,
	}

	return providers.ProcessResponse(p, extractedText), usage, nil
}

func baseURL() string {
	if u := os.Getenv("ANTHROPIC_BASE_URL"); u != "" {
		return strings.TrimSuffix(u, "/")
	}
	return defaultBaseURL
}
