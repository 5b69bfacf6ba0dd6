package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
)

// Provider implements the Google Gemini vision provider
type Provider struct{}

// Response is the subset of a generateContent response that carries text.
type Response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) ValidateConfig(config providers.Config) error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	return nil
}

// ExtractText extracts text from a region image using generateContent
func (p *Provider) ExtractText(ctx context.Context, config providers.Config, imagePath, imageBase64 string) (string, providers.UsageInfo, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", providers.UsageInfo{}, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" {
		mimeType = "image/png"
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}

	requestBody := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": config.Prompt},
					{
						"inline_data": map[string]any{
							"mime_type": mimeType,
							"data":      imageBase64,
						},
					},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature": config.Temperature,
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", baseURL(), url.PathEscape(model), url.QueryEscape(apiKey))
	raw, err := providers.PostJSON(ctx, providers.TimeoutOr(config.Timeout, 60*time.Second), endpoint, nil, requestBody, 200)
	if err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("gemini request failed: %w", err)
	}

	var geminiResp Response
	if err := json.Unmarshal(raw, &geminiResp); err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return "", providers.UsageInfo{}, fmt.Errorf("no response from Gemini")
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	usage := providers.UsageInfo{
		InputTokens:  geminiResp.UsageMetadata.PromptTokenCount,
		OutputTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
	}

	return providers.ProcessResponse(p, sb.String()), usage, nil
}

func baseURL() string {
	if u := os.Getenv("GEMINI_BASE_URL"); u != "" {
		return strings.TrimSuffix(u, "/")
	}
	return defaultBaseURL
}
