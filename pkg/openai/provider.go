package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// Provider implements the OpenAI vision provider
type Provider struct{}

// Response represents an OpenAI API response
type Response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// New creates a new OpenAI provider
func New() *Provider {
	return &Provider{}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "openai"
}

// ValidateConfig validates the OpenAI configuration
func (p *Provider) ValidateConfig(config providers.Config) error {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return nil
}

// ExtractText extracts text from a region image using the chat completions API
func (p *Provider) ExtractText(ctx context.Context, config providers.Config, imagePath, imageBase64 string) (string, providers.UsageInfo, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", providers.UsageInfo{}, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" {
		mimeType = "image/png"
	}

	model := config.Model
	if model == "" {
		model = "gpt-4o"
	}

	body := request{
		Model:       model,
		Temperature: config.Temperature,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: config.Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: fmt.Sprintf("data:%s;base64,%s", mimeType, imageBase64)}},
			},
		}},
	}

	raw, err := providers.PostJSON(ctx, providers.TimeoutOr(config.Timeout, 120*time.Second),
		baseURL()+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + apiKey},
		body, 200)
	if err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("openAI request failed: %w", err)
	}

	var openaiResp Response
	if err := json.Unmarshal(raw, &openaiResp); err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("failed to parse JSON response: %w - body: %s", err, providers.TruncateBody(raw))
	}

	if len(openaiResp.Choices) == 0 {
		return "", providers.UsageInfo{}, fmt.Errorf("no response from OpenAI - body: %s", providers.TruncateBody(raw))
	}

	usage := providers.UsageInfo{
		InputTokens:  openaiResp.Usage.PromptTokens,
		OutputTokens: openaiResp.Usage.CompletionTokens,
	}

	return providers.ProcessResponse(p, openaiResp.Choices[0].Message.Content), usage, nil
}

func baseURL() string {
	if u := os.Getenv("OPENAI_BASE_URL"); u != "" {
		return strings.TrimSuffix(u, "/")
	}
	return defaultBaseURL
}
