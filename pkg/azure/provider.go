package azure

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
)

// pollInterval is the wait between checks on a running read operation.
var pollInterval = time.Second

const maxPolls = 30

// Provider implements the Azure Computer Vision Read provider
type Provider struct{}

type readResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		// v3.2
		ReadResults []struct {
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"readResults"`
		// v4.0
		Pages []struct {
			Lines []struct {
				Content string `json:"content"`
			} `json:"lines"`
		} `json:"pages"`
	} `json:"analyzeResult"`
}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "azure"
}

func (p *Provider) ValidateConfig(config providers.Config) error {
	if os.Getenv("AZURE_OCR_ENDPOINT") == "" || os.Getenv("AZURE_OCR_API_KEY") == "" {
		return fmt.Errorf("AZURE_OCR_ENDPOINT and AZURE_OCR_API_KEY environment variables must be set")
	}
	return nil
}

// ExtractText submits the region to the Read API and polls until the
// analysis finishes.
func (p *Provider) ExtractText(ctx context.Context, config providers.Config, imagePath, imageBase64 string) (string, providers.UsageInfo, error) {
	if err := p.ValidateConfig(config); err != nil {
		return "", providers.UsageInfo{}, err
	}
	endpoint := os.Getenv("AZURE_OCR_ENDPOINT")
	apiKey := os.Getenv("AZURE_OCR_API_KEY")

	imageData, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	readURL := fmt.Sprintf("%s/vision/v3.2/read/analyze", strings.TrimSuffix(endpoint, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, readURL, bytes.NewReader(imageData))
	if err != nil {
		return "", providers.UsageInfo{}, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	client := &http.Client{Timeout: providers.TimeoutOr(config.Timeout, 60*time.Second)}
	resp, err := client.Do(req)
	if err != nil {
		return "", providers.UsageInfo{}, err
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", providers.UsageInfo{}, fmt.Errorf("azure OCR API error: %d - %s", resp.StatusCode, providers.TruncateBody(body))
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", providers.UsageInfo{}, fmt.Errorf("no operation location returned from Azure OCR")
	}

	for attempt := 0; attempt < maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "", providers.UsageInfo{}, ctx.Err()
		case <-time.After(pollInterval):
		}

		result, done, err := poll(ctx, client, operationURL, apiKey)
		if err != nil {
			return "", providers.UsageInfo{}, err
		}
		if done {
			return result.text(), providers.UsageInfo{}, nil
		}
	}

	return "", providers.UsageInfo{}, fmt.Errorf("azure OCR operation timed out")
}

// poll fetches the operation once. done is false while the analysis is
// still running or the service answered with a transient status.
func poll(ctx context.Context, client *http.Client, operationURL, apiKey string) (readResult, bool, error) {
	var result readResult

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return result, false, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return result, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, false, fmt.Errorf("invalid response format from Azure OCR: %w", err)
	}

	switch result.Status {
	case "succeeded":
		return result, true, nil
	case "failed":
		return result, false, fmt.Errorf("azure OCR analysis failed")
	}
	return result, false, nil
}

func (r readResult) text() string {
	var lines []string
	for _, rr := range r.AnalyzeResult.ReadResults {
		for _, l := range rr.Lines {
			lines = append(lines, l.Text)
		}
	}
	if len(lines) == 0 {
		for _, page := range r.AnalyzeResult.Pages {
			for _, l := range page.Lines {
				lines = append(lines, l.Content)
			}
		}
	}
	return strings.Join(lines, "\n")
}
