package providers

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// RegionPrompt is sent to the vision model providers with every cropped box.
const RegionPrompt = `You are an OCR (Optical Character Recognition) system. Your task is to transcribe the text in this cropped region of a scanned page.

INSTRUCTIONS:
- Return ONLY the text you can read, nothing else
- Keep the line breaks you see in the image
- Preserve capitalization and punctuation as you see it
- Do not add explanations, descriptions, or apologies
- If the region contains no text, return an empty response

TEXT:`

// Config represents the configuration for a provider
type Config struct {
	Provider    string
	Model       string
	Prompt      string
	Temperature float64
	Timeout     time.Duration
	// Language is the tesseract language code, e.g. "eng" or "eng+deu".
	Language string
}

// UsageInfo represents token usage information from a provider
type UsageInfo struct {
	InputTokens  int
	OutputTokens int
}

// Provider interface that all OCR/vision providers must implement
type Provider interface {
	// ExtractText extracts text from the image at imagePath. imageBase64 holds
	// the same image for providers that upload it inline.
	ExtractText(ctx context.Context, config Config, imagePath, imageBase64 string) (string, UsageInfo, error)
	// Name returns the provider's name
	Name() string
	// ValidateConfig validates the provider-specific configuration
	ValidateConfig(config Config) error
}

// CleanResponseProvider is an optional interface that providers can implement
// to provide custom response cleaning logic
type CleanResponseProvider interface {
	CleanResponse(response string) string
}

var prefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(the\s+)?text\s+in\s+(the\s+)?(image|region)\s+(is|says|reads):?\s*`),
	regexp.MustCompile(`(?i)^(the\s+)?(image|region)\s+contains\s+(the\s+following\s+)?text:?\s*`),
	regexp.MustCompile(`(?i)^here'?s?\s+(the\s+)?text\s+(extracted\s+)?from\s+(the\s+)?(image|region):?\s*`),
	regexp.MustCompile(`(?i)^(i\s+can\s+see\s+)?text\s+(that\s+says|reading):?\s*`),
	regexp.MustCompile(`(?i)^certainly!\s+here'?s?\s+(the\s+)?text\s+(extracted\s+)?from\s+(the\s+)?(image|region):?\s*`),
	regexp.MustCompile(`(?i)^here'?s?\s+the\s+extracted\s+text\s+from\s+(the\s+)?(image|region):?\s*`),
}

// CleanResponse strips the chatter vision models wrap around a transcription.
// Line breaks inside the text are kept.
func CleanResponse(response string) string {
	response = strings.TrimSpace(response)

	for _, re := range prefixPatterns {
		response = re.ReplaceAllString(response, "")
		response = strings.TrimSpace(response)
	}

	// Remove markdown code blocks if present
	if strings.HasPrefix(response, "```") && strings.HasSuffix(response, "```") && len(response) >= 6 {
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimPrefix(response, "text\n")
		response = strings.TrimSpace(response)
	}

	if len(response) >= 2 && response[0] == '"' && response[len(response)-1] == '"' {
		response = response[1 : len(response)-1]
	}

	return response
}

// ProcessResponse cleans a response using the provider's custom cleaner if available,
// otherwise uses the general CleanResponse function
func ProcessResponse(provider Provider, response string) string {
	if cleaner, ok := provider.(CleanResponseProvider); ok {
		return cleaner.CleanResponse(response)
	}
	return CleanResponse(response)
}

// TruncateBody truncates a response body to a maximum length for error messages.
// Default maxLen is 500 if not specified.
func TruncateBody(body []byte, maxLen ...int) string {
	limit := 500
	if len(maxLen) > 0 && maxLen[0] > 0 {
		limit = maxLen[0]
	}
	s := string(body)
	if len(s) > limit {
		return s[:limit] + "... (truncated)"
	}
	return s
}
