package utils

import (
	"log/slog"
	"os"
	"regexp"
)

type mask struct {
	pattern     *regexp.Regexp
	replacement string
}

// masks hides credentials that can end up in provider errors and URLs.
var masks = []mask{
	// key=VALUE, api_key=VALUE, apiKey=VALUE, api-key=VALUE, apikey=VALUE
	{regexp.MustCompile(`([?&])(api[_\-]?[kK]ey|key)=([^&\s"]+)`), `${1}${2}=***MASKED***`},
	{regexp.MustCompile(`Bearer\s+([A-Za-z0-9_\-\.]+)`), `Bearer ***MASKED***`},
	// Azure
	{regexp.MustCompile(`Ocp-Apim-Subscription-Key:\s*([^\s]+)`), `Ocp-Apim-Subscription-Key: ***MASKED***`},
	// Anthropic
	{regexp.MustCompile(`x-api-key:\s*([^\s]+)`), `x-api-key: ***MASKED***`},
	// Google service account JSON passed through GOOGLE_CREDENTIALS
	{regexp.MustCompile(`"private_key"\s*:\s*"[^"]*"`), `"private_key": "***MASKED***"`},
}

// MaskSensitiveData masks API keys and other sensitive information in strings
func MaskSensitiveData(s string) string {
	if s == "" {
		return s
	}
	for _, m := range masks {
		s = m.pattern.ReplaceAllString(s, m.replacement)
	}
	return s
}

// MaskSensitiveError wraps an error and masks sensitive data when the error is converted to string
func MaskSensitiveError(err error) error {
	if err == nil {
		return nil
	}
	return &maskedError{err: err}
}

type maskedError struct {
	err error
}

func (e *maskedError) Error() string {
	return MaskSensitiveData(e.err.Error())
}

func (e *maskedError) Unwrap() error {
	return e.err
}

// ExitOnError logs err with secrets masked and exits with status 1.
func ExitOnError(msg string, err error) {
	slog.Error(msg, "err", MaskSensitiveError(err))
	os.Exit(1)
}
