package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
)

func TestProvider_Name(t *testing.T) {
	if New().Name() != "ollama" {
		t.Errorf("Expected name 'ollama', got '%s'", New().Name())
	}
}

func TestProvider_ExtractText(t *testing.T) {
	tests := []struct {
		name           string
		model          string
		expectedModel  string
		serverResponse string
		statusCode     int
		expectedText   string
		errorContains  string
	}{
		{
			name:           "default model",
			expectedModel:  defaultModel,
			statusCode:     http.StatusOK,
			serverResponse: `{"response":"Received 3 May","prompt_eval_count":10,"eval_count":4}`,
			expectedText:   "Received 3 May",
		},
		{
			name:           "custom model with reasoning",
			model:          "qwen2.5vl:7b",
			expectedModel:  "qwen2.5vl:7b",
			statusCode:     http.StatusOK,
			serverResponse: `{"response":"<think>\nlooks like a date\n</think>\n\n3 May 1921"}`,
			expectedText:   "3 May 1921",
		},
		{
			name:           "model missing",
			expectedModel:  defaultModel,
			statusCode:     http.StatusNotFound,
			serverResponse: `{"error":"model not found"}`,
			errorContains:  "API error: 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.Contains(r.URL.Path, "/api/generate") {
					t.Errorf("Expected /api/generate path, got %s", r.URL.Path)
				}

				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("invalid request body: %v", err)
				}
				if body["model"] != tt.expectedModel {
					t.Errorf("Expected model %s, got %v", tt.expectedModel, body["model"])
				}
				if images, ok := body["images"].([]any); !ok || len(images) != 1 || images[0] != "aGVsbG8=" {
					t.Errorf("unexpected images: %v", body["images"])
				}
				if body["stream"] != false {
					t.Errorf("Expected stream=false")
				}

				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.serverResponse))
			}))
			defer server.Close()

			t.Setenv("OLLAMA_URL", server.URL+"/")

			config := providers.Config{Model: tt.model, Prompt: providers.RegionPrompt}
			text, _, err := New().ExtractText(context.Background(), config, "region.png", "aGVsbG8=")
			if tt.errorContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errorContains) {
					t.Fatalf("Expected error containing %q, got %v", tt.errorContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if text != tt.expectedText {
				t.Errorf("Expected %q, got %q", tt.expectedText, text)
			}
		})
	}
}

func TestServerURLDefault(t *testing.T) {
	t.Setenv("OLLAMA_URL", "")
	if got := serverURL(); got != defaultURL {
		t.Errorf("serverURL() = %s, want %s", got, defaultURL)
	}
}
