package vision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
)

type fakeAnnotator struct {
	resp *visionpb.BatchAnnotateImagesResponse
	err  error
	reqs []*visionpb.BatchAnnotateImagesRequest
}

func (f *fakeAnnotator) BatchAnnotate(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func TestProvider_Name(t *testing.T) {
	if New().Name() != "vision" {
		t.Errorf("Expected name 'vision', got '%s'", New().Name())
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name          string
		resp          *visionpb.BatchAnnotateImagesResponse
		expected      string
		errorContains string
	}{
		{
			name:          "nil response",
			errorContains: "no response",
		},
		{
			name:          "empty responses",
			resp:          &visionpb.BatchAnnotateImagesResponse{},
			errorContains: "no response",
		},
		{
			name: "full text annotation",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{
				{FullTextAnnotation: &visionpb.TextAnnotation{Text: "Dear Sir,\nyours truly\n"}},
			}},
			expected: "Dear Sir,\nyours truly",
		},
		{
			name: "text annotations only",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{
				{TextAnnotations: []*visionpb.EntityAnnotation{{Description: "1921 "}, {Description: "1921"}}},
			}},
			expected: "1921",
		},
		{
			name: "blank region",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{
				{},
			}},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := responseText(tt.resp)
			if tt.errorContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errorContains) {
					t.Fatalf("Expected error containing %q, got %v", tt.errorContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestProvider_ExtractText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.png")
	if err := os.WriteFile(path, []byte("png bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &fakeAnnotator{resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{
		{FullTextAnnotation: &visionpb.TextAnnotation{Text: "Lehigh"}},
	}}}
	dials := 0
	p := &Provider{newClient: func(ctx context.Context) (annotator, error) {
		dials++
		return fake, nil
	}}

	for i := 0; i < 2; i++ {
		text, _, err := p.ExtractText(context.Background(), providers.Config{}, path, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "Lehigh" {
			t.Errorf("Expected %q, got %q", "Lehigh", text)
		}
	}

	if dials != 1 {
		t.Errorf("client created %d times, want 1", dials)
	}
	if len(fake.reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(fake.reqs))
	}
	req := fake.reqs[0].Requests[0]
	if string(req.Image.Content) != "png bytes" {
		t.Errorf("image content = %q", req.Image.Content)
	}
	if req.Features[0].Type != visionpb.Feature_DOCUMENT_TEXT_DETECTION {
		t.Errorf("feature = %v, want DOCUMENT_TEXT_DETECTION", req.Features[0].Type)
	}
}

func TestProvider_ExtractTextErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.png")
	if err := os.WriteFile(path, []byte("png bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	dialErr := errors.New("no credentials")
	p := &Provider{newClient: func(ctx context.Context) (annotator, error) { return nil, dialErr }}
	if _, _, err := p.ExtractText(context.Background(), providers.Config{}, path, ""); !errors.Is(err, dialErr) {
		t.Errorf("Expected dial error, got %v", err)
	}

	apiErr := errors.New("quota exceeded")
	p = &Provider{newClient: func(ctx context.Context) (annotator, error) { return &fakeAnnotator{err: apiErr}, nil }}
	if _, _, err := p.ExtractText(context.Background(), providers.Config{}, path, ""); !errors.Is(err, apiErr) {
		t.Errorf("Expected API error, got %v", err)
	}

	if _, _, err := p.ExtractText(context.Background(), providers.Config{}, filepath.Join(t.TempDir(), "missing.png"), ""); err == nil {
		t.Error("Expected error for missing image")
	}
}

func TestProvider_ClientOutlivesRequest(t *testing.T) {
	var dialCtx context.Context
	p := &Provider{newClient: func(ctx context.Context) (annotator, error) {
		dialCtx = ctx
		return &fakeAnnotator{}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := p.annotator(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	if dialCtx.Err() != nil {
		t.Errorf("client context cancelled with the request: %v", dialCtx.Err())
	}
}
