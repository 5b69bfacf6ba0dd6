package vision

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/boxocr/pkg/providers"
)

// annotator is the part of the Vision client the provider calls.
type annotator interface {
	BatchAnnotate(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
}

type clientAnnotator struct {
	client *vision.ImageAnnotatorClient
}

func (c clientAnnotator) BatchAnnotate(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	return c.client.BatchAnnotateImages(ctx, req)
}

// Provider implements Google Cloud Vision document text detection.
// The client is created on first use and reused for every region.
type Provider struct {
	mu        sync.Mutex
	client    annotator
	newClient func(ctx context.Context) (annotator, error)
}

func New() *Provider {
	return &Provider{newClient: dial}
}

func (p *Provider) Name() string {
	return "vision"
}

// ValidateConfig defers credential checks to the client, which also
// understands application default credentials.
func (p *Provider) ValidateConfig(config providers.Config) error {
	if f := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); f != "" && os.Getenv("GOOGLE_CREDENTIALS") == "" {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS: %w", err)
		}
	}
	return nil
}

func (p *Provider) ExtractText(ctx context.Context, config providers.Config, imagePath, imageBase64 string) (string, providers.UsageInfo, error) {
	content, err := os.ReadFile(imagePath)
	if err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("failed to read image: %w", err)
	}

	client, err := p.annotator(ctx)
	if err != nil {
		return "", providers.UsageInfo{}, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := client.BatchAnnotate(ctx, req)
	if err != nil {
		return "", providers.UsageInfo{}, fmt.Errorf("vision API call failed: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", providers.UsageInfo{}, err
	}
	return text, providers.UsageInfo{}, nil
}

func (p *Provider) annotator(ctx context.Context) (annotator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	// the client outlives the request that created it
	c, err := p.newClient(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	p.client = c
	return c, nil
}

// dial prefers inline GOOGLE_CREDENTIALS, then a credentials file, then
// application default credentials.
func dial(ctx context.Context) (annotator, error) {
	var opts []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return clientAnnotator{client: client}, nil
}

// responseText returns the full text annotation of the single image in resp.
// Older responses without a full annotation fall back to the first text
// annotation, which holds the whole detected text.
func responseText(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if resp == nil || len(resp.Responses) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}
	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("vision API error: %s", r.Error.Message)
	}
	if r.FullTextAnnotation != nil {
		return strings.TrimSpace(r.FullTextAnnotation.Text), nil
	}
	if len(r.TextAnnotations) > 0 {
		return strings.TrimSpace(r.TextAnnotations[0].Description), nil
	}
	return "", nil
}
