package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	GeminiName         = "gemini"
	GeminiDefaultModel = "gemini-1.5-pro"
)

// GeminiConfig holds configuration for the Gemini vision client.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiClient implements VisionClient against the Gemini API.
type GeminiClient struct {
	apiKey string
	model  string
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = GeminiDefaultModel
	}
	return &GeminiClient{
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  strings.TrimSpace(cfg.Model),
	}
}

// Name returns the provider identifier.
func (c *GeminiClient) Name() string { return GeminiName }

// Analyze sends the report image to Gemini and returns the raw reply text.
// A single attempt with no retry; a transient failure is terminal for the
// request and surfaces to the caller.
func (c *GeminiClient) Analyze(ctx context.Context, image []byte, mimeType string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("gemini: API key is empty")
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to create client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(c.model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}

	parts := []genai.Part{
		&genai.Blob{MIMEType: mimeType, Data: image},
		genai.Text(ExtractionPrompt),
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content failed: %w", err)
	}

	txt := firstText(resp)
	if txt == "" {
		return "", errors.New("gemini: empty response")
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
