package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrBlocked is returned when the model refuses or returns no candidates.
var ErrBlocked = errors.New("model returned no candidates")

// GeminiConfig is the subset of application config the generator needs.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiGenerator implements Generator with the Google generative AI SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator creates a client bound to one model. Close it on shutdown.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.ResponseMIMEType = "application/json"

	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate sends prompt and document as two parts of one request.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt, document string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt), genai.Text(document))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrBlocked
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", ErrBlocked
	}
	return sb.String(), nil
}

// Close releases the underlying gRPC connection.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
