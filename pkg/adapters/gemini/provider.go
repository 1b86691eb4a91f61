// Package gemini is a generation.Provider backed by the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/infrascope/pkg/generation"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Provider requests JSON output constrained by the descriptor's schema.
type Provider struct {
	client      *genai.Client
	model       string
	temperature *float32
}

var _ generation.Provider = (*Provider)(nil)

// New creates a provider for apiKey.
func New(ctx context.Context, apiKey, model string, temperature *float64) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	p := &Provider{client: client, model: model}
	if temperature != nil {
		p.temperature = genai.Ptr(float32(*temperature))
	}
	return p, nil
}

func (p *Provider) Name() string { return "gemini" }

// Complete runs one GenerateContent call.
func (p *Provider) Complete(ctx context.Context, req generation.Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      p.temperature,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Schema.Schema) > 0 {
		js, err := req.Schema.JSONSchema()
		if err != nil {
			return "", fmt.Errorf("gemini: render schema: %w", err)
		}
		cfg.ResponseJsonSchema = js
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", translate(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

// translate maps SDK API errors onto generation.HTTPError so the client's
// retry policy sees status codes.
func translate(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &generation.HTTPError{
			Provider:   "gemini",
			StatusCode: apiErr.Code,
			Body:       apiErr.Message,
		}
	}
	return fmt.Errorf("gemini: %w", err)
}
