package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"codecraft/backend/internal/features/assist/domain"
)

// GeminiConfig configures NewGeminiEnhancer.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// geminiEnhancer is the Gemini implementation of PromptEnhancer.
type geminiEnhancer struct {
	client *genai.Client
	model  string
}

// NewGeminiEnhancer creates a PromptEnhancer on the Gemini API.
func NewGeminiEnhancer(ctx context.Context, cfg GeminiConfig) (PromptEnhancer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.ErrNotConfigured
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &geminiEnhancer{client: client, model: cfg.Model}, nil
}

func (g *geminiEnhancer) Enhance(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText("User prompt: "+prompt, genai.RoleUser)},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
