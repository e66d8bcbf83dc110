package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"codecraft/backend/internal/features/assist/domain"
)

// DefaultTogetherBaseURL is Together's OpenAI compatible API.
const DefaultTogetherBaseURL = "https://api.together.xyz/v1"

// VisionConfig configures NewVisionClient.
type VisionConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	HTTPClient  *http.Client
}

// visionClient is the OpenAI compatible implementation of ImageAnalyzer.
type visionClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewVisionClient creates an ImageAnalyzer on an OpenAI compatible chat API.
func NewVisionClient(cfg VisionConfig) (ImageAnalyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.ErrNotConfigured
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultTogetherBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	return &visionClient{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (v *visionClient) Analyze(ctx context.Context, instruction, imageURL string) (string, error) {
	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: instruction},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL}},
			},
		}},
		MaxTokens:   v.maxTokens,
		Temperature: v.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrEmptyAnalysis
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
