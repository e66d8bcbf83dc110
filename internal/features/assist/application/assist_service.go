package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"codecraft/backend/internal/features/assist/domain"
	"codecraft/backend/internal/features/assist/infrastructure"
	configdomain "codecraft/backend/internal/features/config/domain"
)

// AssistService helps users write prompts: it rewrites rough ideas and turns
// screenshots into descriptions.
type AssistService interface {
	// EnhancePrompt returns the rewritten prompt, or the input when the
	// rewrite is unavailable or fails.
	EnhancePrompt(ctx context.Context, prompt string) string
	AnalyzeImage(ctx context.Context, req domain.ImageRequest) (string, error)
}

// assistService is the implementation of AssistService.
type assistService struct {
	enhancer infrastructure.PromptEnhancer
	analyzer infrastructure.ImageAnalyzer
	cfg      configdomain.AppConfig
	logger   zerolog.Logger
}

// NewAssistService creates a new instance of assistService. Either client may
// be nil when its key is not configured.
func NewAssistService(enhancer infrastructure.PromptEnhancer, analyzer infrastructure.ImageAnalyzer, cfg configdomain.AppConfig, logger zerolog.Logger) AssistService {
	return &assistService{
		enhancer: enhancer,
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger.With().Str("component", "assist").Logger(),
	}
}

func (s *assistService) EnhancePrompt(ctx context.Context, prompt string) string {
	if s.enhancer == nil || strings.TrimSpace(prompt) == "" {
		return prompt
	}
	enhanced, err := s.enhancer.Enhance(ctx, s.cfg.EnhancePrompt, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Msg("prompt enhancement failed, returning input")
		return prompt
	}
	if enhanced == "" {
		return prompt
	}
	return enhanced
}

func (s *assistService) AnalyzeImage(ctx context.Context, req domain.ImageRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if s.analyzer == nil {
		return "", domain.ErrNotConfigured
	}
	analysis, err := s.analyzer.Analyze(ctx, s.instruction(req.Prompt), strings.TrimSpace(req.ImageData))
	if err != nil {
		s.logger.Warn().Err(err).Msg("image analysis failed")
		return "", err
	}
	if analysis == "" {
		return "", domain.ErrEmptyAnalysis
	}
	return analysis, nil
}

func (s *assistService) instruction(userPrompt string) string {
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return s.cfg.VisionPrompt
	}
	if strings.Contains(s.cfg.VisionPromptWithRequest, "%s") {
		return fmt.Sprintf(s.cfg.VisionPromptWithRequest, userPrompt)
	}
	return s.cfg.VisionPromptWithRequest + " The user wants to: " + userPrompt
}
