package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"codecraft/backend/internal/features/generation/domain"
	"codecraft/backend/internal/features/generation/infrastructure"
)

// GenerationService validates generation requests and opens provider streams.
type GenerationService interface {
	// Check runs every validation Generate runs, without touching the network.
	Check(req domain.GenerationRequest) error
	Generate(ctx context.Context, req domain.GenerationRequest) (infrastructure.FragmentStream, error)
	Models() []string
	Prompts() PromptBuilder
}

// generationService is the implementation of GenerationService.
type generationService struct {
	registry *infrastructure.Registry
	prompts  PromptBuilder
	logger   zerolog.Logger
}

// NewGenerationService creates a new instance of generationService.
func NewGenerationService(registry *infrastructure.Registry, prompts PromptBuilder, logger zerolog.Logger) GenerationService {
	return &generationService{registry: registry, prompts: prompts, logger: logger.With().Str("component", "generation").Logger()}
}

func (s *generationService) Check(req domain.GenerationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := s.registry.Lookup(req.Model); err != nil {
		return err
	}
	return s.prompts.Check(req.Messages)
}

func (s *generationService) Generate(ctx context.Context, req domain.GenerationRequest) (infrastructure.FragmentStream, error) {
	if err := s.Check(req); err != nil {
		return nil, err
	}
	route, err := s.registry.Lookup(req.Model)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("model", req.Model).
		Str("upstream_model", route.UpstreamModel).
		Int("messages", len(req.Messages)).
		Msg("starting generation stream")

	stream, err := route.Adapter.Stream(ctx, route.UpstreamModel, s.prompts.Build(req.Messages))
	if err != nil {
		s.logger.Warn().Err(err).Str("model", req.Model).Msg("failed to open generation stream")
		return nil, fmt.Errorf("generate with %s: %w", req.Model, err)
	}
	return stream, nil
}

func (s *generationService) Models() []string {
	return s.registry.Models()
}

func (s *generationService) Prompts() PromptBuilder {
	return s.prompts
}
