package application

import (
	"os"

	"codecraft/backend/internal/features/config/domain"
)

// ModelCatalogService lists the models the running server can generate with.
type ModelCatalogService interface {
	ListModels() []domain.ModelInfo
}

// modelCatalogService is the implementation of ModelCatalogService.
type modelCatalogService struct {
	providers []domain.ProviderConfig
	lookupEnv func(string) string
}

// NewModelCatalogService creates a catalog over the providers loaded at startup.
// A nil lookupEnv reads the process environment.
func NewModelCatalogService(providers []domain.ProviderConfig, lookupEnv func(string) string) ModelCatalogService {
	if lookupEnv == nil {
		lookupEnv = os.Getenv
	}
	return &modelCatalogService{providers: providers, lookupEnv: lookupEnv}
}

// ListModels reports enabled models in catalog order. Available is false when the
// provider's credential is not set.
func (s *modelCatalogService) ListModels() []domain.ModelInfo {
	models := make([]domain.ModelInfo, 0, len(s.providers))
	for _, p := range s.providers {
		if !p.Enabled {
			continue
		}
		label := p.Label
		if label == "" {
			label = p.ModelID
		}
		models = append(models, domain.ModelInfo{
			ID:        p.ModelID,
			Label:     label,
			Kind:      p.Kind,
			Available: p.CredentialEnv == "" || s.lookupEnv(p.CredentialEnv) != "",
		})
	}
	return models
}
