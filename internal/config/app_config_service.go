package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"codecraft/backend/internal/features/config/domain"
)

// AppConfigService defines the interface for application configuration management.
type AppConfigService interface {
	LoadAppConfig() (*domain.AppConfig, error)
	SaveAppConfig(config *domain.AppConfig) error
}

// appConfigService is the implementation of AppConfigService.
type appConfigService struct {
	configPath string
	logger     zerolog.Logger
}

// NewAppConfigService creates a new instance of appConfigService.
func NewAppConfigService(configPath string, logger zerolog.Logger) AppConfigService {
	return &appConfigService{configPath: configPath, logger: logger.With().Str("component", "app_config").Logger()}
}

// LoadAppConfig loads the application configuration from the configured JSON file.
// A missing file yields the built-in defaults.
func (s *appConfigService) LoadAppConfig() (*domain.AppConfig, error) {
	absPath, err := filepath.Abs(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", s.configPath, err)
	}

	var appConfig domain.AppConfig
	data, err := os.ReadFile(absPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Warn().Str("path", absPath).Msg("app config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read app config file %s: %w", absPath, err)
	default:
		if err := json.Unmarshal(data, &appConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal app config from %s: %w", absPath, err)
		}
	}

	appConfig.ApplyDefaults()
	if err := Validate(&appConfig); err != nil {
		return nil, fmt.Errorf("invalid app config %s: %w", absPath, err)
	}
	s.logger.Debug().Str("path", absPath).Int("providers", len(appConfig.Providers)).Msg("app config loaded")
	return &appConfig, nil
}

// SaveAppConfig saves the application configuration to the configured JSON file.
// The running server keeps the catalog it started with.
func (s *appConfigService) SaveAppConfig(appConfig *domain.AppConfig) error {
	if err := Validate(appConfig); err != nil {
		return err
	}
	absPath, err := filepath.Abs(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", s.configPath, err)
	}

	data, err := json.MarshalIndent(appConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal app config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory for %s: %w", absPath, err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write app config to file %s: %w", absPath, err)
	}

	s.logger.Info().Str("path", absPath).Msg("app config saved")
	return nil
}

// Validate rejects provider catalogs with duplicate or incomplete entries.
func Validate(appConfig *domain.AppConfig) error {
	seen := make(map[string]struct{}, len(appConfig.Providers))
	for i, p := range appConfig.Providers {
		if p.ModelID == "" {
			return fmt.Errorf("providers[%d]: model_id is required", i)
		}
		if p.Kind == "" {
			return fmt.Errorf("providers[%d] (%s): kind is required", i, p.ModelID)
		}
		if _, dup := seen[p.ModelID]; dup {
			return fmt.Errorf("providers[%d]: duplicate model_id %q", i, p.ModelID)
		}
		seen[p.ModelID] = struct{}{}
	}
	if appConfig.MaxPromptLength < 0 || appConfig.AutoFixLimit < 0 {
		return errors.New("max_prompt_length and auto_fix_limit must not be negative")
	}
	return nil
}
