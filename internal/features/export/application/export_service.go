package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"codecraft/backend/internal/features/export/domain"
	"codecraft/backend/internal/features/export/infrastructure"
)

const defaultShareTTL = 24 * time.Hour

// ExportService packages artifacts as downloadable projects, deploys them and
// shares them through presigned links.
type ExportService interface {
	Archive(name, code string, target domain.Target) (filename string, data []byte, err error)
	Deploy(ctx context.Context, name, code string) (domain.Deployment, error)
	DeployFiles(ctx context.Context, name string, files map[string]string) (domain.Deployment, error)
	Share(ctx context.Context, name, code string, target domain.Target) (domain.ShareLink, error)
}

// ExportOptions configures NewExportService. A nil Deployer or ShareStore
// makes the matching operation return domain.ErrNotConfigured.
type ExportOptions struct {
	Deployer infrastructure.Deployer
	Shares   infrastructure.ShareStore
	ShareTTL time.Duration
	Logger   zerolog.Logger
}

// exportService is the implementation of ExportService.
type exportService struct {
	deployer infrastructure.Deployer
	shares   infrastructure.ShareStore
	shareTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExportService creates a new instance of exportService.
func NewExportService(opts ExportOptions) ExportService {
	if opts.ShareTTL <= 0 {
		opts.ShareTTL = defaultShareTTL
	}
	return &exportService{
		deployer: opts.Deployer,
		shares:   opts.Shares,
		shareTTL: opts.ShareTTL,
		logger:   opts.Logger.With().Str("component", "export").Logger(),
		now:      time.Now,
	}
}

func (s *exportService) Archive(name, code string, target domain.Target) (string, []byte, error) {
	if strings.TrimSpace(code) == "" {
		return "", nil, errors.New("nothing to export: code is empty")
	}
	b, err := BuildBundle(name, code, target)
	if err != nil {
		return "", nil, fmt.Errorf("build bundle: %w", err)
	}
	data, err := Zip(b, s.now())
	if err != nil {
		return "", nil, err
	}
	return archiveName(b), data, nil
}

func (s *exportService) Deploy(ctx context.Context, name, code string) (domain.Deployment, error) {
	if strings.TrimSpace(code) == "" {
		return domain.Deployment{}, errors.New("nothing to deploy: code is empty")
	}
	b, err := BuildBundle(name, code, domain.TargetWeb)
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("build bundle: %w", err)
	}
	projectName := ""
	if strings.TrimSpace(name) != "" {
		projectName = b.Name
	}
	return s.deploy(ctx, projectName, b.Files)
}

func (s *exportService) DeployFiles(ctx context.Context, name string, files map[string]string) (domain.Deployment, error) {
	if len(files) == 0 {
		return domain.Deployment{}, errors.New("missing files")
	}
	list := make([]domain.File, 0, len(files))
	for path, data := range files {
		list = append(list, domain.File{Path: path, Data: data})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	return s.deploy(ctx, strings.TrimSpace(name), list)
}

func (s *exportService) deploy(ctx context.Context, name string, files []domain.File) (domain.Deployment, error) {
	if s.deployer == nil {
		return domain.Deployment{}, domain.ErrNotConfigured
	}
	d, err := s.deployer.Deploy(ctx, name, files)
	if err != nil {
		s.logger.Warn().Err(err).Str("project", name).Msg("deployment failed")
		return domain.Deployment{}, err
	}
	return d, nil
}

func (s *exportService) Share(ctx context.Context, name, code string, target domain.Target) (domain.ShareLink, error) {
	if s.shares == nil {
		return domain.ShareLink{}, domain.ErrNotConfigured
	}
	filename, data, err := s.Archive(name, code, target)
	if err != nil {
		return domain.ShareLink{}, err
	}
	key := "shares/" + uuid.NewString() + "/" + filename
	if err := s.shares.Put(ctx, key, data, "application/zip"); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("share upload failed")
		return domain.ShareLink{}, fmt.Errorf("upload archive: %w", err)
	}
	link, err := s.shares.PresignGet(ctx, key, s.shareTTL)
	if err != nil {
		return domain.ShareLink{}, err
	}
	s.logger.Info().Str("key", key).Int("bytes", len(data)).Msg("archive shared")
	return domain.ShareLink{Key: key, URL: link, ExpiresAt: s.now().Add(s.shareTTL)}, nil
}

func archiveName(b domain.Bundle) string {
	if b.Target == domain.TargetMobile {
		return b.Name + "-mobile.zip"
	}
	return b.Name + ".zip"
}
