package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"codecraft/backend/internal/features/export/domain"
)

// DefaultVercelEndpoint is the deployments API the client posts to.
const DefaultVercelEndpoint = "https://api.vercel.com/v13/deployments"

// Deployer publishes a file set to a hosting provider.
type Deployer interface {
	Deploy(ctx context.Context, name string, files []domain.File) (domain.Deployment, error)
}

// VercelConfig configures NewVercelClient.
type VercelConfig struct {
	Token      string
	TeamID     string
	Endpoint   string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// vercelClient is the Vercel implementation of Deployer.
type vercelClient struct {
	token    string
	teamID   string
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
}

// NewVercelClient creates a Deployer backed by the Vercel deployments API.
func NewVercelClient(cfg VercelConfig) (Deployer, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("vercel token: %w", domain.ErrNotConfigured)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultVercelEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &vercelClient{
		token:    token,
		teamID:   strings.TrimSpace(cfg.TeamID),
		endpoint: cfg.Endpoint,
		http:     cfg.HTTPClient,
		logger:   cfg.Logger.With().Str("component", "vercel").Logger(),
	}, nil
}

type vercelDeployment struct {
	Name            string                `json:"name"`
	Files           []domain.File         `json:"files"`
	ProjectSettings vercelProjectSettings `json:"projectSettings"`
}

type vercelProjectSettings struct {
	Framework string `json:"framework"`
}

func (c *vercelClient) Deploy(ctx context.Context, name string, files []domain.File) (domain.Deployment, error) {
	if name == "" {
		name = fmt.Sprintf("codecraft-app-%d", time.Now().UnixMilli())
	}
	body, err := json.Marshal(vercelDeployment{
		Name:            name,
		Files:           files,
		ProjectSettings: vercelProjectSettings{Framework: "create-react-app"},
	})
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("encode deployment: %w", err)
	}

	endpoint := c.endpoint
	if c.teamID != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return domain.Deployment{}, fmt.Errorf("parse endpoint: %w", err)
		}
		q := u.Query()
		q.Set("teamId", c.teamID)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("build deploy request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("deploy request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("read deploy response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("project", name).Msg("vercel deployment rejected")
		return domain.Deployment{}, &domain.DeployError{Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	res := gjson.ParseBytes(payload)
	host := res.Get("url").String()
	if host == "" {
		return domain.Deployment{}, &domain.DeployError{Status: resp.StatusCode, Body: "response has no deployment url"}
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	d := domain.Deployment{ID: res.Get("id").String(), URL: host}
	c.logger.Info().Str("project", name).Str("url", d.URL).Int("files", len(files)).Msg("vercel deployment created")
	return d, nil
}
