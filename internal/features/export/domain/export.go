package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Target selects the project scaffold an artifact is packaged into.
type Target string

const (
	TargetWeb    Target = "web"
	TargetMobile Target = "mobile"
)

// ParseTarget maps a query value to a Target. An empty value means web.
func ParseTarget(s string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(s))) {
	case "", TargetWeb:
		return TargetWeb, nil
	case TargetMobile:
		return TargetMobile, nil
	default:
		return "", fmt.Errorf("unknown export target %q", s)
	}
}

// File is one file of an exported project.
type File struct {
	Path string `json:"file"`
	Data string `json:"data"`
}

// Bundle is the full file set of an exported project, sorted by path.
type Bundle struct {
	Name   string `json:"name"`
	Target Target `json:"target"`
	Files  []File `json:"files"`
}

// FileMap returns the bundle as path to content.
func (b Bundle) FileMap() map[string]string {
	m := make(map[string]string, len(b.Files))
	for _, f := range b.Files {
		m[f.Path] = f.Data
	}
	return m
}

// Deployment is the result of a hosting deployment.
type Deployment struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
}

// ShareLink is a time-limited download link for an archive.
type ShareLink struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrNotConfigured is returned when the backing service has no credentials.
var ErrNotConfigured = errors.New("export backend is not configured")

// DeployError carries a non-success response from the hosting provider.
type DeployError struct {
	Status int
	Body   string
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy failed with status %d: %s", e.Status, e.Body)
}
