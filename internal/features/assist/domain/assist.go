package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotConfigured is returned when the provider key is missing.
	ErrNotConfigured = errors.New("API key not configured")
	// ErrEmptyAnalysis is returned when the vision model answers with no text.
	ErrEmptyAnalysis = errors.New("no analysis received from vision model")
)

// ImageRequest asks for a description of an attached image.
type ImageRequest struct {
	ImageData string `json:"imageData"`
	Prompt    string `json:"prompt,omitempty"`
}

// Validate checks the image is a data URL or a remote URL.
func (r ImageRequest) Validate() error {
	data := strings.TrimSpace(r.ImageData)
	if data == "" {
		return errors.New("image data is required")
	}
	if !strings.HasPrefix(data, "data:image/") && !strings.HasPrefix(data, "https://") && !strings.HasPrefix(data, "http://") {
		return errors.New("image data must be an image data URL")
	}
	return nil
}
