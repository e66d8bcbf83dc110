package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBusy rejects a transition while a generation is in flight.
	ErrBusy = errors.New("a generation is already in progress")
	// ErrInvalidTransition rejects a transition the current state does not allow.
	ErrInvalidTransition = errors.New("transition not allowed before a generation has completed")
	// ErrPromptTooLong rejects prompts above the configured limit.
	ErrPromptTooLong = errors.New("prompt is too long, please shorten it and try again")
	// ErrEmptyGeneration is returned when a stream completes without any code.
	ErrEmptyGeneration = errors.New("the model returned no code")
)

// ValidationError describes a malformed request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// UnsupportedModelError is returned for model ids that are not in the catalog.
type UnsupportedModelError struct {
	Model     string
	Supported []string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model %q, supported models: %s", e.Model, strings.Join(e.Supported, ", "))
}

// MissingCredentialError is returned when a provider key is not configured.
type MissingCredentialError struct {
	Provider string
	EnvVar   string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s credential is not configured (set %s)", e.Provider, e.EnvVar)
}

// UpstreamError is a non-success response from a model provider.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.Status, e.Body)
}

// TransportError wraps a network failure or an interrupted stream.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
