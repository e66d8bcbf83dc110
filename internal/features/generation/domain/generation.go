package domain

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn of a generation conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest asks a model to produce a component for a conversation.
type GenerationRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Validate checks the request shape without consulting the model catalog.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return &ValidationError{Field: "model", Msg: "model is required"}
	}
	if len(r.Messages) == 0 {
		return &ValidationError{Field: "messages", Msg: "at least one message is required"}
	}
	for _, m := range r.Messages {
		if !m.Role.Valid() {
			return &ValidationError{Field: "messages", Msg: "role must be user or assistant, got " + string(m.Role)}
		}
		if strings.TrimSpace(m.Content) == "" {
			return &ValidationError{Field: "messages", Msg: "message content must not be empty"}
		}
	}
	return nil
}

// PromptLength is the total character count of every message.
func (r GenerationRequest) PromptLength() int {
	n := 0
	for _, m := range r.Messages {
		n += len([]rune(m.Content))
	}
	return n
}

// Status is the session generation state.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusGenerating   Status = "generating"
	StatusReady        Status = "ready"
	StatusRegenerating Status = "regenerating"
)

// InFlight reports whether a generation pipeline is running.
func (s Status) InFlight() bool {
	return s == StatusGenerating || s == StatusRegenerating
}

// Artifact is a snapshot of the generated code. Version increases with every
// replacement, Final marks the sanitized result of a completed run.
type Artifact struct {
	Version int64  `json:"version"`
	Code    string `json:"code"`
	Final   bool   `json:"final"`
}

// CloneMessages copies a conversation so callers can append safely.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
