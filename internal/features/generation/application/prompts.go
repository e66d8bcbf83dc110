package application

import (
	"strings"

	configdomain "codecraft/backend/internal/features/config/domain"
	"codecraft/backend/internal/features/generation/domain"
	"codecraft/backend/internal/features/generation/infrastructure"
)

// PromptBuilder turns conversations into provider prompts and renders the
// fix and retry messages.
type PromptBuilder struct {
	system        string
	suffix        string
	fixTemplate   string
	retryTemplate string
	maxLength     int
	temperature   float32
	maxTokens     int
}

// NewPromptBuilder reads prompt settings from cfg. Unset fields take defaults.
func NewPromptBuilder(cfg configdomain.AppConfig) PromptBuilder {
	cfg.ApplyDefaults()
	return PromptBuilder{
		system:        cfg.SystemPrompt,
		suffix:        cfg.CodeOnlySuffix,
		fixTemplate:   cfg.FixPromptTemplate,
		retryTemplate: cfg.RetryPromptTemplate,
		maxLength:     cfg.MaxPromptLength,
		temperature:   float32(cfg.ModelParams.Temperature),
		maxTokens:     cfg.ModelParams.MaxTokens,
	}
}

// Check enforces the prompt length limit on the newest user message.
func (b PromptBuilder) Check(msgs []domain.Message) error {
	if b.maxLength <= 0 {
		return nil
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != domain.RoleUser {
			continue
		}
		if len([]rune(msgs[i].Content)) > b.maxLength {
			return domain.ErrPromptTooLong
		}
		return nil
	}
	return nil
}

// Build adds the system prompt and appends the code-only suffix to the final
// user message.
func (b PromptBuilder) Build(msgs []domain.Message) infrastructure.Prompt {
	out := domain.CloneMessages(msgs)
	if n := len(out); n > 0 && out[n-1].Role == domain.RoleUser && b.suffix != "" {
		out[n-1].Content += b.suffix
	}
	return infrastructure.Prompt{
		System:      b.system,
		Messages:    out,
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	}
}

// FixMessage asks the model to repair code that failed to render.
func (b PromptBuilder) FixMessage(diagnostic string) string {
	return fill(b.fixTemplate, diagnostic)
}

// RetryMessage asks for a fresh attempt at the original prompt.
func (b PromptBuilder) RetryMessage(original string) string {
	return fill(b.retryTemplate, original)
}

func fill(template, value string) string {
	if strings.Contains(template, "%s") {
		return strings.Replace(template, "%s", value, 1)
	}
	return template + "\n\n" + value
}
