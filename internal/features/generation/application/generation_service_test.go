package application

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configdomain "codecraft/backend/internal/features/config/domain"
	"codecraft/backend/internal/features/generation/domain"
	"codecraft/backend/internal/features/generation/infrastructure"
)

type recordingAdapter struct {
	calls   int
	model   string
	prompt  infrastructure.Prompt
	streams []string
}

func (a *recordingAdapter) Kind() infrastructure.Kind { return infrastructure.KindOpenAISSE }

func (a *recordingAdapter) Stream(_ context.Context, model string, prompt infrastructure.Prompt) (infrastructure.FragmentStream, error) {
	a.calls++
	a.model = model
	a.prompt = prompt
	return &fakeStream{ctx: context.Background(), sc: script{fragments: a.streams}}, nil
}

func newTestService(t *testing.T, adapter *recordingAdapter, cfg configdomain.AppConfig) GenerationService {
	t.Helper()
	providers := []configdomain.ProviderConfig{
		{ModelID: "gemini-2.0-flash-exp", Kind: "openai-sse", UpstreamModel: "upstream", Enabled: true},
		{ModelID: "gemini-1.5-flash", Kind: "openai-sse", Enabled: true},
	}
	reg, err := infrastructure.NewRegistry(providers, infrastructure.RegistryOptions{
		Factories: map[infrastructure.Kind]infrastructure.AdapterFactory{
			infrastructure.KindOpenAISSE: func(infrastructure.AdapterOptions) (infrastructure.Adapter, error) { return adapter, nil },
		},
	})
	require.NoError(t, err)
	return NewGenerationService(reg, NewPromptBuilder(cfg), zerolog.Nop())
}

func userReq(model, content string) domain.GenerationRequest {
	return domain.GenerationRequest{Model: model, Messages: []domain.Message{{Role: domain.RoleUser, Content: content}}}
}

func TestGenerateUnsupportedModelMakesNoCalls(t *testing.T) {
	adapter := &recordingAdapter{}
	svc := newTestService(t, adapter, configdomain.AppConfig{})

	_, err := svc.Generate(context.Background(), userReq("gpt-5-ultra", "hi"))
	var unsupported *domain.UnsupportedModelError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, []string{"gemini-2.0-flash-exp", "gemini-1.5-flash"}, unsupported.Supported)
	assert.Zero(t, adapter.calls)
}

func TestGenerateValidation(t *testing.T) {
	adapter := &recordingAdapter{}
	svc := newTestService(t, adapter, configdomain.AppConfig{MaxPromptLength: 10})

	var validation *domain.ValidationError
	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Model: "gemini-1.5-flash"})
	assert.ErrorAs(t, err, &validation)

	_, err = svc.Generate(context.Background(), domain.GenerationRequest{
		Model:    "gemini-1.5-flash",
		Messages: []domain.Message{{Role: "system", Content: "x"}},
	})
	assert.ErrorAs(t, err, &validation)

	_, err = svc.Generate(context.Background(), userReq("gemini-1.5-flash", strings.Repeat("x", 11)))
	assert.ErrorIs(t, err, domain.ErrPromptTooLong)
	assert.Zero(t, adapter.calls)
}

func TestGenerateBuildsPrompt(t *testing.T) {
	adapter := &recordingAdapter{streams: []string{"a", "b"}}
	svc := newTestService(t, adapter, configdomain.AppConfig{})

	stream, err := svc.Generate(context.Background(), userReq("gemini-2.0-flash-exp", "a todo list"))
	require.NoError(t, err)
	got, err := Aggregate(context.Background(), stream, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", got)

	assert.Equal(t, "upstream", adapter.model)
	assert.Equal(t, configdomain.DefaultSystemPrompt, adapter.prompt.System)
	require.Len(t, adapter.prompt.Messages, 1)
	assert.Equal(t, "a todo list"+configdomain.DefaultCodeOnlySuffix, adapter.prompt.Messages[0].Content)
	assert.InDelta(t, configdomain.DefaultTemperature, adapter.prompt.Temperature, 0.001)
}

func TestPromptBuilderTemplates(t *testing.T) {
	b := NewPromptBuilder(configdomain.AppConfig{FixPromptTemplate: "fix this"})
	assert.Equal(t, "fix this\n\nboom", b.FixMessage("boom"))
	assert.Equal(t,
		"The preview failed to load with this error: boom. Please fix the code so it works and runs correctly.",
		NewPromptBuilder(configdomain.AppConfig{}).FixMessage("boom"))
	assert.True(t, strings.HasPrefix(b.RetryMessage("orig"), "orig"))
}

func TestPromptLimitAppliesToNewestUserMessage(t *testing.T) {
	b := NewPromptBuilder(configdomain.AppConfig{MaxPromptLength: 5})
	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "short"},
		{Role: domain.RoleAssistant, Content: strings.Repeat("code", 100)},
		{Role: domain.RoleUser, Content: "ok"},
	}
	assert.NoError(t, b.Check(msgs))
	msgs[2].Content = "too long"
	assert.ErrorIs(t, b.Check(msgs), domain.ErrPromptTooLong)
}
