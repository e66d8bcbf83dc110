package infrastructure

import (
	"context"

	"github.com/tidwall/gjson"
)

// openAICompatAdapter speaks the OpenAI chat completions SSE dialect served by
// Groq, Together and other compatible providers.
type openAICompatAdapter struct {
	opts     AdapterOptions
	endpoint string
}

// NewOpenAICompatAdapter requires an explicit endpoint in the provider entry.
func NewOpenAICompatAdapter(opts AdapterOptions) (Adapter, error) {
	if opts.Provider.Endpoint == "" {
		return nil, errNoEndpoint
	}
	return &openAICompatAdapter{opts: opts, endpoint: opts.Provider.Endpoint}, nil
}

func (a *openAICompatAdapter) Kind() Kind { return KindOpenAISSE }

func (a *openAICompatAdapter) Stream(ctx context.Context, model string, prompt Prompt) (FragmentStream, error) {
	if a.opts.APIKey == "" {
		return nil, missingCredential(a.opts)
	}
	body := map[string]any{
		"model":       model,
		"messages":    chatMessages(prompt.System, prompt.Messages),
		"stream":      true,
		"temperature": prompt.Temperature,
	}
	if prompt.MaxTokens > 0 {
		body["max_tokens"] = prompt.MaxTokens
	}
	resp, err := postStream(ctx, a.opts.HTTPClient, string(KindOpenAISSE), a.endpoint,
		map[string]string{"Authorization": "Bearer " + a.opts.APIKey}, body)
	if err != nil {
		return nil, err
	}
	return newSSEStream(string(KindOpenAISSE), resp.Body, decodeOpenAIEvent, a.opts.Logger), nil
}

func decodeOpenAIEvent(event gjson.Result) (string, bool, error) {
	if event.Get("error").Exists() {
		return "", false, streamEventError(string(KindOpenAISSE), event)
	}
	return event.Get("choices.0.delta.content").String(), false, nil
}
