package infrastructure

import (
	"context"

	"github.com/tidwall/gjson"
)

const defaultCohereEndpoint = "https://api.cohere.com/v2/chat"

type cohereAdapter struct {
	opts     AdapterOptions
	endpoint string
}

// NewCohereAdapter streams from the Cohere v2 chat API.
func NewCohereAdapter(opts AdapterOptions) (Adapter, error) {
	endpoint := opts.Provider.Endpoint
	if endpoint == "" {
		endpoint = defaultCohereEndpoint
	}
	return &cohereAdapter{opts: opts, endpoint: endpoint}, nil
}

func (a *cohereAdapter) Kind() Kind { return KindCohereSSE }

func (a *cohereAdapter) Stream(ctx context.Context, model string, prompt Prompt) (FragmentStream, error) {
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
	resp, err := postStream(ctx, a.opts.HTTPClient, string(KindCohereSSE), a.endpoint,
		map[string]string{"Authorization": "Bearer " + a.opts.APIKey}, body)
	if err != nil {
		return nil, err
	}
	return newSSEStream(string(KindCohereSSE), resp.Body, decodeCohereEvent, a.opts.Logger), nil
}

func decodeCohereEvent(event gjson.Result) (string, bool, error) {
	switch event.Get("type").String() {
	case "content-delta":
		return event.Get("delta.message.content.text").String(), false, nil
	case "message-end":
		return "", true, nil
	default:
		return "", false, nil
	}
}
