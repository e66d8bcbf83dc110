package infrastructure

import (
	"context"

	"github.com/tidwall/gjson"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion         = "2023-06-01"
	anthropicDefaultTokens   = 8192
)

type anthropicAdapter struct {
	opts     AdapterOptions
	endpoint string
}

// NewAnthropicAdapter streams from the Anthropic messages API.
func NewAnthropicAdapter(opts AdapterOptions) (Adapter, error) {
	endpoint := opts.Provider.Endpoint
	if endpoint == "" {
		endpoint = defaultAnthropicEndpoint
	}
	return &anthropicAdapter{opts: opts, endpoint: endpoint}, nil
}

func (a *anthropicAdapter) Kind() Kind { return KindAnthropicSSE }

func (a *anthropicAdapter) Stream(ctx context.Context, model string, prompt Prompt) (FragmentStream, error) {
	if a.opts.APIKey == "" {
		return nil, missingCredential(a.opts)
	}
	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultTokens
	}
	body := map[string]any{
		"model":       model,
		"messages":    chatMessages("", prompt.Messages),
		"max_tokens":  maxTokens,
		"temperature": prompt.Temperature,
		"stream":      true,
	}
	if prompt.System != "" {
		body["system"] = prompt.System
	}
	resp, err := postStream(ctx, a.opts.HTTPClient, string(KindAnthropicSSE), a.endpoint, map[string]string{
		"x-api-key":         a.opts.APIKey,
		"anthropic-version": anthropicVersion,
	}, body)
	if err != nil {
		return nil, err
	}
	return newSSEStream(string(KindAnthropicSSE), resp.Body, decodeAnthropicEvent, a.opts.Logger), nil
}

func decodeAnthropicEvent(event gjson.Result) (string, bool, error) {
	switch event.Get("type").String() {
	case "content_block_delta":
		return event.Get("delta.text").String(), false, nil
	case "message_stop":
		return "", true, nil
	case "error":
		return "", false, streamEventError(string(KindAnthropicSSE), event)
	default:
		return "", false, nil
	}
}
