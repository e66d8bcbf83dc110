package infrastructure

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"codecraft/backend/internal/features/generation/domain"
)

// openAIAdapter streams chat completions through the go-openai client.
type openAIAdapter struct {
	client *openai.Client
	opts   AdapterOptions
}

// NewOpenAIAdapter creates the OpenAI adapter. Endpoint overrides the base URL
// for OpenAI compatible gateways.
func NewOpenAIAdapter(opts AdapterOptions) (Adapter, error) {
	a := &openAIAdapter{opts: opts}
	if opts.APIKey != "" {
		cfg := openai.DefaultConfig(opts.APIKey)
		if opts.Provider.Endpoint != "" {
			cfg.BaseURL = opts.Provider.Endpoint
		}
		if opts.HTTPClient != nil {
			cfg.HTTPClient = opts.HTTPClient
		}
		a.client = openai.NewClientWithConfig(cfg)
	}
	return a, nil
}

func (a *openAIAdapter) Kind() Kind { return KindOpenAISDK }

func (a *openAIAdapter) Stream(ctx context.Context, model string, prompt Prompt) (FragmentStream, error) {
	if a.client == nil {
		return nil, missingCredential(a.opts)
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: prompt.System})
	}
	for _, m := range prompt.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Recv() (Fragment, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return Fragment{}, io.EOF
		}
		if err != nil {
			return Fragment{}, mapOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		done := choice.FinishReason != "" && choice.FinishReason != openai.FinishReasonNull
		if choice.Delta.Content == "" && !done {
			continue
		}
		return Fragment{Text: choice.Delta.Content, Done: done}, nil
	}
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

func mapOpenAIError(err error) error {
	provider := string(KindOpenAISDK)
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{Provider: provider, Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := reqErr.Error()
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &domain.UpstreamError{Provider: provider, Status: reqErr.HTTPStatusCode, Body: body}
	}
	return &domain.TransportError{Provider: provider, Err: err}
}
