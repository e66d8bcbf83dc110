package infrastructure

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"

	"google.golang.org/genai"

	"codecraft/backend/internal/features/generation/domain"
)

// geminiAdapter streams from the Gemini API through the genai SDK.
type geminiAdapter struct {
	opts AdapterOptions

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiAdapter creates the Gemini adapter. The SDK client is created on
// first use.
func NewGeminiAdapter(opts AdapterOptions) (Adapter, error) {
	return &geminiAdapter{opts: opts}, nil
}

func (a *geminiAdapter) Kind() Kind { return KindGeminiSDK }

func (a *geminiAdapter) getClient(ctx context.Context) (*genai.Client, error) {
	a.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     a.opts.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: a.opts.HTTPClient,
		}
		if a.opts.Provider.Endpoint != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: a.opts.Provider.Endpoint}
		}
		a.client, a.initErr = genai.NewClient(ctx, cfg)
	})
	return a.client, a.initErr
}

func (a *geminiAdapter) Stream(ctx context.Context, model string, prompt Prompt) (FragmentStream, error) {
	if a.opts.APIKey == "" {
		return nil, missingCredential(a.opts)
	}
	client, err := a.getClient(ctx)
	if err != nil {
		return nil, &domain.TransportError{Provider: string(KindGeminiSDK), Err: err}
	}

	contents := make([]*genai.Content, 0, len(prompt.Messages))
	for _, m := range prompt.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	temperature := prompt.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(prompt.MaxTokens),
	}
	if prompt.System != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	next, stop := iter.Pull2(client.Models.GenerateContentStream(ctx, model, contents, config))
	return &geminiStream{next: next, stop: stop}, nil
}

type geminiStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

func (s *geminiStream) Recv() (Fragment, error) {
	for {
		resp, err, ok := s.next()
		if !ok {
			return Fragment{}, io.EOF
		}
		if err != nil {
			return Fragment{}, mapGeminiError(err)
		}
		if resp == nil {
			continue
		}
		if text := resp.Text(); text != "" {
			return Fragment{Text: text}, nil
		}
	}
}

func (s *geminiStream) Close() error {
	s.stop()
	return nil
}

func mapGeminiError(err error) error {
	provider := string(KindGeminiSDK)
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{Provider: provider, Status: apiErr.Code, Body: apiErr.Message}
	}
	return &domain.TransportError{Provider: provider, Err: err}
}
