package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/rs/zerolog"

	configdomain "codecraft/backend/internal/features/config/domain"
	"codecraft/backend/internal/features/generation/domain"
)

// Kind names the wire protocol an adapter speaks.
type Kind string

const (
	KindOpenAISDK    Kind = "openai-sdk"
	KindGeminiSDK    Kind = "gemini-sdk"
	KindOpenAISSE    Kind = "openai-sse"
	KindAnthropicSSE Kind = "anthropic-sse"
	KindCohereSSE    Kind = "cohere-sse"
)

// Prompt is the provider neutral input of one generation.
type Prompt struct {
	System      string
	Messages    []domain.Message
	Temperature float32
	MaxTokens   int
}

// Fragment is one incremental piece of model output. Done marks the end of
// the stream; a Done fragment may still carry text.
type Fragment struct {
	Text string
	Done bool
}

// FragmentStream yields fragments in arrival order. Recv returns io.EOF once
// the stream is exhausted.
type FragmentStream interface {
	Recv() (Fragment, error)
	Close() error
}

// Adapter turns a Prompt into a FragmentStream for one provider.
type Adapter interface {
	Kind() Kind
	Stream(ctx context.Context, model string, prompt Prompt) (FragmentStream, error)
}

// Route binds a public model id to an adapter and the upstream model name.
type Route struct {
	ModelID       string
	UpstreamModel string
	Adapter       Adapter
}

// AdapterOptions carries what every adapter needs to reach its provider.
type AdapterOptions struct {
	Provider   configdomain.ProviderConfig
	APIKey     string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// AdapterFactory builds the adapter for a provider entry.
type AdapterFactory func(opts AdapterOptions) (Adapter, error)

// DefaultFactories maps every supported kind to its adapter constructor.
func DefaultFactories() map[Kind]AdapterFactory {
	return map[Kind]AdapterFactory{
		KindOpenAISDK:    NewOpenAIAdapter,
		KindGeminiSDK:    NewGeminiAdapter,
		KindOpenAISSE:    NewOpenAICompatAdapter,
		KindAnthropicSSE: NewAnthropicAdapter,
		KindCohereSSE:    NewCohereAdapter,
	}
}

// Registry resolves model ids to routes. It is built once at startup and is
// read-only afterwards.
type Registry struct {
	routes map[string]Route
	order  []string
}

// RegistryOptions configures NewRegistry. Nil fields get process defaults.
type RegistryOptions struct {
	Factories  map[Kind]AdapterFactory
	LookupEnv  func(string) string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// NewRegistry builds a route for every enabled provider. Missing credentials
// do not fail construction; the adapter reports them when invoked.
func NewRegistry(providers []configdomain.ProviderConfig, opts RegistryOptions) (*Registry, error) {
	if opts.Factories == nil {
		opts.Factories = DefaultFactories()
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.Getenv
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	r := &Registry{routes: make(map[string]Route, len(providers))}
	for _, p := range providers {
		if !p.Enabled {
			continue
		}
		factory, ok := opts.Factories[Kind(p.Kind)]
		if !ok {
			return nil, fmt.Errorf("model %s: unknown provider kind %q", p.ModelID, p.Kind)
		}
		apiKey := ""
		if p.CredentialEnv != "" {
			apiKey = opts.LookupEnv(p.CredentialEnv)
		}
		adapter, err := factory(AdapterOptions{
			Provider:   p,
			APIKey:     apiKey,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger.With().Str("provider", p.Kind).Str("model", p.ModelID).Logger(),
		})
		if err != nil {
			return nil, fmt.Errorf("model %s: failed to build %s adapter: %w", p.ModelID, p.Kind, err)
		}
		r.routes[p.ModelID] = Route{ModelID: p.ModelID, UpstreamModel: p.Upstream(), Adapter: adapter}
		r.order = append(r.order, p.ModelID)
	}
	return r, nil
}

// Lookup returns the route for modelID or an UnsupportedModelError.
func (r *Registry) Lookup(modelID string) (Route, error) {
	route, ok := r.routes[modelID]
	if !ok {
		return Route{}, &domain.UnsupportedModelError{Model: modelID, Supported: r.Models()}
	}
	return route, nil
}

// Models lists the supported model ids in catalog order.
func (r *Registry) Models() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Kinds lists the distinct adapter kinds in use, sorted.
func (r *Registry) Kinds() []Kind {
	seen := map[Kind]struct{}{}
	for _, route := range r.routes {
		seen[route.Adapter.Kind()] = struct{}{}
	}
	out := make([]Kind, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func missingCredential(opts AdapterOptions) error {
	return &domain.MissingCredentialError{Provider: opts.Provider.Kind, EnvVar: opts.Provider.CredentialEnv}
}
