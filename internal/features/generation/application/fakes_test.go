package application

import (
	"context"
	"io"
	"sync"

	configdomain "codecraft/backend/internal/features/config/domain"
	"codecraft/backend/internal/features/generation/domain"
	"codecraft/backend/internal/features/generation/infrastructure"
)

// script is one scripted generation. gate, when set, holds the first fragment
// until it is closed; hold does the same for the end of the stream. block
// makes the stream wait for cancellation.
type script struct {
	fragments []string
	openErr   error
	streamErr error
	gate      chan struct{}
	hold      chan struct{}
	block     bool
}

type fakeGenerator struct {
	mu       sync.Mutex
	scripts  []script
	requests []domain.GenerationRequest
	models   map[string]bool
}

func newFakeGenerator(scripts ...script) *fakeGenerator {
	return &fakeGenerator{scripts: scripts, models: map[string]bool{"m": true, "m2": true}}
}

func (g *fakeGenerator) Check(req domain.GenerationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !g.models[req.Model] {
		return &domain.UnsupportedModelError{Model: req.Model, Supported: []string{"m", "m2"}}
	}
	return nil
}

func (g *fakeGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (infrastructure.FragmentStream, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	var sc script
	if len(g.scripts) > 0 {
		sc = g.scripts[0]
		if len(g.scripts) > 1 {
			g.scripts = g.scripts[1:]
		}
	}
	g.mu.Unlock()

	if sc.openErr != nil {
		return nil, sc.openErr
	}
	return &fakeStream{ctx: ctx, sc: sc}, nil
}

func (g *fakeGenerator) Models() []string { return []string{"m", "m2"} }

func (g *fakeGenerator) Prompts() PromptBuilder { return NewPromptBuilder(configdomain.AppConfig{}) }

func (g *fakeGenerator) calls() []domain.GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.GenerationRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

type fakeStream struct {
	ctx    context.Context
	sc     script
	i      int
	waited bool
	held   bool
}

func (s *fakeStream) Recv() (infrastructure.Fragment, error) {
	if s.sc.gate != nil && !s.waited {
		s.waited = true
		select {
		case <-s.sc.gate:
		case <-s.ctx.Done():
			return infrastructure.Fragment{}, s.ctx.Err()
		}
	}
	if s.sc.block {
		<-s.ctx.Done()
		return infrastructure.Fragment{}, &domain.TransportError{Provider: "fake", Err: s.ctx.Err()}
	}
	if s.i < len(s.sc.fragments) {
		f := infrastructure.Fragment{Text: s.sc.fragments[s.i]}
		s.i++
		return f, nil
	}
	if s.sc.hold != nil && !s.held {
		s.held = true
		select {
		case <-s.sc.hold:
		case <-s.ctx.Done():
			return infrastructure.Fragment{}, s.ctx.Err()
		}
	}
	if s.sc.streamErr != nil {
		return infrastructure.Fragment{}, s.sc.streamErr
	}
	return infrastructure.Fragment{}, io.EOF
}

func (s *fakeStream) Close() error { return nil }

var _ GenerationService = (*fakeGenerator)(nil)
