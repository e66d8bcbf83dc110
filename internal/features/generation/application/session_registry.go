package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"codecraft/backend/internal/features/generation/domain"
	projectsapp "codecraft/backend/internal/features/projects/application"
)

// SessionRegistryOptions configures NewSessionRegistry.
type SessionRegistryOptions struct {
	Size         int
	TTL          time.Duration
	Timeout      time.Duration
	AutoFixLimit int
	Renderer     Renderer
	BaseContext  context.Context
	Logger       zerolog.Logger
}

// SessionRegistry holds live sessions. The least recently used session is
// evicted when the registry is full, and idle sessions expire after the TTL.
// Every Get restarts a session's TTL.
type SessionRegistry struct {
	service GenerationService
	opts    SessionRegistryOptions
	cache   *expirable.LRU[string, *Session]
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(service GenerationService, opts SessionRegistryOptions) *SessionRegistry {
	if opts.Size <= 0 {
		opts.Size = 256
	}
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	logger := opts.Logger
	onEvict := func(id string, s *Session) {
		logger.Debug().Str("session_id", id).Msg("session evicted")
		s.Close()
	}
	return &SessionRegistry{
		service: service,
		opts:    opts,
		cache:   expirable.NewLRU[string, *Session](opts.Size, onEvict, opts.TTL),
	}
}

// Create starts an idle session bound to model. An empty model uses the first
// model in the catalog.
func (r *SessionRegistry) Create(model string) (*Session, error) {
	if model == "" {
		models := r.service.Models()
		if len(models) == 0 {
			return nil, &domain.UnsupportedModelError{}
		}
		model = models[0]
	}
	check := domain.GenerationRequest{Model: model, Messages: []domain.Message{{Role: domain.RoleUser, Content: "model check"}}}
	if err := r.service.Check(check); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := NewSession(id, r.service, SessionOptions{
		Model:        model,
		Prompts:      r.service.Prompts(),
		Timeout:      r.opts.Timeout,
		AutoFixLimit: r.opts.AutoFixLimit,
		BaseContext:  r.opts.BaseContext,
		Renderer:     r.opts.Renderer,
		Projects:     projectsapp.NewProjectStore(0),
		Logger:       r.opts.Logger,
	})
	r.cache.Add(id, s)
	r.opts.Logger.Info().Str("session_id", id).Str("model", model).Msg("session created")
	return s, nil
}

// Get returns a live session and restarts its TTL.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	s, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	r.cache.Add(id, s)
	// Expired between the two calls: Add put a closed session back.
	if s.isClosed() {
		r.cache.Remove(id)
		return nil, false
	}
	return s, true
}

// Remove closes and forgets a session.
func (r *SessionRegistry) Remove(id string) bool {
	return r.cache.Remove(id)
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	return r.cache.Len()
}

// Close closes every session.
func (r *SessionRegistry) Close() {
	r.cache.Purge()
}
