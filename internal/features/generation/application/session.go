package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"codecraft/backend/internal/features/generation/domain"
	previewdomain "codecraft/backend/internal/features/preview/domain"
	projectsapp "codecraft/backend/internal/features/projects/application"
	projectsdomain "codecraft/backend/internal/features/projects/domain"
)

// ErrNothingToFix is returned by Fix when no diagnostic was given and the last
// preview rendered.
var ErrNothingToFix = errors.New("no preview failure to fix")

// Renderer renders an artifact for preview.
type Renderer interface {
	Render(ctx context.Context, code string) previewdomain.Result
}

// SessionOptions configures NewSession.
type SessionOptions struct {
	Model        string
	Prompts      PromptBuilder
	Timeout      time.Duration
	AutoFixLimit int
	BaseContext  context.Context
	Renderer     Renderer
	Projects     projectsapp.ProjectStore
	Logger       zerolog.Logger
}

// SessionSnapshot is the public view of a session.
type SessionSnapshot struct {
	ID          string                `json:"id"`
	CreatedAt   time.Time             `json:"created_at"`
	Preview     *previewdomain.Result `json:"preview,omitempty"`
	AutoFixUsed int                   `json:"auto_fix_used"`
	OrchestratorState
}

// Session ties one orchestrator to preview rendering, automatic fixes and the
// project history.
type Session struct {
	ID        string
	CreatedAt time.Time

	orch         *Orchestrator
	renderer     Renderer
	projects     projectsapp.ProjectStore
	autoFixLimit int
	baseCtx      context.Context
	logger       zerolog.Logger

	pending   chan domain.Artifact
	closed    chan struct{}
	closeOnce sync.Once

	mu             sync.Mutex
	lastPreview    *previewdomain.Result
	autoFixUsed    int
	autoFixRunning bool
}

// NewSession creates an idle session.
func NewSession(id string, generator Generator, opts SessionOptions) *Session {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	if opts.Projects == nil {
		opts.Projects = projectsapp.NewProjectStore(0)
	}
	logger := opts.Logger.With().Str("session_id", id).Logger()
	s := &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		renderer:     opts.Renderer,
		projects:     opts.Projects,
		autoFixLimit: opts.AutoFixLimit,
		baseCtx:      opts.BaseContext,
		logger:       logger,
		pending:      make(chan domain.Artifact, 1),
		closed:       make(chan struct{}),
	}
	s.orch = NewOrchestrator(generator, OrchestratorOptions{
		Model:       opts.Model,
		Prompts:     opts.Prompts,
		Timeout:     opts.Timeout,
		BaseContext: opts.BaseContext,
		OnComplete:  s.handleOutcome,
		OnSnapshot:  s.queuePreview,
		Logger:      logger,
	})
	if s.renderer != nil {
		go s.previewLoop()
	}
	return s
}

// Orchestrator exposes the session's generation state machine.
func (s *Session) Orchestrator() *Orchestrator { return s.orch }

// Projects exposes the session's project history.
func (s *Session) Projects() projectsapp.ProjectStore { return s.projects }

// Submit starts a new conversation.
func (s *Session) Submit(model, prompt string) error {
	return s.orch.Submit(model, prompt)
}

// Fix regenerates with diagnostic, or with the last preview failure when
// diagnostic is empty.
func (s *Session) Fix(diagnostic string) error {
	if diagnostic == "" {
		s.mu.Lock()
		if s.lastPreview != nil && s.lastPreview.Failure != nil {
			diagnostic = s.lastPreview.Failure.Message
		}
		s.mu.Unlock()
		if diagnostic == "" {
			return ErrNothingToFix
		}
	}
	return s.orch.FixError(diagnostic)
}

// Retry regenerates from the original prompt.
func (s *Session) Retry() error {
	return s.orch.Retry()
}

// FollowUp continues the conversation.
func (s *Session) FollowUp(prompt string) error {
	return s.orch.FollowUp(prompt)
}

// Cancel aborts the run in flight.
func (s *Session) Cancel() { s.orch.Cancel() }

// Wait blocks until the session is quiescent, automatic fixes included.
func (s *Session) Wait(ctx context.Context) error { return s.orch.Wait(ctx) }

// Subscribe streams session events until ctx is done.
func (s *Session) Subscribe(ctx context.Context) <-chan Event {
	return s.orch.Broker().Subscribe(ctx)
}

// Close cancels any run and ends every subscription.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
	s.orch.Cancel()
	s.orch.Broker().Close()
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Preview renders the current artifact and records the result.
func (s *Session) Preview(ctx context.Context) (previewdomain.Result, error) {
	art := s.orch.Artifact()
	if art.Code == "" {
		return previewdomain.Result{}, domain.ErrInvalidTransition
	}
	return s.render(ctx, art), nil
}

// Snapshot returns the public view of the session.
func (s *Session) Snapshot() SessionSnapshot {
	st := s.orch.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		ID:                s.ID,
		CreatedAt:         s.CreatedAt,
		Preview:           s.lastPreview,
		AutoFixUsed:       s.autoFixUsed,
		OrchestratorState: st,
	}
}

// render previews art. A result older than the recorded preview is returned
// but neither recorded nor published.
func (s *Session) render(ctx context.Context, art domain.Artifact) previewdomain.Result {
	if s.renderer == nil {
		return previewdomain.Result{Version: art.Version}
	}
	res := s.renderer.Render(ctx, art.Code)
	res.Version = art.Version
	s.mu.Lock()
	if s.lastPreview != nil && s.lastPreview.Version > res.Version {
		s.mu.Unlock()
		return res
	}
	s.lastPreview = &res
	s.mu.Unlock()
	s.orch.Broker().Publish(Event{Type: EventPreview, Preview: &res})
	return res
}

// queuePreview hands a streamed artifact to the preview loop, replacing any
// artifact still waiting.
func (s *Session) queuePreview(art domain.Artifact) {
	if s.renderer == nil || art.Code == "" {
		return
	}
	for {
		select {
		case s.pending <- art:
			return
		default:
		}
		select {
		case <-s.pending:
		default:
		}
	}
}

// previewLoop renders streamed artifacts one at a time, skipping any that a
// newer artifact has already replaced.
func (s *Session) previewLoop() {
	for {
		select {
		case <-s.closed:
			return
		case <-s.baseCtx.Done():
			return
		case art := <-s.pending:
			if s.current(art) {
				s.render(s.baseCtx, art)
			}
		}
	}
}

// current reports whether art is still the artifact in place.
func (s *Session) current(art domain.Artifact) bool {
	return s.orch.Artifact().Version == art.Version
}

// handleOutcome runs after every generation. It saves the project, renders the
// new artifact and starts an automatic fix while the budget allows. The budget
// resets whenever a run that was not an automatic fix completes. Outcomes
// already replaced by a newer run are saved but not rendered.
func (s *Session) handleOutcome(out Outcome) {
	s.mu.Lock()
	if !s.autoFixRunning {
		s.autoFixUsed = 0
	}
	s.autoFixRunning = false
	s.mu.Unlock()

	if out.Err != nil {
		if out.Artifact.Code != "" && s.current(out.Artifact) {
			s.render(s.baseCtx, out.Artifact)
		}
		return
	}
	st := s.orch.State()
	if _, saved := s.projects.Save(projectsdomain.Draft{Code: out.Artifact.Code, Prompt: st.Prompt, Model: st.Model}); saved {
		s.logger.Debug().Int64("version", out.Artifact.Version).Msg("project saved")
	}

	// A run started since this one finished owns the preview now.
	if !s.current(out.Artifact) {
		s.logger.Debug().Int64("version", out.Artifact.Version).Msg("outcome superseded, preview skipped")
		return
	}
	res := s.render(s.baseCtx, out.Artifact)
	if res.OK() {
		return
	}

	s.mu.Lock()
	if s.autoFixUsed >= s.autoFixLimit {
		s.mu.Unlock()
		s.logger.Info().Str("error", res.Failure.Message).Msg("preview failed, automatic fix budget spent")
		return
	}
	s.autoFixUsed++
	s.autoFixRunning = true
	attempt := s.autoFixUsed
	s.mu.Unlock()

	s.logger.Info().Int("attempt", attempt).Str("error", res.Failure.Message).Msg("preview failed, starting automatic fix")
	s.orch.Broker().Publish(Event{Type: EventAutoFix, Message: res.Failure.Message})
	if err := s.orch.FixError(res.Failure.Message); err != nil {
		s.logger.Warn().Err(err).Msg("automatic fix could not start")
		s.mu.Lock()
		s.autoFixRunning = false
		s.mu.Unlock()
	}
}
