package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"codecraft/backend/internal/features/generation/domain"
	"codecraft/backend/internal/features/generation/infrastructure"
)

// Transition names the action that started a generation run.
type Transition string

const (
	TransitionSubmit   Transition = "submit"
	TransitionFix      Transition = "fix"
	TransitionRetry    Transition = "retry"
	TransitionFollowUp Transition = "followup"
)

// Generator is the part of GenerationService the orchestrator drives.
type Generator interface {
	Check(req domain.GenerationRequest) error
	Generate(ctx context.Context, req domain.GenerationRequest) (infrastructure.FragmentStream, error)
}

// Outcome reports how a run ended. Artifact is the artifact in place after the
// run: the new code on success, the restored one on failure.
type Outcome struct {
	Transition Transition
	Artifact   domain.Artifact
	Err        error
}

// OrchestratorOptions configures NewOrchestrator.
type OrchestratorOptions struct {
	Model   string
	Prompts PromptBuilder
	// Timeout bounds one run. Zero disables the bound.
	Timeout time.Duration
	// BaseContext parents every run. Cancelling it cancels the run in flight.
	BaseContext context.Context
	Broker      *Broker
	// OnComplete is called after every run, outside the state lock.
	OnComplete func(Outcome)
	// OnSnapshot is called with every streamed, sanitized artifact.
	OnSnapshot func(domain.Artifact)
	Logger     zerolog.Logger
}

// OrchestratorState is a consistent copy of the orchestrator state.
type OrchestratorState struct {
	Status    domain.Status    `json:"status"`
	Model     string           `json:"model"`
	Prompt    string           `json:"prompt"`
	Artifact  domain.Artifact  `json:"artifact"`
	History   []domain.Message `json:"history"`
	LastError string           `json:"last_error,omitempty"`
}

type run struct {
	transition Transition
	done       chan struct{}
	cancel     context.CancelFunc
}

// Orchestrator owns the conversation state of one session and drives at most
// one generation at a time. Readers get the artifact lock free.
type Orchestrator struct {
	generator  Generator
	prompts    PromptBuilder
	timeout    time.Duration
	baseCtx    context.Context
	broker     *Broker
	onComplete func(Outcome)
	onSnapshot func(domain.Artifact)
	logger     zerolog.Logger

	version  atomic.Int64
	artifact atomic.Pointer[domain.Artifact]

	mu       sync.Mutex
	status   domain.Status
	model    string
	prompt   string
	history  []domain.Message
	lastGood *domain.Artifact
	lastErr  error
	running  *run
}

// NewOrchestrator creates an idle orchestrator with an empty artifact.
func NewOrchestrator(generator Generator, opts OrchestratorOptions) *Orchestrator {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	if opts.Broker == nil {
		opts.Broker = NewBroker()
	}
	o := &Orchestrator{
		generator:  generator,
		prompts:    opts.Prompts,
		timeout:    opts.Timeout,
		baseCtx:    opts.BaseContext,
		broker:     opts.Broker,
		onComplete: opts.OnComplete,
		onSnapshot: opts.OnSnapshot,
		logger:     opts.Logger,
		status:     domain.StatusIdle,
		model:      opts.Model,
	}
	o.artifact.Store(&domain.Artifact{})
	return o
}

// SetOnComplete replaces the completion hook. It must be called before the
// first transition.
func (o *Orchestrator) SetOnComplete(fn func(Outcome)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onComplete = fn
}

// Submit starts a new conversation from prompt. An empty model keeps the
// current one.
func (o *Orchestrator) Submit(model, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return &domain.ValidationError{Field: "prompt", Msg: "prompt is required"}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.InFlight() {
		return domain.ErrBusy
	}
	if model == "" {
		model = o.model
	}
	conv := []domain.Message{{Role: domain.RoleUser, Content: prompt}}
	return o.startLocked(TransitionSubmit, model, prompt, conv)
}

// FixError regenerates with the rendering diagnostic appended to the history.
func (o *Orchestrator) FixError(diagnostic string) error {
	diagnostic = strings.TrimSpace(diagnostic)
	if diagnostic == "" {
		return &domain.ValidationError{Field: "error", Msg: "diagnostic text is required"}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.canRegenerateLocked(); err != nil {
		return err
	}
	conv := append(domain.CloneMessages(o.history), domain.Message{Role: domain.RoleUser, Content: o.prompts.FixMessage(diagnostic)})
	return o.startLocked(TransitionFix, o.model, o.prompt, conv)
}

// Retry regenerates from the original prompt, discarding the history.
func (o *Orchestrator) Retry() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.canRegenerateLocked(); err != nil {
		return err
	}
	conv := []domain.Message{{Role: domain.RoleUser, Content: o.prompts.RetryMessage(o.prompt)}}
	return o.startLocked(TransitionRetry, o.model, o.prompt, conv)
}

// FollowUp continues the conversation with a new instruction.
func (o *Orchestrator) FollowUp(prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return &domain.ValidationError{Field: "prompt", Msg: "prompt is required"}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.canRegenerateLocked(); err != nil {
		return err
	}
	conv := append(domain.CloneMessages(o.history), domain.Message{Role: domain.RoleUser, Content: prompt})
	return o.startLocked(TransitionFollowUp, o.model, o.prompt, conv)
}

// Cancel aborts the run in flight, if any. The run ends as a failure.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running != nil {
		o.running.cancel()
	}
}

// Wait blocks until no run is in flight, including runs started by the
// completion hook.
func (o *Orchestrator) Wait(ctx context.Context) error {
	for {
		o.mu.Lock()
		r := o.running
		o.mu.Unlock()
		if r == nil {
			return nil
		}
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Artifact returns the current artifact without taking the state lock.
func (o *Orchestrator) Artifact() domain.Artifact {
	return *o.artifact.Load()
}

// Status returns the current status.
func (o *Orchestrator) Status() domain.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Model returns the model the next run will use.
func (o *Orchestrator) Model() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.model
}

// State returns a consistent snapshot of the orchestrator.
func (o *Orchestrator) State() OrchestratorState {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := OrchestratorState{
		Status:   o.status,
		Model:    o.model,
		Prompt:   o.prompt,
		Artifact: o.Artifact(),
		History:  domain.CloneMessages(o.history),
	}
	if o.lastErr != nil {
		st.LastError = o.lastErr.Error()
	}
	return st
}

// Broker returns the event broker runs publish to.
func (o *Orchestrator) Broker() *Broker {
	return o.broker
}

func (o *Orchestrator) canRegenerateLocked() error {
	if o.status.InFlight() {
		return domain.ErrBusy
	}
	if o.status != domain.StatusReady || len(o.history) == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// startLocked validates the request, empties the artifact and launches the
// run. The caller holds o.mu.
func (o *Orchestrator) startLocked(t Transition, model, prompt string, conv []domain.Message) error {
	req := domain.GenerationRequest{Model: model, Messages: conv}
	if err := o.generator.Check(req); err != nil {
		return err
	}

	from := o.status
	next := domain.StatusRegenerating
	if t == TransitionSubmit {
		next = domain.StatusGenerating
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(o.baseCtx, o.timeout)
	} else {
		ctx, cancel = context.WithCancel(o.baseCtx)
	}
	r := &run{transition: t, done: make(chan struct{}), cancel: cancel}
	o.running = r
	o.status = next
	o.storeArtifact("", false)
	o.broker.Publish(Event{Type: EventStatus, Status: next})

	o.logger.Info().
		Str("transition", string(t)).
		Str("model", model).
		Str("from", string(from)).
		Int("messages", len(conv)).
		Msg("generation started")

	go o.execute(ctx, r, from, req, prompt)
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run, from domain.Status, req domain.GenerationRequest, prompt string) {
	defer func() {
		r.cancel()
		o.mu.Lock()
		if o.running == r {
			o.running = nil
		}
		o.mu.Unlock()
		close(r.done)
	}()

	started := time.Now()
	raw, err := o.stream(ctx, req)
	outcome := o.finish(r.transition, from, req, prompt, raw, err)

	evt := o.logger.Info()
	if outcome.Err != nil {
		evt = o.logger.Warn().Err(outcome.Err)
	}
	evt.Str("transition", string(r.transition)).
		Dur("elapsed", time.Since(started)).
		Int("code_len", len(outcome.Artifact.Code)).
		Msg("generation finished")

	o.mu.Lock()
	hook := o.onComplete
	o.mu.Unlock()
	if hook != nil {
		hook(outcome)
	}
}

func (o *Orchestrator) stream(ctx context.Context, req domain.GenerationRequest) (string, error) {
	stream, err := o.generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	defer stream.Close()
	raw, err := Aggregate(ctx, stream, func(snapshot string) {
		art := o.storeArtifact(Sanitize(snapshot), false)
		if o.onSnapshot != nil {
			o.onSnapshot(*art)
		}
	})
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return raw, fmt.Errorf("generation timed out after %s: %w", o.timeout, err)
	}
	return raw, err
}

func (o *Orchestrator) finish(t Transition, from domain.Status, req domain.GenerationRequest, prompt, raw string, err error) Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err == nil {
		code := Sanitize(raw)
		if code == "" {
			err = domain.ErrEmptyGeneration
		} else {
			art := o.storeArtifact(code, true)
			o.lastGood = art
			o.lastErr = nil
			o.history = append(domain.CloneMessages(req.Messages), domain.Message{Role: domain.RoleAssistant, Content: code})
			o.model = req.Model
			o.prompt = prompt
			o.status = domain.StatusReady
			o.broker.Publish(Event{Type: EventStatus, Status: o.status})
			return Outcome{Transition: t, Artifact: *art}
		}
	}

	o.status = from
	o.lastErr = err
	var restored *domain.Artifact
	if o.lastGood != nil {
		restored = o.storeArtifact(o.lastGood.Code, true)
		o.lastGood = restored
	} else {
		restored = o.storeArtifact("", false)
	}
	o.broker.Publish(Event{Type: EventError, Message: err.Error()})
	o.broker.Publish(Event{Type: EventStatus, Status: o.status})
	return Outcome{Transition: t, Artifact: *restored, Err: err}
}

// storeArtifact replaces the artifact with a new version. Only the single
// active writer calls it.
func (o *Orchestrator) storeArtifact(code string, final bool) *domain.Artifact {
	art := &domain.Artifact{Version: o.version.Add(1), Code: code, Final: final}
	o.artifact.Store(art)
	o.broker.Publish(Event{Type: EventArtifact, Artifact: art})
	return art
}
