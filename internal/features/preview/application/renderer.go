package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"codecraft/backend/internal/features/preview/domain"
	"codecraft/backend/internal/features/preview/infrastructure"
)

// Transpiler compiles component source into a runnable module.
type Transpiler interface {
	Transpile(source string) (string, error)
}

// Sandbox renders a compiled module.
type Sandbox interface {
	Run(ctx context.Context, module string) (infrastructure.RenderOutput, error)
}

// Renderer turns generated code into a preview result.
type Renderer struct {
	transpiler Transpiler
	sandbox    Sandbox
	logger     zerolog.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(transpiler Transpiler, sandbox Sandbox, logger zerolog.Logger) *Renderer {
	return &Renderer{transpiler: transpiler, sandbox: sandbox, logger: logger.With().Str("component", "preview").Logger()}
}

// Render never returns an error: every failure is reported in Result.Failure.
func (r *Renderer) Render(ctx context.Context, code string) (res domain.Result) {
	start := time.Now()
	res.Warnings = Analyze(code)
	defer func() {
		res.DurationMillis = time.Since(start).Milliseconds()
	}()

	if strings.TrimSpace(code) == "" {
		res.Failure = &domain.PreviewFailure{Stage: domain.StageTranspile, Message: "There is no code to preview."}
		return res
	}

	module, err := r.transpiler.Transpile(code)
	if err != nil {
		res.Failure = failureFrom(err, domain.StageTranspile)
		r.log(res)
		return res
	}

	out, err := r.sandbox.Run(ctx, module)
	res.Logs = out.Logs
	if err != nil {
		res.Failure = failureFrom(err, domain.StageRuntime)
		r.log(res)
		return res
	}
	res.HTML = out.HTML
	return res
}

func (r *Renderer) log(res domain.Result) {
	r.logger.Debug().
		Str("stage", string(res.Failure.Stage)).
		Str("error", res.Failure.Message).
		Msg("preview failed")
}

func failureFrom(err error, fallback domain.Stage) *domain.PreviewFailure {
	var re *infrastructure.RenderError
	if errors.As(err, &re) {
		return re.Failure()
	}
	return &domain.PreviewFailure{Stage: fallback, Message: err.Error()}
}
