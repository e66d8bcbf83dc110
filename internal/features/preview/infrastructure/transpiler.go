package infrastructure

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"

	"codecraft/backend/internal/features/preview/domain"
)

// RenderError is a preview failure raised by the transpiler or the sandbox.
type RenderError struct {
	Stage   domain.Stage
	Message string
	Line    int
	Column  int
}

func (e *RenderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s error at %d:%d: %s", e.Stage, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Stage, e.Message)
}

// Failure converts the error into the diagnostic handed back to the model.
func (e *RenderError) Failure() *domain.PreviewFailure {
	msg := e.Message
	if e.Stage == domain.StageTranspile && e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Line, e.Column)
	}
	return &domain.PreviewFailure{Message: msg, Stage: e.Stage, Line: e.Line, Column: e.Column}
}

// Transpiler compiles a TSX component into a CommonJS module.
type Transpiler struct{}

// Transpile uses the automatic JSX runtime, so components need not import React.
func (Transpiler) Transpile(source string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:          api.LoaderTSX,
		Format:          api.FormatCommonJS,
		Target:          api.ES2017,
		JSX:             api.JSXAutomatic,
		JSXImportSource: "react",
		Sourcefile:      "App.tsx",
		LogLevel:        api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		re := &RenderError{Stage: domain.StageTranspile, Message: msg.Text}
		if msg.Location != nil {
			re.Line = msg.Location.Line
			re.Column = msg.Location.Column + 1
		}
		return "", re
	}
	return string(result.Code), nil
}
