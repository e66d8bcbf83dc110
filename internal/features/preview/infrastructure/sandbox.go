package infrastructure

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"codecraft/backend/internal/features/preview/domain"
)

//go:embed shims/runtime.js
var runtimeSource string

const (
	maxCallStackSize = 2048
	maxLogLines      = 50
)

var errRenderTimeout = errors.New("render timed out")

// Sandbox runs a transpiled component in a fresh JavaScript runtime and
// renders it to static HTML.
type Sandbox struct {
	timeout time.Duration
	runtime *goja.Program
}

// NewSandbox compiles the module runtime once. Each Run gets its own VM.
func NewSandbox(timeout time.Duration) (*Sandbox, error) {
	prog, err := goja.Compile("codecraft-runtime.js", runtimeSource, false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile preview runtime: %w", err)
	}
	return &Sandbox{timeout: timeout, runtime: prog}, nil
}

// RenderOutput is the HTML of a successful render plus captured console output.
type RenderOutput struct {
	HTML string
	Logs []string
}

// Run evaluates module as CommonJS and renders its default export. Rendering
// is interrupted after the sandbox timeout or when ctx is done.
func (s *Sandbox) Run(ctx context.Context, module string) (RenderOutput, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(maxCallStackSize)
	var logs []string
	installConsole(vm, &logs)

	if _, err := vm.RunProgram(s.runtime); err != nil {
		return RenderOutput{}, fmt.Errorf("failed to load preview runtime: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	timer := time.AfterFunc(s.timeout, func() { vm.Interrupt(errRenderTimeout) })
	defer timer.Stop()
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	html, err := s.render(vm, module)
	if err != nil {
		return RenderOutput{Logs: logs}, s.classify(err)
	}
	return RenderOutput{HTML: html, Logs: logs}, nil
}

func (s *Sandbox) render(vm *goja.Runtime, module string) (string, error) {
	wrapped := "(function (module, exports, require, React) {\n" + module + "\n})"
	factory, err := vm.RunScript("App.tsx", wrapped)
	if err != nil {
		return "", err
	}
	call, ok := goja.AssertFunction(factory)
	if !ok {
		return "", errors.New("module wrapper is not callable")
	}

	rt := vm.Get("__codecraft").ToObject(vm)
	moduleObj := vm.NewObject()
	exports := vm.NewObject()
	if err := moduleObj.Set("exports", exports); err != nil {
		return "", err
	}
	if _, err := call(goja.Undefined(), moduleObj, exports, rt.Get("require"), rt.Get("React")); err != nil {
		return "", err
	}

	renderApp, ok := goja.AssertFunction(rt.Get("renderApp"))
	if !ok {
		return "", errors.New("preview runtime has no renderApp")
	}
	out, err := renderApp(goja.Undefined(), moduleObj.Get("exports"))
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func (s *Sandbox) classify(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if interrupted.Value() == errRenderTimeout {
			return &RenderError{
				Stage:   domain.StageTimeout,
				Message: fmt.Sprintf("Rendering did not finish within %s. The component may contain an infinite loop.", s.timeout),
			}
		}
		return &RenderError{Stage: domain.StageTimeout, Message: fmt.Sprintf("Rendering was cancelled: %v", interrupted.Value())}
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		return &RenderError{Stage: domain.StageRuntime, Message: exceptionMessage(exception)}
	}
	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return &RenderError{Stage: domain.StageTranspile, Message: syntax.Error()}
	}
	return &RenderError{Stage: domain.StageRuntime, Message: err.Error()}
}

// exceptionMessage prefers "Name: message" for thrown Error objects.
func exceptionMessage(ex *goja.Exception) string {
	if obj, ok := ex.Value().(*goja.Object); ok {
		msg := obj.Get("message")
		if msg != nil && !goja.IsUndefined(msg) {
			name := "Error"
			if n := obj.Get("name"); n != nil && !goja.IsUndefined(n) {
				name = n.String()
			}
			if name == "Error" {
				return msg.String()
			}
			return name + ": " + msg.String()
		}
	}
	return ex.Value().String()
}

func installConsole(vm *goja.Runtime, logs *[]string) {
	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(level, func(call goja.FunctionCall) goja.Value {
			if len(*logs) >= maxLogLines {
				return goja.Undefined()
			}
			parts := make([]string, 0, len(call.Arguments))
			for _, arg := range call.Arguments {
				parts = append(parts, arg.String())
			}
			*logs = append(*logs, level+": "+strings.Join(parts, " "))
			return goja.Undefined()
		})
	}
	_ = vm.Set("console", console)
}
