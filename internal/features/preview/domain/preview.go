package domain

// Stage identifies where a preview failed.
type Stage string

const (
	StageTranspile Stage = "transpile"
	StageRuntime   Stage = "runtime"
	StageTimeout   Stage = "timeout"
)

// PreviewFailure is the diagnostic raised when generated code cannot render.
type PreviewFailure struct {
	Message string `json:"message"`
	Stage   Stage  `json:"stage"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Warning flags a pattern that often breaks rendering.
type Warning struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result is the outcome of rendering one artifact.
type Result struct {
	Version        int64           `json:"version"`
	HTML           string          `json:"html,omitempty"`
	Failure        *PreviewFailure `json:"failure,omitempty"`
	Warnings       []Warning       `json:"warnings,omitempty"`
	Logs           []string        `json:"logs,omitempty"`
	DurationMillis int64           `json:"duration_ms"`
}

// OK reports whether the artifact rendered.
func (r Result) OK() bool {
	return r.Failure == nil
}
