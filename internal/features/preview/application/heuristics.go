package application

import (
	"regexp"

	"codecraft/backend/internal/features/preview/domain"
)

type heuristic struct {
	rule    string
	pattern *regexp.Regexp
	message string
}

// Patterns that commonly lead to render loops or crashes in generated code.
var heuristics = []heuristic{
	{
		rule:    "set-state-call",
		pattern: regexp.MustCompile(`\bsetState\s*\(`),
		message: "setState is called directly. Calling it during render causes an infinite re-render loop.",
	},
	{
		rule:    "effect-without-deps",
		pattern: regexp.MustCompile(`useEffect\s*\(\s*(?:\(\s*\)|async\s*\(\s*\))\s*=>\s*\{[^{}]*\}\s*\)`),
		message: "useEffect has no dependency array and runs after every render. Setting state inside it loops forever.",
	},
	{
		rule:    "component-did-update",
		pattern: regexp.MustCompile(`(?i)componentDidUpdate\s*\(`),
		message: "componentDidUpdate that sets state without a guard loops forever.",
	},
	{
		rule:    "component-will-update",
		pattern: regexp.MustCompile(`(?i)componentWillUpdate\s*\(`),
		message: "componentWillUpdate is deprecated and setting state inside it loops forever.",
	},
	{
		rule:    "window-at-module-scope",
		pattern: regexp.MustCompile(`(?m)^(?:const|let|var)\s+\w+\s*=\s*(?:window|document)\.`),
		message: "Browser globals are read at module scope. Read them inside an effect instead.",
	},
}

// Analyze returns a warning for every heuristic that matches code.
func Analyze(code string) []domain.Warning {
	var warnings []domain.Warning
	for _, h := range heuristics {
		if h.pattern.MatchString(code) {
			warnings = append(warnings, domain.Warning{Rule: h.rule, Message: h.message})
		}
	}
	return warnings
}
