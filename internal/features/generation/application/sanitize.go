package application

import (
	"regexp"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```[A-Za-z]*[ \\t]*\\r?\\n(.*?)```")
	openFence   = regexp.MustCompile("^```[A-Za-z]*[ \\t]*\\r?\\n")
	// A fence still being streamed: backticks and a language tag, no newline yet.
	partialOpen  = regexp.MustCompile("^(?:```[A-Za-z]*|`{1,2})$")
	partialClose = regexp.MustCompile("(?:^|\\n)[ \\t]*`{1,2}$")
)

// Sanitize extracts the code from model output. It returns the trimmed body of
// the first fenced block, or the trimmed text with an unterminated opening
// fence removed. Fences cut off mid-stream are dropped as well.
// Sanitize(Sanitize(s)) == Sanitize(s) for every s.
func Sanitize(raw string) string {
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	trimmed := strings.TrimSpace(raw)
	if loc := openFence.FindStringIndex(trimmed); loc != nil {
		body := strings.TrimSpace(trimmed[loc[1]:])
		trimmed = strings.TrimSpace(partialClose.ReplaceAllString(body, ""))
	}
	if partialOpen.MatchString(trimmed) {
		return ""
	}
	return trimmed
}
