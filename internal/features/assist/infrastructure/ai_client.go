package infrastructure

import "context"

// PromptEnhancer rewrites a prompt under a system instruction.
type PromptEnhancer interface {
	Enhance(ctx context.Context, system, prompt string) (string, error)
}

// ImageAnalyzer describes an image in text.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, instruction, imageURL string) (string, error)
}
