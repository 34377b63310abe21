// Package llm wraps the text-generation backend behind a narrow interface
// and provides the tolerant decoder for model output. Stage code depends on
// Generator only; the concrete client is wired at startup.
package llm

import "context"

// Generator produces free text from a system instruction and a context
// document. Implementations must return a *GenerationError on transport
// failure so callers can tell an unreachable backend from malformed output.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GenerationError marks a transport-level failure of the generation backend.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return "generate " + e.Op + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Func adapts a plain function to Generator. Used by tests and calibration
// stubs.
type Func func(ctx context.Context, system, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}
