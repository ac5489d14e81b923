package ai

import (
	"context"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultTemperature = 0.2
	DefaultMaxTokens   = 4096
	DefaultTimeout     = 90 * time.Second
)

// Options carries the sampling parameters every completion backend honours.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// WithDefaults fills unset options with the low-temperature defaults used for assessments.
// A negative Temperature counts as unset. Zero is kept and asks for deterministic sampling.
func (o Options) WithDefaults() Options {
	if o.Temperature < 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// Completer sends a single prompt to a language model and returns its textual reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

// CompleterFunc adapts a plain function to Completer. It is mostly useful in tests.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func (f CompleterFunc) Provider() string { return "func" }

func (f CompleterFunc) Model() string { return "" }
