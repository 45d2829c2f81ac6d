package generator

import (
	"context"
	"fmt"
)

// Options selects and configures a provider
type Options struct {
	Provider    Provider
	OpenAIKey   string
	OpenAIModel string
	GeminiKey   string
	GeminiModel string
	Origin      Origin
}

// New builds the generator for opts.Provider
func New(ctx context.Context, opts Options) (Generator, error) {
	switch opts.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIGenerator(OpenAIConfig{
			APIKey: opts.OpenAIKey,
			Model:  opts.OpenAIModel,
			Origin: opts.Origin,
		})
	case ProviderGemini:
		return NewGeminiGenerator(ctx, GeminiConfig{
			APIKey: opts.GeminiKey,
			Model:  opts.GeminiModel,
			Origin: opts.Origin,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, opts.Provider)
	}
}
