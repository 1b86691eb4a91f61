package ports

import (
	"context"

	"github.com/aretw0/infrascope/pkg/schema"
)

// Generator is the structured generation client.
// It returns a payload that already conforms to the descriptor's schema,
// or an error wrapping domain.ErrGeneration. Retry policy is its own business.
type Generator interface {
	Generate(ctx context.Context, prompt string, desc schema.Descriptor) (map[string]any, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, desc schema.Descriptor) (map[string]any, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, desc schema.Descriptor) (map[string]any, error) {
	return f(ctx, prompt, desc)
}
