package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/aretw0/infrascope/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.ArtifactStore
	patterns []*regexp.Regexp
}

// NewRedaction creates a middleware that masks the values of keys matching
// any pattern, at any depth, before the artifact is saved. The caller's
// artifact is left untouched.
func NewRedaction(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.ArtifactStore) ports.ArtifactStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, runID string, artifact domain.Artifact) error {
	masked, _ := m.mask(map[string]any(artifact)).(map[string]any)
	return m.next.Save(ctx, runID, masked)
}

func (m *redactMiddleware) Load(ctx context.Context, runID string) (domain.Artifact, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask returns a copy of v with matching keys masked.
func (m *redactMiddleware) mask(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if m.matches(k) {
				out[k] = Mask
				continue
			}
			out[k] = m.mask(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = m.mask(val)
		}
		return out
	default:
		return v
	}
}

func (m *redactMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
