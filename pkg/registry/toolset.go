package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/infrascope/pkg/domain"
)

// Source is anything that can look up and invoke tools by name.
// Registry satisfies it, as does the MCP client in pkg/adapters/mcp.
type Source interface {
	Has(name string) bool
	Execute(ctx context.Context, name string, args map[string]any) (any, error)
}

// Capabilities is the typed view of the three tools a run needs.
type Capabilities interface {
	// ReadJSONFile returns the raw JSON text of the named report artifact.
	ReadJSONFile(ctx context.Context, fileName string) (string, error)
	// DetectAnomalies returns the anomaly-analysis prompt for report.
	DetectAnomalies(ctx context.Context, report string) (string, error)
	// ProposeOptimizations returns the optimization prompt for report.
	ProposeOptimizations(ctx context.Context, report string) (string, error)
}

// Toolset binds a Source to Capabilities.
// Availability is resolved once, in NewToolset; calling an absent capability
// still fails with domain.ErrMissingCapability rather than reaching the source.
type Toolset struct {
	src       Source
	available map[string]bool
}

var _ Capabilities = (*Toolset)(nil)

// NewToolset resolves the required tool names against src.
func NewToolset(src Source) *Toolset {
	t := &Toolset{src: src, available: make(map[string]bool)}
	for _, name := range domain.RequiredTools() {
		t.available[name] = src != nil && src.Has(name)
	}
	return t
}

// Missing lists the required tools the source does not provide.
func (t *Toolset) Missing() []string {
	var missing []string
	for _, name := range domain.RequiredTools() {
		if !t.available[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// Validate fails with domain.ErrMissingCapability if any required tool is absent.
func (t *Toolset) Validate() error {
	if missing := t.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingCapability, strings.Join(missing, ", "))
	}
	return nil
}

func (t *Toolset) ReadJSONFile(ctx context.Context, fileName string) (string, error) {
	return t.call(ctx, domain.ToolReadJSONFile, map[string]any{domain.ArgFileName: fileName})
}

func (t *Toolset) DetectAnomalies(ctx context.Context, report string) (string, error) {
	return t.call(ctx, domain.ToolDetectAnomalies, map[string]any{domain.ArgReport: report})
}

func (t *Toolset) ProposeOptimizations(ctx context.Context, report string) (string, error) {
	return t.call(ctx, domain.ToolProposeOptimizations, map[string]any{domain.ArgReport: report})
}

func (t *Toolset) call(ctx context.Context, name string, args map[string]any) (string, error) {
	if !t.available[name] {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingCapability, name)
	}
	res, err := t.src.Execute(ctx, name, args)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return Text(res)
}

// Text renders a tool result as text. Strings and byte slices pass through,
// anything else is encoded as JSON.
func Text(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", errors.New("tool returned no result")
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case fmt.Stringer:
		return val.String(), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("render tool result: %w", err)
	}
	return string(raw), nil
}
