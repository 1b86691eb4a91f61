package runtime

import "context"

type runIDKey struct{}

// ContextWithRunID tags ctx with the ID stamped on every event of a run.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID, or "" if none was set.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
