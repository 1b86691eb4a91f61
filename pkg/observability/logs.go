package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/infrascope/pkg/domain"
)

// LogHooks writes one structured record per operator-facing event. Step
// and tool traffic is logged at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step enter", "run_id", e.RunID, "step", e.Step, "progress", e.Progress.String())
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			attrs := []any{"run_id", e.RunID, "step", e.Step, "duration", e.Duration}
			if e.Err != nil {
				attrs = append(attrs, "error", e.Err)
			}
			logger.DebugContext(ctx, "step leave", attrs...)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool call", "run_id", e.RunID, "step", e.Step, "tool", e.ToolName)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			attrs := []any{"run_id", e.RunID, "tool", e.ToolName, "duration", e.Duration}
			if e.IsError {
				attrs = append(attrs, "error", e.Err)
			}
			logger.DebugContext(ctx, "tool return", attrs...)
		},
		OnReport: func(ctx context.Context, e *domain.ReportEvent) {
			switch e.Type {
			case domain.EventReportLoaded:
				logger.InfoContext(ctx, "report loaded", "run_id", e.RunID, "bytes", e.Bytes)
			case domain.EventAnomaliesSummary:
				logger.InfoContext(ctx, "anomalies detected", "run_id", e.RunID, "count", e.Count, "summary", e.Summary)
			case domain.EventRecommendationsSummary:
				logger.InfoContext(ctx, "recommendations proposed", "run_id", e.RunID, "count", e.Count, "summary", e.Summary)
			case domain.EventRunSucceeded:
				logger.InfoContext(ctx, "run succeeded", "run_id", e.RunID)
			case domain.EventRunFailed:
				logger.ErrorContext(ctx, "run failed", "run_id", e.RunID, "error", e.Error)
			}
		},
	}
}
