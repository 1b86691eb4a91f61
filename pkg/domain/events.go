package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter  EventType = "step_enter"
	EventStepLeave  EventType = "step_leave"
	EventToolCall   EventType = "tool_call"
	EventToolReturn EventType = "tool_return"

	EventReportLoaded           EventType = "report_loaded"
	EventAnomaliesSummary       EventType = "anomalies_summary"
	EventRecommendationsSummary EventType = "recommendations_summary"
	EventRunSucceeded           EventType = "run_succeeded"
	EventRunFailed              EventType = "run_failed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// StepEvent represents entry into or exit from a step.
type StepEvent struct {
	EventBase
	Step     StepID        `json:"step"`
	Progress Progress      `json:"progress"`
	Duration time.Duration `json:"duration,omitempty"` // set on leave
	Err      error         `json:"-"`                  // set on leave when the step failed
}

// ToolEvent represents a capability invocation.
type ToolEvent struct {
	EventBase
	Step     StepID        `json:"step"`
	ToolName string        `json:"tool_name"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Err      error         `json:"-"`
}

// ReportEvent carries the operator-facing facts of a run: the report was
// loaded, how many records were found and with which summary, and how the run ended.
type ReportEvent struct {
	EventBase
	Bytes   int    `json:"bytes,omitempty"`
	Count   int    `json:"count,omitempty"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewEventBase stamps an event of type t for run.
func NewEventBase(t EventType, runID string) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t, RunID: runID}
}

// LifecycleHooks defines callbacks for pipeline observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnStepEnter  func(context.Context, *StepEvent)
	OnStepLeave  func(context.Context, *StepEvent)
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
	OnReport     func(context.Context, *ReportEvent)
}

// ChainHooks fans every event out to each of hooks, in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *StepEvent) {
			for _, h := range hooks {
				if h.OnStepEnter != nil {
					h.OnStepEnter(ctx, e)
				}
			}
		},
		OnStepLeave: func(ctx context.Context, e *StepEvent) {
			for _, h := range hooks {
				if h.OnStepLeave != nil {
					h.OnStepLeave(ctx, e)
				}
			}
		},
		OnToolCall: func(ctx context.Context, e *ToolEvent) {
			for _, h := range hooks {
				if h.OnToolCall != nil {
					h.OnToolCall(ctx, e)
				}
			}
		},
		OnToolReturn: func(ctx context.Context, e *ToolEvent) {
			for _, h := range hooks {
				if h.OnToolReturn != nil {
					h.OnToolReturn(ctx, e)
				}
			}
		},
		OnReport: func(ctx context.Context, e *ReportEvent) {
			for _, h := range hooks {
				if h.OnReport != nil {
					h.OnReport(ctx, e)
				}
			}
		},
	}
}

// StepEnter invokes OnStepEnter if set.
func (h LifecycleHooks) StepEnter(ctx context.Context, e *StepEvent) {
	if h.OnStepEnter != nil {
		h.OnStepEnter(ctx, e)
	}
}

// StepLeave invokes OnStepLeave if set.
func (h LifecycleHooks) StepLeave(ctx context.Context, e *StepEvent) {
	if h.OnStepLeave != nil {
		h.OnStepLeave(ctx, e)
	}
}

// ToolCall invokes OnToolCall if set.
func (h LifecycleHooks) ToolCall(ctx context.Context, e *ToolEvent) {
	if h.OnToolCall != nil {
		h.OnToolCall(ctx, e)
	}
}

// ToolReturn invokes OnToolReturn if set.
func (h LifecycleHooks) ToolReturn(ctx context.Context, e *ToolEvent) {
	if h.OnToolReturn != nil {
		h.OnToolReturn(ctx, e)
	}
}

// Report invokes OnReport if set.
func (h LifecycleHooks) Report(ctx context.Context, e *ReportEvent) {
	if h.OnReport != nil {
		h.OnReport(ctx, e)
	}
}
