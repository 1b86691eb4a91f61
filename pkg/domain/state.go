package domain

import "fmt"

// Progress records how far a run has advanced through the fixed step order.
type Progress uint8

const (
	ProgressStart Progress = iota
	ProgressReportLoaded
	ProgressAnomaliesDetected
	ProgressOptimizationsProposed
	ProgressCompleted
)

var progressNames = [...]string{
	ProgressStart:                 "start",
	ProgressReportLoaded:          "report_loaded",
	ProgressAnomaliesDetected:     "anomalies_detected",
	ProgressOptimizationsProposed: "optimizations_proposed",
	ProgressCompleted:             "completed",
}

// AllProgress lists every marker in pipeline order.
func AllProgress() []Progress {
	return []Progress{
		ProgressStart,
		ProgressReportLoaded,
		ProgressAnomaliesDetected,
		ProgressOptimizationsProposed,
		ProgressCompleted,
	}
}

func (p Progress) String() string {
	if int(p) < len(progressNames) {
		return progressNames[p]
	}
	return fmt.Sprintf("progress(%d)", uint8(p))
}

// Valid reports whether p is one of the declared markers.
func (p Progress) Valid() bool { return p <= ProgressCompleted }

// Next returns the marker that follows p, and false for Completed or unknown markers.
func (p Progress) Next() (Progress, bool) {
	if p >= ProgressCompleted {
		return p, false
	}
	return p + 1, true
}

func (p Progress) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid progress marker %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Progress) UnmarshalText(text []byte) error {
	for i, name := range progressNames {
		if name == string(text) {
			*p = Progress(i)
			return nil
		}
	}
	return fmt.Errorf("unknown progress marker %q", text)
}

// StepID identifies the step the router selects next.
type StepID string

const (
	StepLoader               StepID = "read_report"
	StepAnomalyDetector      StepID = "detect_anomalies"
	StepOptimizationProposer StepID = "propose_optimizations"
	StepFinalizer            StepID = "finalize_results"
	StepErrorHandler         StepID = "error"
	StepEnd                  StepID = "end"
)

// Terminal reports whether no step follows id.
func (id StepID) Terminal() bool { return id == StepEnd }

// WorkflowState is the record threaded through one run.
// It is owned by a single driver loop at a time and discarded after the run.
type WorkflowState struct {
	// ReportContent is the raw report text, set only by the loader.
	ReportContent string `json:"report_content,omitempty"`

	// Anomalies is the validated anomaly analysis, if produced.
	Anomalies *Anomalies `json:"anomalies_result,omitempty"`

	// Recommendations is the validated optimization proposal, if produced.
	Recommendations *Recommendations `json:"optimizations_result,omitempty"`

	// CurrentStep is the progress marker.
	CurrentStep Progress `json:"current_step"`

	// Error is non-empty once the run has failed. It is never cleared.
	Error string `json:"error,omitempty"`

	// History holds every marker the run has held, in order.
	History []Progress `json:"history"`
}

// NewWorkflowState creates a clean state at the Start marker.
func NewWorkflowState() *WorkflowState {
	return &WorkflowState{
		CurrentStep: ProgressStart,
		History:     []Progress{ProgressStart},
	}
}

// Failed reports whether an error has been recorded.
func (s *WorkflowState) Failed() bool { return s.Error != "" }

// HasReport reports whether report content is available for analysis.
func (s *WorkflowState) HasReport() bool { return s.ReportContent != "" }

// Advance moves the marker to to, which must be the direct successor of the
// current marker. Advancing a failed state is refused.
func (s *WorkflowState) Advance(to Progress) error {
	if s.Failed() {
		return fmt.Errorf("cannot advance to %s: run already failed", to)
	}
	next, ok := s.CurrentStep.Next()
	if !ok || next != to {
		return fmt.Errorf("cannot advance from %s to %s", s.CurrentStep, to)
	}
	s.CurrentStep = to
	s.History = append(s.History, to)
	return nil
}

// Fail records msg as the run error. The first error wins.
func (s *WorkflowState) Fail(msg string) {
	if s.Error == "" {
		s.Error = msg
	}
}

// Clone returns a copy that shares no mutable slices with s.
// Records are treated as immutable once stored and are shared.
func (s *WorkflowState) Clone() *WorkflowState {
	c := *s
	c.History = append([]Progress(nil), s.History...)
	return &c
}
