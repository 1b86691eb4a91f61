package domain

import "errors"

var (
	// ErrMissingCapability is returned when a named tool is absent from the registry.
	ErrMissingCapability = errors.New("missing capability")

	// ErrPrecondition is returned when a step's upstream data is absent.
	ErrPrecondition = errors.New("precondition failed")

	// ErrGeneration is returned when structured generation fails, by transport or validation.
	ErrGeneration = errors.New("generation failed")

	// ErrIO is returned when the report artifact cannot be loaded.
	ErrIO = errors.New("artifact load failed")
)

// MsgNoReport is the error recorded when analysis runs without report content.
const MsgNoReport = "no report content available"

// StepError is the failure variant of a step outcome. Its message is what
// ends up in WorkflowState.Error.
type StepError struct {
	Step StepID
	Kind error
	Msg  string
	Err  error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStepError classifies err for step. Missing capabilities keep their own
// kind; anything else takes the step's default kind.
func NewStepError(step StepID, kind error, err error) *StepError {
	if errors.Is(err, ErrMissingCapability) {
		kind = ErrMissingCapability
	}
	return &StepError{Step: step, Kind: kind, Msg: failureMessage(step), Err: err}
}

// NoReportError is the precondition failure for the analysis steps.
func NoReportError(step StepID) *StepError {
	return &StepError{Step: step, Kind: ErrPrecondition, Msg: MsgNoReport}
}

func failureMessage(step StepID) string {
	switch step {
	case StepLoader:
		return "failed to read report"
	case StepAnomalyDetector:
		return "failed to detect anomalies"
	case StepOptimizationProposer:
		return "failed to propose optimizations"
	default:
		return "step " + string(step) + " failed"
	}
}

// ErrArtifactNotFound is returned when a run ID has no stored artifact.
var ErrArtifactNotFound = errors.New("artifact not found")
