package domain

// Outcome is the explicit result of executing a step: either a successor
// state, or a failure that leaves the predecessor untouched.
type Outcome struct {
	// State is the successor state. Nil when Err is set.
	State *WorkflowState

	// Err describes the failure.
	Err *StepError
}

// Succeeded wraps a successor state.
func Succeeded(next *WorkflowState) Outcome {
	return Outcome{State: next}
}

// Failed wraps a step failure.
func Failed(err *StepError) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the step succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Apply folds o into prev. A failure records its message on a copy of prev,
// keeping the marker and any earlier results.
func Apply(prev *WorkflowState, o Outcome) *WorkflowState {
	if o.Err != nil {
		next := prev.Clone()
		next.Fail(o.Err.Error())
		return next
	}
	if o.State == nil {
		return prev
	}
	return o.State
}
