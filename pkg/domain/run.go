package domain

// RunStatus is the terminal status of a run.
type RunStatus string

const (
	RunSucceeded RunStatus = "Success"
	RunFailed    RunStatus = "Failed"
)

// StatusOf derives the terminal status from a final state.
func StatusOf(s *WorkflowState) RunStatus {
	if s == nil || s.Failed() {
		return RunFailed
	}
	return RunSucceeded
}
