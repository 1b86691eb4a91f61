package runtime

import "github.com/aretw0/infrascope/pkg/domain"

// Next selects the step to run for s. It is pure and total: any recorded
// error routes to the error handler whatever the marker, and a marker it does
// not know ends the run.
func Next(s *domain.WorkflowState) domain.StepID {
	if s == nil {
		return domain.StepLoader
	}
	if s.Failed() {
		return domain.StepErrorHandler
	}

	switch s.CurrentStep {
	case domain.ProgressStart:
		return domain.StepLoader
	case domain.ProgressReportLoaded:
		return domain.StepAnomalyDetector
	case domain.ProgressAnomaliesDetected:
		return domain.StepOptimizationProposer
	case domain.ProgressOptimizationsProposed:
		return domain.StepFinalizer
	case domain.ProgressCompleted:
		return domain.StepEnd
	default:
		return domain.StepEnd
	}
}
