package runtime_test

import (
	"testing"

	"github.com/aretw0/infrascope/internal/runtime"
	"github.com/aretw0/infrascope/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestNext_Totality(t *testing.T) {
	want := map[domain.Progress]domain.StepID{
		domain.ProgressStart:                 domain.StepLoader,
		domain.ProgressReportLoaded:          domain.StepAnomalyDetector,
		domain.ProgressAnomaliesDetected:     domain.StepOptimizationProposer,
		domain.ProgressOptimizationsProposed: domain.StepFinalizer,
		domain.ProgressCompleted:             domain.StepEnd,
	}

	for _, p := range domain.AllProgress() {
		for _, failed := range []bool{false, true} {
			s := &domain.WorkflowState{CurrentStep: p}
			if failed {
				s.Error = "boom"
			}

			first := runtime.Next(s)
			assert.Equal(t, first, runtime.Next(s), "idempotent for %s failed=%v", p, failed)

			if failed {
				assert.Equal(t, domain.StepErrorHandler, first, "sticky error at %s", p)
			} else {
				assert.Equal(t, want[p], first, "marker %s", p)
			}
		}
	}
}

func TestNext_UnknownMarkerEnds(t *testing.T) {
	s := &domain.WorkflowState{CurrentStep: domain.Progress(99)}
	assert.Equal(t, domain.StepEnd, runtime.Next(s))

	s.Error = "boom"
	assert.Equal(t, domain.StepErrorHandler, runtime.Next(s))
}

func TestNext_DoesNotMutate(t *testing.T) {
	s := domain.NewWorkflowState()
	before := *s
	runtime.Next(s)
	assert.Equal(t, before.CurrentStep, s.CurrentStep)
	assert.Equal(t, before.Error, s.Error)
}

func TestNext_NilStateStarts(t *testing.T) {
	assert.Equal(t, domain.StepLoader, runtime.Next(nil))
}
