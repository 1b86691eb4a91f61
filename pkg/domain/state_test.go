package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkflowState(t *testing.T) {
	s := NewWorkflowState()

	assert.Equal(t, ProgressStart, s.CurrentStep)
	assert.Empty(t, s.ReportContent)
	assert.Nil(t, s.Anomalies)
	assert.Nil(t, s.Recommendations)
	assert.False(t, s.Failed())
	assert.Equal(t, []Progress{ProgressStart}, s.History)
}

func TestWorkflowState_AdvanceInOrder(t *testing.T) {
	s := NewWorkflowState()
	for _, p := range AllProgress()[1:] {
		require.NoError(t, s.Advance(p))
	}
	assert.Equal(t, ProgressCompleted, s.CurrentStep)
	assert.Equal(t, AllProgress(), s.History)

	assert.Error(t, s.Advance(ProgressCompleted), "nothing follows Completed")
}

func TestWorkflowState_AdvanceRejectsSkipAndReverse(t *testing.T) {
	s := NewWorkflowState()
	assert.Error(t, s.Advance(ProgressAnomaliesDetected))

	require.NoError(t, s.Advance(ProgressReportLoaded))
	assert.Error(t, s.Advance(ProgressStart))
	assert.Equal(t, ProgressReportLoaded, s.CurrentStep)
}

func TestWorkflowState_ErrorIsSticky(t *testing.T) {
	s := NewWorkflowState()
	s.Fail("first")
	s.Fail("second")

	assert.Equal(t, "first", s.Error)
	assert.Error(t, s.Advance(ProgressReportLoaded))
	assert.Equal(t, ProgressStart, s.CurrentStep)
}

func TestProgress_Text(t *testing.T) {
	for _, p := range AllProgress() {
		raw, err := json.Marshal(p)
		require.NoError(t, err)

		var back Progress
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, p, back)
	}

	assert.Equal(t, `"anomalies_detected"`, mustJSON(t, ProgressAnomaliesDetected))
	assert.Equal(t, "progress(42)", Progress(42).String())
	assert.False(t, Progress(42).Valid())

	var p Progress
	assert.Error(t, p.UnmarshalText([]byte("halfway")))
}

func TestApply(t *testing.T) {
	prev := NewWorkflowState()
	require.NoError(t, prev.Advance(ProgressReportLoaded))
	prev.ReportContent = "{}"

	t.Run("success returns successor", func(t *testing.T) {
		next := prev.Clone()
		require.NoError(t, next.Advance(ProgressAnomaliesDetected))

		got := Apply(prev, Succeeded(next))
		assert.Same(t, next, got)
	})

	t.Run("failure keeps marker and data", func(t *testing.T) {
		failure := NewStepError(StepAnomalyDetector, ErrGeneration, errors.New("timeout"))
		got := Apply(prev, Failed(failure))

		assert.Equal(t, "failed to detect anomalies: timeout", got.Error)
		assert.Equal(t, ProgressReportLoaded, got.CurrentStep)
		assert.Equal(t, "{}", got.ReportContent)
		assert.Empty(t, prev.Error, "predecessor must not be mutated")
	})
}

func TestStepError_Classification(t *testing.T) {
	missing := NewStepError(StepLoader, ErrIO, errors.Join(ErrMissingCapability, errors.New("read_json_file")))
	assert.ErrorIs(t, missing, ErrMissingCapability)
	assert.Equal(t, ErrMissingCapability, missing.Kind)

	ioErr := NewStepError(StepLoader, ErrIO, errors.New("no such file"))
	assert.ErrorIs(t, ioErr, ErrIO)
	assert.Equal(t, "failed to read report: no such file", ioErr.Error())

	pre := NoReportError(StepOptimizationProposer)
	assert.ErrorIs(t, pre, ErrPrecondition)
	assert.Equal(t, MsgNoReport, pre.Error())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
