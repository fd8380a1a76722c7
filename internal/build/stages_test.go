package build

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/runnerforge/internal/metrics"
)

func newTestState() *state {
	return &state{result: &Result{StageDurations: make(map[StageName]time.Duration)}}
}

func TestRunStages_SoftFailureContinues(t *testing.T) {
	st := newTestState()
	var ran []StageName
	stages := []StageDef{
		{Name: StagePages, Soft: true, Fn: func(context.Context, *state) error {
			ran = append(ran, StagePages)
			return fmt.Errorf("template exploded")
		}},
		{Name: StageManifest, Fn: func(context.Context, *state) error {
			ran = append(ran, StageManifest)
			return nil
		}},
	}

	err := runStages(context.Background(), st, stages, metrics.NoopRecorder{})
	require.NoError(t, err, "a soft stage failure must not fail the run")
	assert.Equal(t, []StageName{StagePages, StageManifest}, ran)
	require.Len(t, st.result.Warnings, 1)

	var se *StageError
	require.ErrorAs(t, st.result.Warnings[0], &se)
	assert.Equal(t, StagePages, se.Stage)
}

func TestRunStages_HardFailureStops(t *testing.T) {
	st := newTestState()
	reached := false
	stages := []StageDef{
		{Name: StageBundle, Fn: func(context.Context, *state) error {
			return fmt.Errorf("compile error")
		}},
		{Name: StageCatalog, Fn: func(context.Context, *state) error {
			reached = true
			return nil
		}},
	}

	err := runStages(context.Background(), st, stages, metrics.NoopRecorder{})
	require.Error(t, err)
	assert.False(t, reached, "stages after a hard failure must not run")
}

func TestRunStages_RecordsDurations(t *testing.T) {
	st := newTestState()
	stages := []StageDef{
		{Name: StageDiscover, Fn: func(context.Context, *state) error { return nil }},
	}
	require.NoError(t, runStages(context.Background(), st, stages, metrics.NoopRecorder{}))
	assert.Contains(t, st.result.StageDurations, StageDiscover)
}
