package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/runnerforge/internal/logfields"
	"git.home.luguber.info/inful/runnerforge/internal/metrics"
)

// Stage is a discrete unit of work in the catalog build.
type Stage func(ctx context.Context, st *state) error

// StageDef pairs a stage name with its executing function. Soft stages are
// post-processing steps whose failure is logged and recorded but never fails
// the overall run.
type StageDef struct {
	Name StageName
	Fn   Stage
	Soft bool
}

// StageError is a structured error carrying the failing stage.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// runStages executes stages in order, recording timing and stopping on the
// first hard failure. Soft stage failures surface as warnings on the result.
func runStages(ctx context.Context, st *state, stages []StageDef, recorder metrics.Recorder) error {
	for _, sd := range stages {
		t0 := time.Now()
		err := sd.Fn(ctx, st)
		dur := time.Since(t0)
		st.result.StageDurations[sd.Name] = dur
		recorder.ObserveStageDuration(string(sd.Name), dur)

		if err == nil {
			recorder.IncStageResult(string(sd.Name), metrics.ResultSuccess)
			continue
		}
		if sd.Soft {
			se := &StageError{Stage: sd.Name, Err: err}
			st.result.Warnings = append(st.result.Warnings, se)
			recorder.IncStageResult(string(sd.Name), metrics.ResultWarning)
			slog.Warn("Post-processing step failed; continuing",
				logfields.Stage(string(sd.Name)),
				logfields.Error(err))
			continue
		}
		recorder.IncStageResult(string(sd.Name), metrics.ResultFatal)
		return &StageError{Stage: sd.Name, Err: err}
	}
	return nil
}
