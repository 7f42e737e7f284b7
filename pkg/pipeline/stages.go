package pipeline

import "fmt"

// Stage names one step of the query pipeline. Transitions are strictly
// sequential with no backward edges; any stage can move to failed.
type Stage string

const (
	StageClassifying       Stage = "classifying"
	StageRouting           Stage = "routing"
	StageRetrievingContext Stage = "retrieving_context"
	StageSynthesizing      Stage = "synthesizing"
	StageValidating        Stage = "validating"
	StageExecuting         Stage = "executing"
	StageDone              Stage = "done"
)

// StageError is the terminal failure of one pipeline run, naming the stage
// that failed. The supervisor never retries; retry is a caller concern.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
