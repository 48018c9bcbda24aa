package pipeline

import (
	"errors"
	"fmt"
)

// ErrNotApproved is returned when the human decision vetoes an action.
var ErrNotApproved = errors.New("action not approved")

// Stage names the pipeline step a ProcessingError came from.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageMarshal Stage = "marshal"
	StageInvoke  Stage = "invoke"
)

// ProcessingError is the single failure kind of the pipeline. Unwrap it to
// tell a missing action (actions.ErrActionNotFound) from a failing one.
type ProcessingError struct {
	Action string
	Stage  Stage
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Action, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func fail(action string, stage Stage, err error) *ProcessingError {
	return &ProcessingError{Action: action, Stage: stage, Err: err}
}
