package passmanager

import (
	"fmt"
)

// PassError is a failure inside a running pass. It aborts the remaining stages
// of the pipeline; nothing the failing stage already did is rolled back.
type PassError struct {
	Pipeline string
	Stage    int
	Pass     string
	Err      error // origin error
}

func (e *PassError) Error() string {
	return fmt.Sprintf(
		"pass error [%s stage %d, %s]: %v",
		e.Pipeline,
		e.Stage,
		e.Pass,
		e.Err,
	)
}

func (e *PassError) Unwrap() error {
	return e.Err
}
