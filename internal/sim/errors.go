package sim

import "errors"

var (
	// ErrAlreadyRun indicates Run was consumed a second time. Runs are not
	// restartable; build a new Driver instead.
	ErrAlreadyRun = errors.New("sim: driver already run")

	// ErrCanceled indicates the run stopped at a sweep boundary because its
	// context was done.
	ErrCanceled = errors.New("sim: run canceled by context")
)
