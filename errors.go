package osarun

import (
	"fmt"
	"time"
)

// TimeoutError indicates the child process did not complete within the
// timeout bound and was killed.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("script timed out after %s", e.Timeout)
}

// SpawnError indicates the interpreter executable could not be located or
// started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("could not start interpreter %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
