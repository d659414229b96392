package osarun

import "time"

// DefaultTimeout bounds every script execution. A child process still
// running once the bound elapses is killed and the run fails with a
// TimeoutError.
const DefaultTimeout = 30 * time.Second

// Result holds the outcome of a single script execution. Both streams are
// trimmed of surrounding whitespace. ExitCode is the child process's real
// termination status.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}
