// Package osascript runs automation scripts through the osascript
// interpreter in a child process, one process per call.
package osascript

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/osakit/osarun"
)

const interpreterName = `osascript`

// waitDelay bounds how long Wait may keep collecting output after the
// child exits or the deadline kills it. Without it, a background process
// spawned by the script inherits the output pipes and keeps Wait blocked
// until it exits.
const waitDelay = time.Second

// OSAScript invokes the osascript interpreter.
type OSAScript struct {
	// Path is the interpreter binary. New resolves it via PATH.
	Path string
	// Language is passed to the interpreter with -l when set
	// (AppleScript or JavaScript).
	Language string
	// Timeout bounds each run. Zero means osarun.DefaultTimeout.
	Timeout time.Duration
}

// New creates a new OSAScript, resolving the interpreter via PATH. The
// resolution error, if any, is deferred until Run so the caller sees a
// SpawnError at execution time.
func New() *OSAScript {
	path, _ := exec.LookPath(interpreterName)
	return &OSAScript{
		Path:    path,
		Timeout: osarun.DefaultTimeout,
	}
}

// Run executes the given script text, passed verbatim as a single -e
// argument. It blocks until the child process exits or the timeout
// elapses. A non-zero exit from the child is not an error; the Result
// carries the code. The returned Result always carries whatever trimmed
// output was captured, including on timeout.
func (o *OSAScript) Run(ctx context.Context, script string) (osarun.Result, error) {
	return o.exec(ctx, `-e`, script)
}

// RunFile executes the script stored at the given path.
func (o *OSAScript) RunFile(ctx context.Context, path string) (osarun.Result, error) {
	return o.exec(ctx, path)
}

func (o *OSAScript) exec(ctx context.Context, scriptArgs ...string) (osarun.Result, error) {
	if o.Path == "" {
		return osarun.Result{}, &osarun.SpawnError{Path: interpreterName, Err: exec.ErrNotFound}
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = osarun.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var args []string
	if o.Language != "" {
		args = append(args, `-l`, o.Language)
	}
	args = append(args, scriptArgs...)
	cmd := exec.CommandContext(ctx, o.Path, args...)
	cmd.WaitDelay = waitDelay

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := osarun.Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if runErr == nil {
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, &osarun.TimeoutError{Timeout: timeout}
	}
	if errors.Is(runErr, exec.ErrWaitDelay) {
		// The child exited cleanly; an orphaned process it spawned still
		// held the output pipes when the grace period closed them.
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, &osarun.SpawnError{Path: o.Path, Err: runErr}
}
