package tool

import (
	"errors"
	"time"
)

// ErrToolUnavailable indicates the external binary could not be spawned at
// all (missing or not executable). This is an environment problem, not a
// per-job failure.
var ErrToolUnavailable = errors.New("external tool unavailable")

// Stream identifies which output stream a line came from.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Line is one line of child-process output.
type Line struct {
	Stream Stream
	Text   string
}

// ExitStatus carries the result of a finished child process.
type ExitStatus struct {
	Code int
	Err  error // nil on a zero exit code
}

// Handle exposes a running child process to the queue manager.
type Handle interface {
	// Lines streams stdout and stderr line by line. The channel is closed
	// once both streams are drained.
	Lines() <-chan Line

	// Wait blocks until the process has exited and returns its status.
	Wait() ExitStatus

	// Terminate requests termination; if the process is still alive after
	// the grace period it is killed forcefully. Fire and forget.
	Terminate(grace time.Duration)
}

// Runner spawns external tools as child processes.
type Runner interface {
	// Spawn starts argv[0] with the remaining tokens as arguments. A
	// missing or non-executable binary yields ErrToolUnavailable.
	Spawn(argv []string) (Handle, error)

	// ProbeDuration returns the duration of a media file in seconds.
	ProbeDuration(path string) (float64, error)
}
