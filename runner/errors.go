package runner

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the failure classes shared by session implementations.
// Typed errors below carry per-failure detail and match these through
// errors.Is.
var (
	// ErrInteractiveCommand rejects a command before submission because it
	// would hold the shell open waiting for input.
	ErrInteractiveCommand = errors.New("interactive command is not supported")

	// ErrTransportWrite reports a failed submission to the shell.
	ErrTransportWrite = errors.New("transport write failed")

	// ErrProcessExited reports the shell process dying before the command's
	// end markers arrived.
	ErrProcessExited = errors.New("shell process exited unexpectedly")

	// ErrReadTimeout reports the output deadline expiring before the
	// command's end markers arrived.
	ErrReadTimeout = errors.New("timeout reached while reading output")

	// ErrSessionClosed rejects operations on a torn down session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrSessionBusy rejects a command while another is still in flight.
	ErrSessionBusy = errors.New("session is busy")

	// ErrSessionNotReady rejects a command before Setup has run.
	ErrSessionNotReady = errors.New("session is not set up")
)

// InteractiveError identifies the command the guard refused.
type InteractiveError struct {
	Command string
}

func (e *InteractiveError) Error() string {
	return fmt.Sprintf("interactive command is not supported: %q, use a non-interactive alternative", e.Command)
}

// Is matches ErrInteractiveCommand.
func (e *InteractiveError) Is(target error) bool {
	return target == ErrInteractiveCommand
}

// TransportError wraps a failed write to the shell's input.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport write failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransportWrite.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportWrite
}

// ProcessExitedError retains whatever output had been read when the shell
// process was found dead.
type ProcessExitedError struct {
	Stdout string
	Stderr string
}

func (e *ProcessExitedError) Error() string {
	return "shell process exited unexpectedly before the command completed"
}

// Is matches ErrProcessExited.
func (e *ProcessExitedError) Is(target error) bool {
	return target == ErrProcessExited
}

// TimeoutError retains whatever output had been read when the deadline
// expired. Interactive commands that slipped past the guard surface here.
type TimeoutError struct {
	Timeout time.Duration
	Stdout  string
	Stderr  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout reached while reading output after %s, note that interactive commands hang a non-interactive session", e.Timeout)
}

// Is matches ErrReadTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrReadTimeout
}
