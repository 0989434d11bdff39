package runner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOptions(t *testing.T) {
	options := NewOptions()
	assert.EqualValues(t, DefaultTimeout, options.Timeout)
	assert.True(t, options.Wait)

	options = NewOptions(WithTimeout(2500), WithoutWait(), WithEnvironment(map[string]string{"TERM": "xterm"}))
	assert.EqualValues(t, 2500*time.Millisecond, options.Timeout)
	assert.False(t, options.Wait)
	assert.EqualValues(t, "xterm", options.Environment["TERM"])
}

func TestOptions_Clone(t *testing.T) {
	base := NewOptions(WithTimeout(1000))
	override := base.Clone()
	override.Apply(WithTimeout(50), WithoutWait())
	assert.EqualValues(t, time.Second, base.Timeout)
	assert.True(t, base.Wait)
	assert.EqualValues(t, 50*time.Millisecond, override.Timeout)
	assert.False(t, override.Wait)
}

func TestErrorMatching(t *testing.T) {
	var testCases = []struct {
		description string
		err         error
		sentinel    error
	}{
		{
			description: "interactive rejection",
			err:         &InteractiveError{Command: "vim notes.txt"},
			sentinel:    ErrInteractiveCommand,
		},
		{
			description: "transport write",
			err:         &TransportError{Err: errors.New("broken pipe")},
			sentinel:    ErrTransportWrite,
		},
		{
			description: "process exited",
			err:         &ProcessExitedError{Stdout: "partial"},
			sentinel:    ErrProcessExited,
		},
		{
			description: "read timeout",
			err:         &TimeoutError{Timeout: time.Second, Stdout: "partial"},
			sentinel:    ErrReadTimeout,
		},
	}

	for _, testCase := range testCases {
		assert.True(t, errors.Is(testCase.err, testCase.sentinel), testCase.description)
		assert.False(t, errors.Is(testCase.err, ErrSessionClosed), testCase.description)
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := &TransportError{Err: cause}
	assert.True(t, errors.Is(err, cause))
}
