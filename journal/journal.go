// Package journal defines the persistent record of command executions. Every
// command run through the facade can be recorded as an Entry and stored by
// one of the journal DAO implementations.
package journal

import "time"

// Entry is the record of a single command execution. Failed and rejected
// commands are recorded too, with the failure in Error.
type Entry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId,omitempty"`
	Host       string    `json:"host,omitempty"`
	Command    string    `json:"command"`
	Stdout     string    `json:"stdout,omitempty"`
	Stderr     string    `json:"stderr,omitempty"`
	ExitCode   int       `json:"exitCode"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
	DurationMs int64     `json:"durationMs"`
}

// Clone returns a copy so stored entries stay isolated from caller mutation.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// Failed reports whether the command failed, either through a non zero exit
// status or an execution error.
func (e *Entry) Failed() bool {
	return e.Error != "" || e.ExitCode != 0
}
