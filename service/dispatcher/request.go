package dispatcher

// Request describes a single command queued for execution.
type Request struct {
	// ID identifies the request and keys the journal entry recording its
	// outcome. Submit assigns one when left empty.
	ID string `json:"id,omitempty"`

	// Host is the execution target URL resolved by the runner.
	Host string `json:"host"`

	// Command is the shell command to run.
	Command string `json:"command"`

	// TimeoutMs overrides the session output timeout when positive.
	TimeoutMs int `json:"timeoutMs,omitempty"`

	// Attempts counts redeliveries after transport level failures.
	Attempts int `json:"attempts,omitempty"`
}
