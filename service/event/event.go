// Package event provides typed publish/subscribe for session and command
// lifecycle notifications, backed by the messaging queues.
package event

import "time"

// Event types published over a session lifetime.
const (
	TypeSessionOpened    = "sessionOpened"
	TypeSessionClosed    = "sessionClosed"
	TypeCommandStarted   = "commandStarted"
	TypeCommandCompleted = "commandCompleted"
	TypeCommandFailed    = "commandFailed"
	TypeCommandRejected  = "commandRejected"
)

// Context identifies the session and command an event describes.
type Context struct {
	SessionID   string `json:"sessionID"`
	Host        string `json:"host"`
	Command     string `json:"command,omitempty"`
	EventType   string `json:"eventType"`
	TimeTakenMs int    `json:"timeTakenMs"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
