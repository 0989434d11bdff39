package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a new globally unique identifier as string. It is implemented
// as a thin wrapper so tests can stub it.

var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// NewShort returns a compact identifier, the first block of a UUID. Session
// ids embed in output markers so shorter is better on the wire.
func NewShort() string {
	id := NewFunc()
	if idx := strings.Index(id, "-"); idx > 0 {
		return id[:idx]
	}
	return id
}
