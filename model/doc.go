// Package model contains the in-memory representation of execution targets
// shared across the session runners and the facade, so that hosts can be
// referenced from other parts of the code base with a single import.
package model
