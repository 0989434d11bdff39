// Package progress defines primitives for reporting and aggregating the
// progress of commands running across sessions. The tracker lives in the
// execution context so that callers can consume counter updates in a uniform
// way regardless of which session or dispatcher worker produced them.
package progress
