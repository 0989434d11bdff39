// Package dispatcher hosts the workers that execute queued command requests.
// Every worker consumes requests from the messaging queue, runs them through
// the configured runner and records the outcome in the journal so that
// callers can poll for completion.
package dispatcher
