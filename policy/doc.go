// Package policy provides optional declarative rules applied before a
// command runs, for example to require human approval for selected commands
// or to deny destructive ones outright.
package policy
