// Package marker frames command output inside an unframed shell stream. Every
// executed command is rewritten to emit sentinel strings: one carrying the
// exit status, one ending the stdout capture and one ending the stderr
// capture. The reader stops at the sentinels, so output of consecutive
// commands never blends.
package marker

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// Marker prefixes. The prefixes double as bleed-through detectors for a
// previous call that timed out before its markers were fully read.
const (
	CmdEndPrefix    = "__CMD_END"
	StderrEndPrefix = "__STDERR_END"
	ExitPrefix      = "__EXIT"
)

// Factory derives marker sets for one session. Markers combine the session id
// with a monotonically increasing sequence, which makes them collision free
// across calls and across sessions.
type Factory struct {
	sessionID string
	seq       uint64
}

// NewFactory creates a marker factory bound to a session id.
func NewFactory(sessionID string) *Factory {
	return &Factory{sessionID: sessionID}
}

// Next derives the marker set for the next command.
func (f *Factory) Next() *Set {
	seq := atomic.AddUint64(&f.seq, 1)
	return &Set{
		CmdEnd:    fmt.Sprintf("%s_%s_%d__", CmdEndPrefix, f.sessionID, seq),
		StderrEnd: fmt.Sprintf("%s_%s_%d__", StderrEndPrefix, f.sessionID, seq),
		Exit:      fmt.Sprintf("%s_%s_%d__", ExitPrefix, f.sessionID, seq),
	}
}

// Set holds the three sentinels of a single call.
type Set struct {
	CmdEnd    string
	StderrEnd string
	Exit      string
}

// Safe substitutes a no-op for an empty command so that the injected
// separators do not produce a shell syntax error.
func Safe(command string) string {
	if command == "" {
		return "true"
	}
	return command
}

// Wrap rewrites a command so the shell emits the sentinels after it finishes.
// The exit status is captured immediately after the user command; nothing may
// run in between or it would overwrite $?.
func (s *Set) Wrap(command string) string {
	return fmt.Sprintf("%s; echo '%s '$?; echo '%s'; printf '%s' > /dev/stderr",
		Safe(command), s.Exit, s.CmdEnd, s.StderrEnd)
}

// ExtractExitCode scans stdout for the exit sentinel line, removes the whole
// line and returns the remaining stdout together with the parsed status. A
// missing sentinel or an unparsable status yields the documented fallbacks:
// zero when absent, one when malformed.
func (s *Set) ExtractExitCode(stdout string) (string, int) {
	if !strings.Contains(stdout, s.Exit) {
		return stdout, 0
	}
	exitCode := 0
	lines := strings.Split(stdout, "\n")
	kept := make([]string, 0, len(lines))
	found := false
	for _, line := range lines {
		if !found && strings.Contains(line, s.Exit) {
			found = true
			rest := strings.SplitN(line, s.Exit, 2)[1]
			code, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				exitCode = 1
			} else {
				exitCode = code
			}
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), exitCode
}

// TruncateStray cuts a buffer at the first leftover sentinel prefix. A
// previous call that timed out may flush its sentinels late; they arrive
// ahead of the current command's output and must not be returned to the
// caller. The current call's own sentinels are gone by the time this runs,
// so any prefix still present is stray.
func TruncateStray(buffer string) string {
	cut := len(buffer)
	for _, prefix := range []string{CmdEndPrefix, StderrEndPrefix, ExitPrefix} {
		if idx := strings.Index(buffer, prefix); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return buffer[:cut]
}
