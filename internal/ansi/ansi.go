// Package ansi strips terminal escape sequences from captured output. Remote
// shells run with a PTY, so colour codes, cursor movement and title updates
// leak into the byte stream and have to be removed before the output is
// returned to callers.
package ansi

import "regexp"

// Matches two-byte escapes (ESC followed by a single final byte) and full CSI
// sequences (ESC [ parameters intermediates final).
var escape = regexp.MustCompile(`\x1b(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// Strip removes ANSI escape sequences.
func Strip(s string) string {
	return escape.ReplaceAllString(s, "")
}

// StripBytes removes ANSI escape sequences from a byte slice.
func StripBytes(b []byte) []byte {
	return escape.ReplaceAll(b, nil)
}
