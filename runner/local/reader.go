package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/viant/sesh/runner"
)

// Polling intervals of the output reader. The transport exposes only
// poll-style reads, so the loop is a bounded busy wait.
const (
	waitPollDelay   = 500 * time.Millisecond
	streamPollDelay = 100 * time.Millisecond
	repollDelay     = 50 * time.Millisecond
	readChunkSize   = 4096
)

// readRequest describes one output read. An empty command means a single
// drain pass with no completion wait, used right after the shell starts.
type readRequest struct {
	command      string
	cmdMarker    string
	stderrMarker string
	options      *runner.Options
}

// read accumulates stream output until the requested markers arrived, the
// timeout elapsed or the shell died. Once a stream's marker is found that
// stream is no longer read, so bytes belonging to the next command stay in
// the pipe. The liveness check runs after the loop whatever ended it; a dead
// shell outranks a complete buffer.
func (s *Session) read(ctx context.Context, request readRequest) (string, string, error) {
	var stdout, stderr bytes.Buffer
	clk := request.options.Clock
	deadline := clk.Now().Add(request.options.Timeout)
	chunk := make([]byte, readChunkSize)
	stdoutDone := false
	stderrDone := false
	complete := false

	for clk.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return stdout.String(), stderr.String(), err
		}
		if request.options.Wait && request.command != "" {
			exited, err := request.options.Detector.Exited(ctx, request.command)
			if err != nil {
				return stdout.String(), stderr.String(), err
			}
			if !exited {
				if err := clk.Sleep(ctx, waitPollDelay); err != nil {
					return stdout.String(), stderr.String(), err
				}
				continue
			}
		}

		received := false
		if !stdoutDone {
			got, err := pollStream(s.process.Stdout(), &stdout, chunk, clk.Now().Add(streamPollDelay))
			if err != nil {
				return stdout.String(), stderr.String(), err
			}
			received = received || got
		}
		if !stderrDone {
			got, err := pollStream(s.process.Stderr(), &stderr, chunk, clk.Now().Add(streamPollDelay))
			if err != nil {
				return stdout.String(), stderr.String(), err
			}
			received = received || got
		}

		if received {
			if request.cmdMarker == "" || strings.Contains(stdout.String(), request.cmdMarker) {
				stdoutDone = true
			}
			if request.stderrMarker == "" || strings.Contains(stderr.String(), request.stderrMarker) {
				stderrDone = true
			}
			if stdoutDone && stderrDone {
				complete = true
				break
			}
		}
		if request.command == "" {
			break
		}
		if !received && !s.process.Alive() {
			break
		}
		if err := clk.Sleep(ctx, repollDelay); err != nil {
			return stdout.String(), stderr.String(), err
		}
	}

	if !s.process.Alive() {
		return "", "", &runner.ProcessExitedError{Stdout: stdout.String(), Stderr: stderr.String()}
	}
	if !clk.Now().Before(deadline) {
		return "", "", &runner.TimeoutError{
			Timeout: request.options.Timeout,
			Stdout:  stdout.String(),
			Stderr:  stderr.String(),
		}
	}
	if complete {
		return truncateAt(stdout.String(), request.cmdMarker), truncateAt(stderr.String(), request.stderrMarker), nil
	}
	return stdout.String(), stderr.String(), nil
}

// pollStream performs one bounded read. A deadline expiry or EOF is an empty
// poll, not an error; EOF surfaces through the liveness check instead.
func pollStream(stream DeadlineReader, buffer *bytes.Buffer, chunk []byte, deadline time.Time) (bool, error) {
	if err := stream.SetReadDeadline(deadline); err != nil {
		return false, fmt.Errorf("failed to arm read deadline: %w", err)
	}
	n, err := stream.Read(chunk)
	if n > 0 {
		buffer.Write(chunk[:n])
	}
	switch {
	case err == nil, errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, io.EOF):
		return n > 0, nil
	default:
		return n > 0, fmt.Errorf("failed to read stream: %w", err)
	}
}

func truncateAt(output, marker string) string {
	if marker == "" {
		return output
	}
	if idx := strings.Index(output, marker); idx >= 0 {
		return output[:idx]
	}
	return output
}
