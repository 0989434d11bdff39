package local

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// DefaultShell is the login shell a session spawns when none is configured.
// Job control is enabled so the shell owns a process group of its own.
var DefaultShell = []string{"/bin/bash", "-l", "-m"}

// DeadlineReader is a stream that supports bounded reads. os.Pipe read ends
// satisfy it on platforms with pollable pipes.
type DeadlineReader interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// Process is the spawned shell a session drives. Write feeds the shell's
// stdin, Alive reports liveness without blocking and Kill terminates the
// shell and releases its streams.
type Process interface {
	io.Writer
	Stdout() DeadlineReader
	Stderr() DeadlineReader
	Alive() bool
	Kill() error
}

// StartFunc provisions a shell process with the supplied environment.
type StartFunc func(shell []string, env map[string]string) (Process, error)

type osProcess struct {
	cmd    *exec.Cmd
	stdin  *os.File
	stdout *os.File
	stderr *os.File
	done   chan struct{}
	once   sync.Once
	killed error
}

// Start spawns the shell with explicit pipe pairs for all three standard
// streams. The read ends stay in this process so the reader can poll them
// with deadlines; the child's copies are closed right after start so that
// EOF propagates once the shell exits.
func Start(shell []string, env map[string]string) (Process, error) {
	if len(shell) == 0 {
		shell = DefaultShell
	}
	stdinRead, stdinWrite, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdoutRead, stdoutWrite, err := os.Pipe()
	if err != nil {
		closeFiles(stdinRead, stdinWrite)
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderrRead, stderrWrite, err := os.Pipe()
	if err != nil {
		closeFiles(stdinRead, stdinWrite, stdoutRead, stdoutWrite)
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	cmd := exec.Command(shell[0], shell[1:]...)
	cmd.Stdin = stdinRead
	cmd.Stdout = stdoutWrite
	cmd.Stderr = stderrWrite
	cmd.Env = os.Environ()
	for key, value := range env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}
	if err := cmd.Start(); err != nil {
		closeFiles(stdinRead, stdinWrite, stdoutRead, stdoutWrite, stderrRead, stderrWrite)
		return nil, fmt.Errorf("failed to start shell %v: %w", shell, err)
	}
	closeFiles(stdinRead, stdoutWrite, stderrWrite)

	result := &osProcess{
		cmd:    cmd,
		stdin:  stdinWrite,
		stdout: stdoutRead,
		stderr: stderrRead,
		done:   make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(result.done)
	}()
	return result, nil
}

func (p *osProcess) Write(data []byte) (int, error) {
	return p.stdin.Write(data)
}

func (p *osProcess) Stdout() DeadlineReader {
	return p.stdout
}

func (p *osProcess) Stderr() DeadlineReader {
	return p.stderr
}

// Alive reports whether the shell is still running.
func (p *osProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Kill terminates the shell, waits for it to be reaped and closes the
// streams. Safe to call repeatedly.
func (p *osProcess) Kill() error {
	p.once.Do(func() {
		err := p.cmd.Process.Kill()
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.killed = err
		}
		<-p.done
		closeFiles(p.stdin, p.stdout, p.stderr)
	})
	return p.killed
}

func closeFiles(files ...*os.File) {
	for _, file := range files {
		if file != nil {
			_ = file.Close()
		}
	}
}
