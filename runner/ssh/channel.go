package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	gossh "golang.org/x/crypto/ssh"
)

const (
	recvChunkSize  = 512
	bufferedChunks = 1024
)

// Channel is the interactive shell channel a remote session drives. Recv and
// RecvStderr return whatever arrived since the last call without blocking.
type Channel interface {
	Send(payload string) error
	Recv() string
	RecvStderr() string
	Close() error
}

// Commander runs one-off commands on the session's host outside the
// interactive channel, for process table snapshots and file probes.
type Commander interface {
	Output(ctx context.Context, command string) (string, error)
}

// ChannelFactory opens the interactive channel with the supplied environment.
type ChannelFactory func(env map[string]string) (Channel, error)

type sshChannel struct {
	session  *gossh.Session
	stdin    io.WriteCloser
	stdout   chan []byte
	stderr   chan []byte
	once     sync.Once
	closeErr error
}

// NewChannel opens an interactive shell channel on the client: a vt100
// pseudo terminal with a shell behind it. Environment requests are best
// effort since most servers only accept an allow listed set. Two pump
// goroutines move channel bytes into buffered queues so a receive never
// blocks the session.
func NewChannel(client *gossh.Client, env map[string]string) (Channel, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	for key, value := range env {
		_ = session.Setenv(key, value)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}
	if err := session.RequestPty("vt100", 24, 80, gossh.TerminalModes{}); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to request pty: %w", err)
	}
	if err := session.Shell(); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}
	result := &sshChannel{
		session: session,
		stdin:   stdin,
		stdout:  make(chan []byte, bufferedChunks),
		stderr:  make(chan []byte, bufferedChunks),
	}
	go pump(stdout, result.stdout)
	go pump(stderr, result.stderr)
	return result, nil
}

func pump(reader io.Reader, sink chan<- []byte) {
	defer close(sink)
	for {
		chunk := make([]byte, recvChunkSize)
		n, err := reader.Read(chunk)
		if n > 0 {
			sink <- chunk[:n]
		}
		if err != nil {
			return
		}
	}
}

func (c *sshChannel) Send(payload string) error {
	_, err := c.stdin.Write([]byte(payload))
	return err
}

func (c *sshChannel) Recv() string {
	return drainQueue(c.stdout)
}

func (c *sshChannel) RecvStderr() string {
	return drainQueue(c.stderr)
}

func drainQueue(source <-chan []byte) string {
	var output []byte
	for {
		select {
		case chunk, ok := <-source:
			if !ok {
				return string(output)
			}
			output = append(output, chunk...)
		default:
			return string(output)
		}
	}
}

func (c *sshChannel) Close() error {
	c.once.Do(func() {
		_ = c.stdin.Close()
		if err := c.session.Close(); err != nil && !errors.Is(err, io.EOF) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

type clientCommander struct {
	client *gossh.Client
}

// NewCommander wraps a client so every command runs on a fresh one-off
// session.
func NewCommander(client *gossh.Client) Commander {
	return &clientCommander{client: client}
}

func (c *clientCommander) Output(ctx context.Context, command string) (string, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()
	output, err := session.Output(command)
	if err != nil {
		return string(output), err
	}
	return string(output), nil
}
