// Package fs provides a filesystem command queue backed by afs, so queued
// requests survive process restarts. A message moves between state
// directories as it progresses from pending through processing to
// completed, failed or the dead letter directory.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/sesh/service/messaging"
)

// State represents the processing state of a queued message
type State string

const (
	// StatePending indicates a message is waiting to be processed
	StatePending State = "pending"

	// StateProcessing indicates a message is being processed
	StateProcessing State = "processing"

	// StateCompleted indicates a message was successfully processed
	StateCompleted State = "completed"

	// StateFailed indicates a message failed processing
	StateFailed State = "failed"
)

// Message implements messaging.Message for the filesystem queue
type Message[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Retries   int       `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack acknowledges that the message was processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processed {
		return fmt.Errorf("message already processed")
	}

	m.processed = true
	m.State = StateCompleted
	m.UpdatedAt = time.Now()

	return m.queue.complete(context.Background(), m)
}

// Nack indicates that the message processing failed
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processed {
		return fmt.Errorf("message already processed")
	}

	m.processed = true
	m.State = StateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = time.Now()

	return m.queue.fail(context.Background(), m)
}

// Config holds configuration for the filesystem queue
type Config struct {
	BasePath   string        // Base directory for queue files
	MaxRetries int           // Maximum number of retry attempts
	RetryDelay time.Duration // Delay between retries
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() Config {
	return Config{
		BasePath:   "/tmp/sesh/queue",
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Queue implements a filesystem-based messaging.Queue
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	completedDir  string
	failedDir     string
	dlqDir        string
	mu            sync.Mutex
}

// NewQueue creates a new filesystem-based queue, creating the state
// directories when missing.
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    path.Join(config.BasePath, "pending"),
		processingDir: path.Join(config.BasePath, "processing"),
		completedDir:  path.Join(config.BasePath, "completed"),
		failedDir:     path.Join(config.BasePath, "failed"),
		dlqDir:        path.Join(config.BasePath, "dlq"),
	}

	dirs := []string{
		q.pendingDir,
		q.processingDir,
		q.completedDir,
		q.failedDir,
		q.dlqDir,
	}

	ctx := context.Background()
	for _, dir := range dirs {
		exists, _ := fs.Exists(ctx, dir)
		if !exists {
			if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return q, nil
}

// Publish adds a new message to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	message := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		State:     StatePending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		queue:     q,
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	filePath := path.Join(q.pendingDir, messageFilename(message.ID))
	return q.upload(ctx, filePath, data)
}

// Consume retrieves a message from the queue. Failed messages eligible for
// retry take precedence over pending ones. It returns nil without error
// when the queue is empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	retried, err := q.retryFailed(ctx)
	if err != nil {
		return nil, err
	}
	if retried != nil {
		return retried, nil
	}

	claimed, err := q.consumePending(ctx)
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		return nil, nil
	}
	return claimed, nil
}

// consumePending claims the oldest pending message.
func (q *Queue[T]) consumePending(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	object, err := q.oldest(ctx, q.pendingDir)
	if err != nil || object == nil {
		return nil, err
	}

	message, err := q.readMessage(ctx, object.URL())
	if err != nil {
		// Move an unreadable message aside so it does not wedge the queue
		_ = q.fs.Move(ctx, object.URL(), path.Join(q.failedDir, "invalid-"+object.Name()))
		return nil, err
	}

	return q.claim(ctx, object, message)
}

// retryFailed claims the oldest failed message still within the retry
// limit; messages beyond the limit move to the dead letter directory.
func (q *Queue[T]) retryFailed(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	object, err := q.oldest(ctx, q.failedDir)
	if err != nil || object == nil {
		return nil, err
	}

	message, err := q.readMessage(ctx, object.URL())
	if err != nil {
		_ = q.fs.Move(ctx, object.URL(), path.Join(q.dlqDir, "invalid-"+object.Name()))
		return nil, err
	}

	if message.Retries > q.config.MaxRetries {
		if err := q.fs.Move(ctx, object.URL(), path.Join(q.dlqDir, object.Name())); err != nil {
			return nil, fmt.Errorf("failed to move message to dead letter directory: %w", err)
		}
		return nil, nil
	}

	return q.claim(ctx, object, message)
}

// claim marks a message as processing and moves its file into the
// processing directory. Callers hold q.mu.
func (q *Queue[T]) claim(ctx context.Context, object storage.Object, message *Message[T]) (*Message[T], error) {
	message.State = StateProcessing
	message.UpdatedAt = time.Now()
	message.queue = q

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claimed message: %w", err)
	}

	// Upload to the processing directory first, only then remove the source
	if err := q.upload(ctx, path.Join(q.processingDir, object.Name()), data); err != nil {
		return nil, fmt.Errorf("failed to move message to processing directory: %w", err)
	}
	if err := q.fs.Delete(ctx, object.URL()); err != nil {
		return nil, fmt.Errorf("failed to remove claimed message %s: %w", object.URL(), err)
	}
	return message, nil
}

// complete moves an acknowledged message to the completed directory.
func (q *Queue[T]) complete(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal completed message: %w", err)
	}

	filename := messageFilename(m.ID)
	if err := q.upload(ctx, path.Join(q.completedDir, filename), data); err != nil {
		return fmt.Errorf("failed to write message to completed directory: %w", err)
	}
	return q.discardProcessing(ctx, filename)
}

// fail moves a nacked message to the failed directory for retry, or to the
// dead letter directory once the retry limit is exceeded.
func (q *Queue[T]) fail(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal failed message: %w", err)
	}

	filename := messageFilename(m.ID)
	targetDir := q.failedDir
	if m.Retries > q.config.MaxRetries {
		targetDir = q.dlqDir
	}
	if err := q.upload(ctx, path.Join(targetDir, filename), data); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", targetDir, err)
	}
	return q.discardProcessing(ctx, filename)
}

// discardProcessing removes a message file from the processing directory.
func (q *Queue[T]) discardProcessing(ctx context.Context, filename string) error {
	processingPath := path.Join(q.processingDir, filename)
	if exists, _ := q.fs.Exists(ctx, processingPath); exists {
		if err := q.fs.Delete(ctx, processingPath); err != nil {
			return fmt.Errorf("failed to delete message from processing directory: %w", err)
		}
	}
	return nil
}

// oldest returns the first message file in a directory, or nil when empty.
func (q *Queue[T]) oldest(ctx context.Context, dir string) (storage.Object, error) {
	objects, err := q.fs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		return object, nil
	}
	return nil, nil
}

func (q *Queue[T]) upload(ctx context.Context, path string, data []byte) error {
	return q.fs.Upload(ctx, path, file.DefaultFileOsMode, bytes.NewBuffer(data))
}

func (q *Queue[T]) readMessage(ctx context.Context, url string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", url, err)
	}

	var message Message[T]
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", url, err)
	}
	return &message, nil
}

func messageFilename(id string) string {
	return fmt.Sprintf("%s.json", id)
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
