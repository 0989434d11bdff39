package fs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

type commandRequest struct {
	ID      string `json:"id"`
	Host    string `json:"host"`
	Command string `json:"command"`
}

func TestNewQueue_RequiresBasePath(t *testing.T) {
	fs := afs.New()
	_, err := NewQueue[commandRequest](fs, Config{})
	assert.Error(t, err)
}

func TestQueue(t *testing.T) {
	fs := afs.New()
	ctx := context.Background()

	config := Config{
		BasePath:   t.TempDir(),
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	}

	queue, err := NewQueue[commandRequest](fs, config)
	assert.NoError(t, err)
	assert.NotNil(t, queue)

	for _, dir := range []string{
		queue.pendingDir,
		queue.processingDir,
		queue.completedDir,
		queue.failedDir,
		queue.dlqDir,
	} {
		exists, err := fs.Exists(ctx, dir)
		assert.NoError(t, err)
		assert.True(t, exists, dir)
	}

	requests := []commandRequest{
		{ID: "1", Host: "localhost", Command: "echo one"},
		{ID: "2", Host: "localhost", Command: "echo two"},
		{ID: "3", Host: "build-01", Command: "make"},
	}
	for _, request := range requests {
		err := queue.Publish(ctx, &request)
		assert.NoError(t, err)
	}

	pending, err := fs.List(ctx, queue.pendingDir)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(pending)-1, "should have 3 files in pending directory")

	for i := 0; i < len(requests); i++ {
		message, err := queue.Consume(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, message)

		payload := message.T()
		assert.NotNil(t, payload)
		assert.Contains(t, []string{"1", "2", "3"}, payload.ID)

		err = message.Ack()
		assert.NoError(t, err)

		completed, err := fs.List(ctx, queue.completedDir)
		assert.NoError(t, err)
		assert.Equal(t, i+1, len(completed)-1, "should have completed objects")
	}

	// empty queue yields no message and no error
	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, message)
}

func TestQueueRetries(t *testing.T) {
	fs := afs.New()
	ctx := context.Background()

	queue, err := NewQueue[commandRequest](fs, Config{
		BasePath:   t.TempDir(),
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	})
	assert.NoError(t, err)

	request := commandRequest{ID: "4", Command: "false"}
	err = queue.Publish(ctx, &request)
	assert.NoError(t, err)

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)

	// first nack moves the message to the failed directory
	err = message.Nack(nil)
	assert.NoError(t, err)

	failed, err := fs.List(ctx, queue.failedDir)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(failed)-1, "should have one file in failed directory")

	// failed messages are retried ahead of pending ones
	for i := 0; i < 2; i++ {
		message, err = queue.Consume(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, message)

		err = message.Nack(nil)
		assert.NoError(t, err)
	}

	// retry limit exceeded, message lands in the dead letter directory
	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, message)

	dlq, err := fs.List(ctx, queue.dlqDir)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(dlq)-1, "should have one file in dlq directory")
}
