package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type commandRequest struct {
	ID      string
	Host    string
	Command string
}

func TestQueue(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[commandRequest](config)

	ctx := context.Background()
	request := commandRequest{
		ID:      "r1",
		Host:    "localhost",
		Command: "echo hello",
	}

	err := queue.Publish(ctx, &request)
	assert.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.Equal(t, 0, queue.Size())

	payload := message.T()
	assert.Equal(t, request.ID, payload.ID)
	assert.Equal(t, request.Host, payload.Host)
	assert.Equal(t, request.Command, payload.Command)

	err = message.Ack()
	assert.NoError(t, err)

	// double ack is rejected
	err = message.Ack()
	assert.Error(t, err)
}

func TestQueueRetries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[commandRequest](config)

	ctx := context.Background()
	request := commandRequest{ID: "r1", Command: "make build"}

	err := queue.Publish(ctx, &request)
	assert.NoError(t, err)

	// delivery plus two retries, each nacked
	for attempt := 0; attempt < 3; attempt++ {
		message, err := queue.Consume(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, message)

		err = message.Nack(fmt.Errorf("attempt %d failed", attempt))
		assert.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}

	// retry limit reached, message moved to the dead letter list
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueueConcurrency(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[commandRequest](config)

	ctx := context.Background()
	concurrency := 10
	messagesPerProducer := 10

	var wg sync.WaitGroup
	wg.Add(concurrency * 2)

	var consumedCount int
	var consumedMu sync.Mutex

	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()

			for j := 0; j < messagesPerProducer; j++ {
				message, err := queue.Consume(ctx)
				if err != nil {
					t.Errorf("Error consuming: %v", err)
					continue
				}

				err = message.Ack()
				assert.NoError(t, err)

				consumedMu.Lock()
				consumedCount++
				consumedMu.Unlock()
			}
		}()
	}

	for i := 0; i < concurrency; i++ {
		go func(producerID int) {
			defer wg.Done()

			for j := 0; j < messagesPerProducer; j++ {
				request := commandRequest{
					ID:      fmt.Sprintf("p%d-r%d", producerID, j),
					Command: fmt.Sprintf("echo %d", j),
				}

				err := queue.Publish(ctx, &request)
				if err != nil {
					t.Errorf("Error publishing: %v", err)
				}

				time.Sleep(1 * time.Millisecond)
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out")
	}

	assert.Equal(t, concurrency*messagesPerProducer, consumedCount)
	assert.Equal(t, 0, queue.Size())
}

func TestQueueContextCancellation(t *testing.T) {
	queue := NewQueue[commandRequest](DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	request := commandRequest{ID: "r1"}
	err := queue.Publish(ctx, &request)
	assert.Error(t, err)

	ctxWithTimeout, cancelTimeout := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelTimeout()

	// Consume returns once the context is done
	_, err = queue.Consume(ctxWithTimeout)
	assert.Error(t, err)

	// the queue stays usable after a cancelled call
	emptyCtx := context.Background()
	err = queue.Publish(emptyCtx, &request)
	assert.NoError(t, err)

	message, err := queue.Consume(emptyCtx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
}
