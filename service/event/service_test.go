package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/sesh/service/messaging/memory"
)

type commandOutcome struct {
	SessionID string
	ExitCode  int
}

func newMemoryService(t *testing.T) *Service {
	service, err := New("memory", WithNewMemoryQueueConfig(func(name string) memory.Config {
		config := memory.DefaultConfig()
		config.RetryDelay = 10 * time.Millisecond
		return config
	}))
	assert.NoError(t, err)
	return service
}

func TestNew_ValidatesVendor(t *testing.T) {
	_, err := New("memory")
	assert.Error(t, err, "memory vendor without config factory")

	_, err = New("fs")
	assert.Error(t, err, "fs vendor without config factory")

	_, err = New("kafka")
	assert.Error(t, err, "unsupported vendor")
}

func TestService_TypedPubSub(t *testing.T) {
	service := newMemoryService(t)

	received := make(chan *Event[commandOutcome], 1)
	err := SetListenerOf(service, func(event *Event[commandOutcome]) {
		received <- event
	})
	assert.NoError(t, err)

	publisher, err := PublisherOf[commandOutcome](service)
	assert.NoError(t, err)

	eventContext := &Context{
		SessionID:   "s1",
		Host:        "localhost",
		Command:     "make build",
		EventType:   TypeCommandCompleted,
		TimeTakenMs: 12,
	}
	err = publisher.Publish(context.Background(), NewEvent(eventContext, commandOutcome{SessionID: "s1", ExitCode: 0}))
	assert.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, TypeCommandCompleted, event.Context.EventType)
		assert.Equal(t, "s1", event.Data.SessionID)
		assert.Equal(t, 0, event.Data.ExitCode)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for typed event")
	}
}

func TestService_CatchAllStream(t *testing.T) {
	service := newMemoryService(t)

	received := make(chan *Event[any], 1)
	service.SetListener(func(event *Event[any]) {
		received <- event
	})

	publisher, err := PublisherOf[commandOutcome](service)
	assert.NoError(t, err)

	eventContext := &Context{SessionID: "s2", Host: "build-01", EventType: TypeCommandFailed}
	err = publisher.Publish(context.Background(), NewEvent(eventContext, commandOutcome{SessionID: "s2", ExitCode: 1}))
	assert.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, TypeCommandFailed, event.Context.EventType)
		outcome, ok := event.Data.(commandOutcome)
		if assert.True(t, ok) {
			assert.Equal(t, 1, outcome.ExitCode)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for catch-all event")
	}
}
