package pstable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/sesh/completion"
	"github.com/viant/sesh/internal/clock"
)

func TestService_Exited(t *testing.T) {
	table := "ps -e -o args=\nsleep 600\npython train.py --epochs 5\n/usr/bin/bash -l -m\n"

	testCases := []struct {
		description string
		command     string
		expect      bool
	}{
		{
			description: "running command visible verbatim",
			command:     "sleep 600",
			expect:      false,
		},
		{
			description: "running command visible with extra arguments",
			command:     "python train.py",
			expect:      false,
		},
		{
			description: "finished command absent",
			command:     "echo done",
			expect:      true,
		},
		{
			description: "one clause still running",
			command:     "echo done && sleep 600",
			expect:      false,
		},
		{
			description: "prefix must end at a word boundary",
			command:     "sleep 6",
			expect:      true,
		},
	}

	svc := New(WithSnapshot(func(context.Context) (string, error) {
		return table, nil
	}))
	for _, tc := range testCases {
		exited, err := svc.Exited(context.Background(), tc.command)
		assert.NoError(t, err, tc.description)
		assert.Equal(t, tc.expect, exited, tc.description)
	}
}

func TestService_FastCommands(t *testing.T) {
	manual := clock.NewManual(time.Now())
	svc := New(
		WithClock(manual),
		WithSnapshot(func(context.Context) (string, error) {
			t.Fatal("fast command must not touch the process table")
			return "", nil
		}),
	)

	exited, err := svc.Exited(context.Background(), "cd /tmp && ls")
	assert.NoError(t, err)
	assert.True(t, exited)
	assert.Equal(t, []time.Duration{completion.FastDelay}, manual.Slept)
}

func TestService_SnapshotFailure(t *testing.T) {
	svc := New(WithSnapshot(func(context.Context) (string, error) {
		return "", context.DeadlineExceeded
	}))
	exited, err := svc.Exited(context.Background(), "sleep 600")
	assert.NoError(t, err)
	assert.True(t, exited, "invisible table reads as exited")
}
