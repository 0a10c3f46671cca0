package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks, failures atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, Config{
			Name: "test",
			Tasks: []Task{
				{Name: "count", Interval: 10 * time.Millisecond, RunOnStart: true, Run: func(context.Context) error {
					ticks.Add(1)
					return nil
				}},
				{Name: "fail", Interval: 10 * time.Millisecond, Run: func(context.Context) error {
					failures.Add(1)
					return errors.New("boom")
				}},
				{Name: "disabled", Run: func(context.Context) error {
					t.Error("task without interval must not run")
					return nil
				}},
			},
		})
	}()

	require.Eventually(t, func() bool { return ticks.Load() >= 3 && failures.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoopWithoutTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Loop(ctx, Config{Name: "idle"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunOnceRecoversPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RunOnce(context.Background(), "test", Task{Name: "panics", Run: func(context.Context) error {
			panic("boom")
		}}, nil)
	})
}

func TestRunOnceTimeout(t *testing.T) {
	var deadline atomic.Bool

	RunOnce(context.Background(), "test", Task{Name: "slow", Timeout: 5 * time.Millisecond, Run: func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		deadline.Store(ok)

		<-ctx.Done()

		return ctx.Err()
	}}, nil)

	assert.True(t, deadline.Load())
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
