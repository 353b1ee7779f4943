package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_ProcessesInOrder(t *testing.T) {
	t.Parallel()

	queue := NewQueue[int](setupTestLogger())

	var mu sync.Mutex
	processed := make([]int, 0, 5)
	done := make(chan struct{})

	worker := NewWorker(queue, func(_ context.Context, item int) error {
		mu.Lock()
		processed = append(processed, item)
		n := len(processed)
		mu.Unlock()
		if n == 5 {
			close(done)
		}
		return nil
	}, setupTestLogger())

	for i := 1; i <= 5; i++ {
		require.NoError(t, queue.Enqueue(i))
	}

	worker.Start()
	defer worker.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for items")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, processed)
}

func TestWorker_SurvivesErrorsAndPanics(t *testing.T) {
	t.Parallel()

	queue := NewQueue[string](setupTestLogger())
	handled := make(chan string, 3)

	worker := NewWorker(queue, func(_ context.Context, item string) error {
		switch item {
		case "fail":
			return errors.New("boom")
		case "panic":
			panic("kaboom")
		}
		handled <- item
		return nil
	}, setupTestLogger())

	var mu sync.Mutex
	failures := make(map[string]error)
	worker.SetErrorHandler(func(item string, err error) {
		mu.Lock()
		failures[item] = err
		mu.Unlock()
	})

	worker.Start()
	defer worker.Stop()

	require.NoError(t, queue.Enqueue("fail"))
	require.NoError(t, queue.Enqueue("panic"))
	require.NoError(t, queue.Enqueue("ok"))

	select {
	case item := <-handled:
		assert.Equal(t, "ok", item)
	case <-time.After(2 * time.Second):
		t.Fatal("Worker stopped after a failing item")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 2)
	assert.EqualError(t, failures["fail"], "boom")
	assert.Contains(t, failures["panic"].Error(), "kaboom")
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	queue := NewQueue[int](setupTestLogger())
	worker := NewWorker(queue, func(context.Context, int) error { return nil }, setupTestLogger())

	worker.Start()
	worker.Stop()

	assert.NotPanics(t, worker.Stop)
	assert.ErrorIs(t, queue.Enqueue(1), ErrQueueClosed)
	assert.Error(t, worker.Context().Err())
}

func TestWorker_StopCancelsInFlightContext(t *testing.T) {
	t.Parallel()

	queue := NewQueue[int](setupTestLogger())
	started := make(chan struct{})

	worker := NewWorker(queue, func(ctx context.Context, _ int) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, setupTestLogger())

	worker.Start()
	require.NoError(t, queue.Enqueue(1))
	<-started

	stopped := make(chan struct{})
	go func() {
		worker.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
