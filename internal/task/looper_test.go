package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooper_RunsPostedFunctionsInOrder(t *testing.T) {
	t.Parallel()

	looper := NewLooper(setupTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		looper.Run(ctx)
		close(runDone)
	}()

	// Only the loop goroutine touches order, so no lock is needed
	order := make([]int, 0, 3)
	finished := make(chan []int, 1)
	for i := 1; i <= 3; i++ {
		i := i
		require.True(t, looper.Post(func() { order = append(order, i) }))
	}
	require.True(t, looper.Post(func() { finished <- append([]int(nil), order...) }))

	select {
	case got := <-finished:
		assert.Equal(t, []int{1, 2, 3}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for posted functions")
	}

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestLooper_PostAfterQuit(t *testing.T) {
	t.Parallel()

	looper := NewLooper(setupTestLogger())
	looper.Start()
	looper.Quit()

	assert.False(t, looper.Post(func() {}))
	assert.Equal(t, 0, looper.Pending())
}

func TestLooper_PanicDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	looper := NewLooper(setupTestLogger())
	looper.Start()
	defer looper.Quit()

	ran := make(chan struct{})
	looper.Post(func() { panic("bad callback") })
	looper.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("Loop stopped after a panicking function")
	}
}
