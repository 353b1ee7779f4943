package testutils

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Poster is anything that can run a function on its own goroutine.
type Poster interface {
	Post(fn func()) bool
}

// Flush posts a no-op to loop and waits for it to run, so every function
// posted before the call has finished.
func Flush(t *testing.T, loop Poster) {
	t.Helper()

	done := make(chan struct{})
	if !loop.Post(func() { close(done) }) {
		t.Fatal("loop is not accepting work")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out flushing loop")
	}
}
