package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// HandlerFunc processes a single item taken from a queue
type HandlerFunc[T any] func(ctx context.Context, item T) error

// Worker consumes a Queue on exactly one goroutine, handling items strictly
// one at a time in FIFO order. A failing or panicking item never stops the loop.
type Worker[T any] struct {
	// queue provides the items to be processed
	queue *Queue[T]

	// handle is invoked for every item
	handle HandlerFunc[T]

	// wg tracks the worker goroutine for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	// logger for structured logging
	logger *slog.Logger

	// errorHandler is called when an item fails
	// If nil, errors are only logged
	errorHandler func(item T, err error)

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWorker creates a worker for the given queue. It does not start processing until Start or Run.
func NewWorker[T any](queue *Queue[T], handle HandlerFunc[T], logger *slog.Logger) *Worker[T] {
	if logger == nil {
		logger = slog.Default()
	}

	// Create a cancelable context for shutdown coordination
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker[T]{
		queue:  queue,
		handle: handle,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// SetErrorHandler allows setting a custom error handler for item failures
func (w *Worker[T]) SetErrorHandler(handler func(item T, err error)) {
	w.errorHandler = handler
}

// Start runs the worker loop on a new goroutine. Calling Start twice has no effect.
func (w *Worker[T]) Start() {
	w.startOnce.Do(func() {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.loop(w.ctx)
		}()
	})
}

// Run runs the worker loop on the calling goroutine until ctx is done or Stop is called.
func (w *Worker[T]) Run(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	w.loop(ctx)
}

// Stop cancels the worker context, closes the queue and waits for the loop to exit.
// Queued items that have not started are discarded. Safe to call more than once.
func (w *Worker[T]) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		w.queue.Close()
	})
	w.wg.Wait()
}

// Context returns the worker's lifetime context. It is cancelled by Stop.
func (w *Worker[T]) Context() context.Context {
	return w.ctx
}

func (w *Worker[T]) loop(ctx context.Context) {
	w.logger.Debug("starting worker")
	defer w.logger.Debug("stopping worker")

	for {
		item, ok := w.queue.Pop(ctx)
		if !ok {
			return
		}
		w.process(ctx, item)
	}
}

// process handles a single item, converting panics into errors
func (w *Worker[T]) process(ctx context.Context, item T) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		err = w.handle(ctx, item)
	}()

	if err == nil {
		return
	}

	w.logger.Error("task execution failed", "error", err)
	if w.errorHandler != nil {
		w.errorHandler(item, err)
	}
}
