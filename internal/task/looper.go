package task

import (
	"context"
	"log/slog"
)

// Looper is a single-goroutine message loop. Functions posted from any goroutine
// run one at a time, in posting order, on the goroutine that calls Run.
// It plays the role of a UI main loop: anything that must observe or mutate
// loop-owned state is posted here instead of being guarded by locks.
type Looper struct {
	queue  *Queue[func()]
	worker *Worker[func()]
}

// NewLooper creates a message loop. Nothing runs until Run or Start is called.
func NewLooper(logger *slog.Logger) *Looper {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "looper")

	queue := NewQueue[func()](logger)
	worker := NewWorker(queue, func(_ context.Context, fn func()) error {
		fn()
		return nil
	}, logger)

	return &Looper{
		queue:  queue,
		worker: worker,
	}
}

// Post schedules fn to run on the loop. It returns false if the loop has quit.
func (l *Looper) Post(fn func()) bool {
	return l.queue.Enqueue(fn) == nil
}

// Run processes posted functions on the calling goroutine until ctx is done or Quit is called.
func (l *Looper) Run(ctx context.Context) {
	l.worker.Run(ctx)
}

// Start runs the loop on its own goroutine
func (l *Looper) Start() {
	l.worker.Start()
}

// Quit stops the loop and discards functions that have not run yet.
// It waits for the function currently running, if any, to return.
func (l *Looper) Quit() {
	l.worker.Stop()
}

// Pending returns the number of functions waiting to run
func (l *Looper) Pending() int {
	return l.queue.Len()
}
