// Package task provides the small concurrency primitives the gallery is built on:
// an unbounded FIFO queue with a blocking pop, a single-goroutine worker that
// consumes it, and a Looper message loop that plays the role of the main thread
// to which background work delivers its results.
package task
