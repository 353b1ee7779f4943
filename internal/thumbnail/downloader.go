package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/phrazzld/photogallery/internal/redact"
	"github.com/phrazzld/photogallery/internal/task"
)

// ErrShutdown is returned by Queue once the downloader has been shut down.
var ErrShutdown = errors.New("thumbnail downloader is shut down")

// Fetcher downloads the raw bytes behind a URL.
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Evicter is implemented by fetchers that keep what they return. Bytes that
// fail to decode are evicted so the next request fetches them again.
type Evicter interface {
	Evict(ctx context.Context, url string) error
}

// Decoder turns raw bytes into an image.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// ResponseHandler runs functions on the goroutine that owns the consumer's state.
// task.Looper satisfies it.
type ResponseHandler interface {
	Post(fn func()) bool
}

// Listener receives a decoded thumbnail for identity. It is only ever invoked
// through the ResponseHandler, and only for results that are not stale.
type Listener[T comparable] func(identity T, img image.Image)

// Stats is a snapshot of downloader counters.
type Stats struct {
	Queued    int64
	Delivered int64
	Stale     int64
	Failed    int64
	Pending   int
}

// Downloader fetches and decodes thumbnails on a single background worker and
// delivers them back through a ResponseHandler. Identities are opaque tokens
// chosen by the caller (a display slot, say); each identity wants at most one URL
// at a time, and a result is delivered only if its identity still wants the URL
// that was fetched.
type Downloader[T comparable] struct {
	requests *requestMap[T]
	queue    *task.Queue[T]
	worker   *task.Worker[T]

	fetcher  Fetcher
	decoder  Decoder
	response ResponseHandler

	listenerMu sync.RWMutex
	listener   Listener[T]

	closed       atomic.Bool
	shutdownOnce sync.Once
	logger       *slog.Logger

	queued    atomic.Int64
	delivered atomic.Int64
	stale     atomic.Int64
	failed    atomic.Int64
}

// NewDownloader creates a downloader and starts its worker.
// Call Shutdown when the downloader is no longer needed.
func NewDownloader[T comparable](
	fetcher Fetcher,
	decoder Decoder,
	response ResponseHandler,
	logger *slog.Logger,
) *Downloader[T] {
	if logger == nil {
		logger = slog.Default()
	}
	if decoder == nil {
		decoder = ImageDecoder{}
	}
	logger = logger.With("component", "thumbnail_downloader")

	d := &Downloader[T]{
		requests: newRequestMap[T](),
		queue:    task.NewQueue[T](logger),
		fetcher:  fetcher,
		decoder:  decoder,
		response: response,
		logger:   logger,
	}

	d.worker = task.NewWorker(d.queue, d.handleRequest, logger)
	d.worker.SetErrorHandler(func(identity T, err error) {
		d.failed.Add(1)
	})
	d.worker.Start()

	return d
}

// SetListener registers the delivery callback. A nil listener discards results.
func (d *Downloader[T]) SetListener(listener Listener[T]) {
	d.listenerMu.Lock()
	defer d.listenerMu.Unlock()
	d.listener = listener
}

// Queue asks for the thumbnail at url to be delivered for identity.
// A later call for the same identity replaces the URL; results for the old URL
// are discarded. An empty url cancels the request for identity without queueing work.
func (d *Downloader[T]) Queue(identity T, url string) error {
	if d.closed.Load() {
		d.logger.Warn("queue called after shutdown", "identity", identity)
		return ErrShutdown
	}

	if url == "" {
		d.requests.Remove(identity)
		return nil
	}

	d.requests.Put(identity, url)
	if err := d.queue.Enqueue(identity); err != nil {
		d.requests.Remove(identity)
		return ErrShutdown
	}
	d.queued.Add(1)

	d.logger.Debug("thumbnail queued", "identity", identity, "url", redact.URL(url))
	return nil
}

// Cancel forgets the request for identity. A task already queued for it becomes a no-op.
func (d *Downloader[T]) Cancel(identity T) {
	d.requests.Remove(identity)
}

// ClearQueue drops every request that has not started yet and forgets all
// outstanding identities. A download already in flight finishes, but its
// result is discarded. Calling it on an empty queue is a no-op.
func (d *Downloader[T]) ClearQueue() {
	dropped := d.queue.Drain()
	forgotten := d.requests.Clear()

	if dropped > 0 || forgotten > 0 {
		d.logger.Debug("thumbnail queue cleared",
			"dropped_tasks", dropped,
			"forgotten_requests", forgotten)
	}
}

// Shutdown stops the worker and waits for it to exit. Queued requests are
// discarded, an in-flight download is cancelled, and nothing is delivered
// afterwards. Calling Shutdown more than once is safe.
func (d *Downloader[T]) Shutdown() {
	d.shutdownOnce.Do(func() {
		d.closed.Store(true)
		d.worker.Stop()
		d.requests.Clear()
		d.logger.Info("thumbnail downloader shut down")
	})
}

// PendingURL returns the URL currently wanted by identity.
func (d *Downloader[T]) PendingURL(identity T) (string, bool) {
	return d.requests.Get(identity)
}

// Stats returns current counters.
func (d *Downloader[T]) Stats() Stats {
	return Stats{
		Queued:    d.queued.Load(),
		Delivered: d.delivered.Load(),
		Stale:     d.stale.Load(),
		Failed:    d.failed.Load(),
		Pending:   d.queue.Len(),
	}
}

// handleRequest runs on the worker goroutine, one identity at a time.
func (d *Downloader[T]) handleRequest(ctx context.Context, identity T) error {
	url, ok := d.requests.Get(identity)
	if !ok {
		// Cancelled after it was queued
		return nil
	}

	data, err := d.fetcher.FetchBytes(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("download thumbnail for %v from %s: %w", identity, redact.URL(url), err)
	}

	img, err := d.decoder.Decode(data)
	if err != nil {
		d.evict(ctx, url)
		return fmt.Errorf("decode thumbnail for %v from %s: %w", identity, redact.URL(url), err)
	}

	if !d.response.Post(func() { d.deliver(identity, url, img) }) {
		d.logger.Debug("response handler gone, dropping thumbnail", "identity", identity)
	}
	return nil
}

func (d *Downloader[T]) evict(ctx context.Context, url string) {
	evicter, ok := d.fetcher.(Evicter)
	if !ok {
		return
	}
	if err := evicter.Evict(ctx, url); err != nil {
		d.logger.Warn("failed to evict undecodable thumbnail",
			"url", redact.URL(url),
			"error", redact.Error(err))
	}
}

// deliver runs on the response handler.
func (d *Downloader[T]) deliver(identity T, url string, img image.Image) {
	if d.closed.Load() {
		return
	}

	// The slot may have been reassigned or recycled while the download was in flight
	if !d.requests.CompareAndDelete(identity, url) {
		d.stale.Add(1)
		d.logger.Debug("discarding stale thumbnail", "identity", identity, "url", redact.URL(url))
		return
	}

	d.listenerMu.RLock()
	listener := d.listener
	d.listenerMu.RUnlock()

	d.delivered.Add(1)
	if listener != nil {
		listener(identity, img)
	}
}
