package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/photogallery/internal/domain"
	"github.com/phrazzld/photogallery/internal/events"
	"github.com/phrazzld/photogallery/internal/redact"
	"github.com/phrazzld/photogallery/internal/store"
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 15 * time.Minute

// ErrStopped is returned by SetAlarm after Stop.
var ErrStopped = errors.New("poll: poller stopped")

// Source lists gallery items. An empty query means the popular feed.
type Source interface {
	Fetch(ctx context.Context, query string) ([]domain.GalleryItem, error)
}

// Outcome describes what a single poll found.
type Outcome string

const (
	OutcomeOffline     Outcome = "offline"
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeNoResults   Outcome = "no_results"
	OutcomeOldResult   Outcome = "old_result"
	OutcomeNewResult   Outcome = "new_result"
)

// Result is the outcome of one poll.
type Result struct {
	Outcome  Outcome   `json:"outcome"`
	Query    string    `json:"query"`
	ResultID string    `json:"result_id,omitempty"`
	PolledAt time.Time `json:"polled_at"`
}

// Status is a snapshot of the poller.
type Status struct {
	AlarmOn  bool          `json:"alarm_on"`
	Interval time.Duration `json:"interval"`
	Last     *Result       `json:"last,omitempty"`
}

// Options configures a Poller.
type Options struct {
	Interval     time.Duration
	Connectivity Connectivity
}

// Poller runs polls on demand and, while its alarm is on, on a fixed interval.
type Poller struct {
	source   Source
	prefs    store.PreferenceStore
	emitter  events.EventEmitter
	online   Connectivity
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// pollMu serializes polls
	pollMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
	last    *Result
}

// NewPoller creates a poller with its alarm off.
func NewPoller(
	source Source,
	prefs store.PreferenceStore,
	emitter events.EventEmitter,
	opts Options,
	logger *slog.Logger,
) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Connectivity == nil {
		opts.Connectivity = AlwaysOnline{}
	}
	return &Poller{
		source:   source,
		prefs:    prefs,
		emitter:  emitter,
		online:   opts.Connectivity,
		interval: opts.Interval,
		logger:   logger.With("component", "poller"),
		now:      time.Now,
	}
}

// PollOnce fetches the listing for the stored query and emits a
// NewResultsEvent when its first item differs from the last one seen.
// Being offline, a failed fetch and an empty listing are outcomes, not errors.
func (p *Poller) PollOnce(ctx context.Context) (Result, error) {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	result, err := p.poll(ctx)
	if err == nil {
		p.mu.Lock()
		p.last = &result
		p.mu.Unlock()
	}
	return result, err
}

func (p *Poller) poll(ctx context.Context) (Result, error) {
	result := Result{PolledAt: p.now().UTC()}

	if !p.online.Online(ctx) {
		p.logger.DebugContext(ctx, "network unavailable, skipping poll")
		result.Outcome = OutcomeOffline
		return result, nil
	}

	query, err := p.prefs.StoredQuery(ctx)
	if err != nil {
		return result, fmt.Errorf("read stored query: %w", err)
	}
	result.Query = query

	lastResultID, err := p.prefs.LastResultID(ctx)
	if err != nil {
		return result, fmt.Errorf("read last result id: %w", err)
	}

	items, err := p.source.Fetch(ctx, query)
	if err != nil {
		p.logger.WarnContext(ctx, "poll fetch failed", "query", query, "error", redact.Error(err))
		result.Outcome = OutcomeFetchFailed
		return result, nil
	}
	if len(items) == 0 {
		result.Outcome = OutcomeNoResults
		return result, nil
	}

	result.ResultID = items[0].ID
	if result.ResultID == lastResultID {
		p.logger.InfoContext(ctx, "got an old result", "result_id", result.ResultID)
		result.Outcome = OutcomeOldResult
		return result, nil
	}

	p.logger.InfoContext(ctx, "got a new result", "result_id", result.ResultID, "query", query)
	result.Outcome = OutcomeNewResult

	event, err := events.NewNewResultsEvent(domain.NewResults{
		Query:     query,
		ResultID:  result.ResultID,
		ItemCount: len(items),
		PolledAt:  result.PolledAt,
	})
	if err != nil {
		return result, err
	}
	if err := p.emitter.EmitEvent(ctx, event); err != nil {
		// Handlers that succeeded have already notified; the id is still recorded
		p.logger.ErrorContext(ctx, "failed to announce new results",
			"event_id", event.ID,
			"error", err)
	}

	if err := p.prefs.SetLastResultID(ctx, result.ResultID); err != nil {
		return result, fmt.Errorf("store last result id: %w", err)
	}
	return result, nil
}

// SetAlarm switches periodic polling on or off and persists the choice.
// Switching it on polls immediately, then once per interval.
func (p *Poller) SetAlarm(ctx context.Context, on bool) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if on {
		p.startLocked()
	} else {
		p.stopLocked()
	}
	p.mu.Unlock()

	if err := p.prefs.SetAlarmOn(ctx, on); err != nil {
		return fmt.Errorf("store alarm flag: %w", err)
	}

	p.logger.InfoContext(ctx, "poll alarm set", "on", on, "interval", p.interval)
	return nil
}

// IsAlarmOn reports whether periodic polling is running.
func (p *Poller) IsAlarmOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Restore re-arms the alarm from the stored flag. force switches it on regardless.
func (p *Poller) Restore(ctx context.Context, force bool) error {
	on, err := p.prefs.AlarmOn(ctx)
	if err != nil {
		return fmt.Errorf("read alarm flag: %w", err)
	}

	p.logger.InfoContext(ctx, "restoring poll alarm", "stored", on, "forced", force)
	return p.SetAlarm(ctx, on || force)
}

// Status returns the alarm state and the last poll result.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := Status{AlarmOn: p.cancel != nil, Interval: p.interval}
	if p.last != nil {
		last := *p.last
		status.Last = &last
	}
	return status
}

// Stop halts periodic polling without changing the stored flag, and waits for
// an in-progress poll to finish. The poller cannot be re-armed afterwards.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	done := p.done
	p.stopLocked()
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (p *Poller) startLocked() {
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go p.run(ctx, done)
}

func (p *Poller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
	p.done = nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("scheduled poll failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
