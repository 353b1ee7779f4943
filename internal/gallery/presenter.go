package gallery

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/phrazzld/photogallery/internal/domain"
	"github.com/phrazzld/photogallery/internal/events"
	"github.com/phrazzld/photogallery/internal/redact"
	"github.com/phrazzld/photogallery/internal/store"
	"github.com/phrazzld/photogallery/internal/thumbnail"
)

// SlotID identifies a display slot. Slots are recycled: the same slot shows
// different positions over time.
type SlotID int

// PhotoSource lists gallery items. An empty query means the popular feed.
type PhotoSource interface {
	Fetch(ctx context.Context, query string) ([]domain.GalleryItem, error)
}

// Thumbnails is the part of *thumbnail.Downloader the presenter drives.
type Thumbnails interface {
	Queue(identity SlotID, url string) error
	Cancel(identity SlotID)
	ClearQueue()
	Shutdown()
	SetListener(listener thumbnail.Listener[SlotID])
	PendingURL(identity SlotID) (string, bool)
}

// VisibilityRegistry tracks what is on screen. *events.VisibilityGate satisfies it.
type VisibilityRegistry interface {
	Register(v events.Visibility)
	Unregister(v events.Visibility)
}

// MainLoop runs functions one at a time on the goroutine that owns the
// presenter's state. task.Looper satisfies it.
type MainLoop interface {
	Post(fn func()) bool
}

// slot is the state of one bound display slot
type slot struct {
	position int
	url      string
	img      image.Image
	loaded   bool
}

// Snapshot describes the presenter state.
type Snapshot struct {
	Query       string               `json:"query"`
	Items       []domain.GalleryItem `json:"items"`
	BoundSlots  int                  `json:"bound_slots"`
	LoadedSlots int                  `json:"loaded_slots"`
	Visible     bool                 `json:"visible"`
}

// Presenter keeps the gallery's item list and slot images. Its state belongs
// to the main loop: every read and write happens in a function posted there,
// including thumbnail deliveries, so no locks guard it. Public methods may be
// called from any goroutine; they block until the main loop has run them.
type Presenter struct {
	source PhotoSource
	prefs  store.PreferenceStore
	thumbs Thumbnails
	loop   MainLoop
	logger *slog.Logger

	placeholder image.Image
	gate        VisibilityRegistry

	// owned by the main loop
	items []domain.GalleryItem
	slots map[SlotID]*slot

	visible   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
}

// Options configures a Presenter.
type Options struct {
	// Placeholder is shown in a slot until its thumbnail arrives.
	Placeholder image.Image

	// Gate, when set, has the presenter registered for as long as it is open.
	Gate VisibilityRegistry
}

// NewPresenter creates a presenter and registers it as the thumbnail listener
// and with opts.Gate. The gallery starts hidden.
func NewPresenter(
	source PhotoSource,
	prefs store.PreferenceStore,
	thumbs Thumbnails,
	loop MainLoop,
	opts Options,
	logger *slog.Logger,
) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Placeholder == nil {
		opts.Placeholder = NewPlaceholder(image.Black, 1)
	}

	p := &Presenter{
		source:      source,
		prefs:       prefs,
		thumbs:      thumbs,
		loop:        loop,
		logger:      logger.With("component", "gallery"),
		placeholder: opts.Placeholder,
		gate:        opts.Gate,
		slots:       make(map[SlotID]*slot),
	}
	thumbs.SetListener(p.onThumbnail)
	if p.gate != nil {
		p.gate.Register(p)
	}
	return p
}

var _ events.Visibility = (*Presenter)(nil)

// Refresh reloads the items for the stored query. A failed fetch empties the
// gallery and its error is returned after the items have been replaced.
func (p *Presenter) Refresh(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}

	query, err := p.prefs.StoredQuery(ctx)
	if err != nil {
		return fmt.Errorf("read stored query: %w", err)
	}

	items, fetchErr := p.source.Fetch(ctx, query)
	if fetchErr != nil {
		p.logger.WarnContext(ctx, "failed to fetch gallery items",
			"query", query,
			"error", redact.Error(fetchErr))
		items = nil
	}

	if err := p.call(ctx, func() { p.setItems(items) }); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "gallery refreshed", "query", query, "item_count", len(items))
	if fetchErr != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, fetchErr)
	}
	return nil
}

// Search stores query as the active search and refreshes.
func (p *Presenter) Search(ctx context.Context, query string) error {
	query = store.NormalizeQuery(query)
	if query == "" {
		return domain.ErrEmptyQuery
	}
	if err := p.prefs.SetStoredQuery(ctx, query); err != nil {
		return fmt.Errorf("store query: %w", err)
	}
	return p.Refresh(ctx)
}

// ClearSearch forgets the active search and refreshes with the popular feed.
func (p *Presenter) ClearSearch(ctx context.Context) error {
	if err := p.prefs.SetStoredQuery(ctx, ""); err != nil {
		return fmt.Errorf("clear stored query: %w", err)
	}
	return p.Refresh(ctx)
}

// Bind shows the item at position in slot. The slot gets the placeholder
// straight away and its thumbnail is requested; whatever the slot showed
// before is abandoned.
func (p *Presenter) Bind(ctx context.Context, id SlotID, position int) error {
	if id < 0 {
		return ErrInvalidSlot
	}

	var err error
	callErr := p.call(ctx, func() {
		if position < 0 || position >= len(p.items) {
			err = fmt.Errorf("%w: %d of %d", ErrPositionOutOfRange, position, len(p.items))
			return
		}
		err = p.bind(id, position)
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// Unbind recycles slot, cancelling its pending thumbnail.
func (p *Presenter) Unbind(ctx context.Context, id SlotID) error {
	var err error
	callErr := p.call(ctx, func() {
		if _, ok := p.slots[id]; !ok {
			err = ErrUnknownSlot
			return
		}
		delete(p.slots, id)
		p.thumbs.Cancel(id)
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// Thumbnail returns the image slot currently shows and whether it is the
// real thumbnail rather than the placeholder.
func (p *Presenter) Thumbnail(ctx context.Context, id SlotID) (image.Image, bool, error) {
	var (
		img    image.Image
		loaded bool
		err    error
	)
	callErr := p.call(ctx, func() {
		s, ok := p.slots[id]
		if !ok {
			err = ErrUnknownSlot
			return
		}
		img, loaded = s.img, s.loaded
	})
	if callErr != nil {
		return nil, false, callErr
	}
	return img, loaded, err
}

// Items returns a copy of the current items.
func (p *Presenter) Items(ctx context.Context) ([]domain.GalleryItem, error) {
	var items []domain.GalleryItem
	err := p.call(ctx, func() {
		items = make([]domain.GalleryItem, len(p.items))
		copy(items, p.items)
	})
	return items, err
}

// Snapshot returns the presenter state.
func (p *Presenter) Snapshot(ctx context.Context) (Snapshot, error) {
	query, err := p.prefs.StoredQuery(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read stored query: %w", err)
	}

	snap := Snapshot{Query: query, Visible: p.Visible()}
	err = p.call(ctx, func() {
		snap.Items = make([]domain.GalleryItem, len(p.items))
		copy(snap.Items, p.items)
		snap.BoundSlots = len(p.slots)
		for _, s := range p.slots {
			if s.loaded {
				snap.LoadedSlots++
			}
		}
	})
	return snap, err
}

// Show marks the gallery visible and re-requests thumbnails that Hide dropped.
// Slots whose request is still pending are left alone.
func (p *Presenter) Show(ctx context.Context) error {
	p.visible.Store(true)
	return p.call(ctx, func() {
		for id, s := range p.slots {
			if s.loaded {
				continue
			}
			if url, ok := p.thumbs.PendingURL(id); ok && url == s.url {
				continue
			}
			_ = p.queue(id, s.url)
		}
	})
}

// Hide marks the gallery hidden and drops every pending thumbnail request.
func (p *Presenter) Hide(ctx context.Context) error {
	p.visible.Store(false)
	return p.call(ctx, func() {
		p.thumbs.ClearQueue()
	})
}

// Visible implements events.Visibility.
func (p *Presenter) Visible() bool {
	return p.visible.Load() && !p.closed.Load()
}

// Close shuts the thumbnail downloader down and leaves the gate.
// Later calls return ErrClosed.
func (p *Presenter) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		if p.gate != nil {
			p.gate.Unregister(p)
		}
		p.thumbs.Shutdown()
		p.logger.Info("gallery closed")
	})
}

// call runs fn on the main loop and waits for it.
func (p *Presenter) call(ctx context.Context, fn func()) error {
	if p.closed.Load() {
		return ErrClosed
	}

	done := make(chan struct{})
	if !p.loop.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// setItems replaces the items and rebinds every slot against the new list.
func (p *Presenter) setItems(items []domain.GalleryItem) {
	p.items = items
	for id, s := range p.slots {
		if s.position >= len(items) {
			delete(p.slots, id)
			p.thumbs.Cancel(id)
			continue
		}
		// queue logs a failure and the slot keeps its placeholder
		_ = p.bind(id, s.position)
	}
}

func (p *Presenter) bind(id SlotID, position int) error {
	item := p.items[position]
	p.slots[id] = &slot{
		position: position,
		url:      item.URL,
		img:      p.placeholder,
	}
	return p.queue(id, item.URL)
}

func (p *Presenter) queue(id SlotID, url string) error {
	if err := p.thumbs.Queue(id, url); err != nil {
		p.logger.Warn("failed to queue thumbnail", "slot", id, "error", err)
		return err
	}
	return nil
}

// onThumbnail runs on the main loop.
func (p *Presenter) onThumbnail(id SlotID, img image.Image) {
	s, ok := p.slots[id]
	if !ok {
		return
	}
	s.img = img
	s.loaded = true
}
