package gallery

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/photogallery/internal/domain"
	"github.com/phrazzld/photogallery/internal/events"
	"github.com/phrazzld/photogallery/internal/store"
	"github.com/phrazzld/photogallery/internal/task"
	"github.com/phrazzld/photogallery/internal/testutils"
	"github.com/phrazzld/photogallery/internal/thumbnail"
)

var errOffline = errors.New("offline")

type fakeSource struct {
	mu      sync.Mutex
	popular []domain.GalleryItem
	results map[string][]domain.GalleryItem
	err     error
	queries []string
}

func (s *fakeSource) Fetch(_ context.Context, query string) ([]domain.GalleryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	if query == "" {
		return s.popular, nil
	}
	return s.results[query], nil
}

// gatedFetcher serves a 2x2 image for every URL; URLs with a gate block until it closes.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func (f *gatedFetcher) block(url string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = make(map[string]chan struct{})
	}
	gate := make(chan struct{})
	f.gates[url] = gate
	return gate
}

func (f *gatedFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	gate := f.gates[url]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []byte(url), nil
}

type urlImage struct {
	image.Image
	url string
}

type urlDecoder struct{}

func (urlDecoder) Decode(data []byte) (image.Image, error) {
	return urlImage{Image: image.NewGray(image.Rect(0, 0, 2, 2)), url: string(data)}, nil
}

func items(urls ...string) []domain.GalleryItem {
	out := make([]domain.GalleryItem, len(urls))
	for i, u := range urls {
		out[i] = domain.GalleryItem{ID: u, Caption: "caption " + u, URL: u}
	}
	return out
}

type fixture struct {
	presenter *Presenter
	source    *fakeSource
	fetcher   *gatedFetcher
	prefs     *store.MemoryPreferenceStore
	loop      *task.Looper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testutils.DiscardLogger()

	loop := task.NewLooper(logger)
	loop.Start()

	f := &fixture{
		source: &fakeSource{
			popular: items("p0", "p1", "p2"),
			results: map[string][]domain.GalleryItem{"cats": items("c0", "c1")},
		},
		fetcher: &gatedFetcher{},
		prefs:   store.NewMemoryPreferenceStore(),
		loop:    loop,
	}
	downloader := thumbnail.NewDownloader[SlotID](f.fetcher, urlDecoder{}, loop, logger)
	f.presenter = NewPresenter(f.source, f.prefs, downloader, loop, Options{
		Placeholder: NewPlaceholder(color.White, 2),
	}, logger)

	t.Cleanup(func() {
		f.presenter.Close()
		loop.Quit()
	})
	return f
}

// waitLoaded waits until slot shows a real thumbnail and returns its source URL.
func (f *fixture) waitLoaded(t *testing.T, id SlotID) string {
	t.Helper()
	var url string
	require.Eventually(t, func() bool {
		img, loaded, err := f.presenter.Thumbnail(context.Background(), id)
		if err != nil || !loaded {
			return false
		}
		url = img.(urlImage).url
		return true
	}, 2*time.Second, 5*time.Millisecond)
	return url
}

func TestPresenter_RefreshPopular(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.presenter.Refresh(ctx))

	got, err := f.presenter.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, items("p0", "p1", "p2"), got)
	assert.Equal(t, []string{""}, f.source.queries)
}

func TestPresenter_SearchAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.presenter.Search(ctx, "  cats "))
	query, err := f.prefs.StoredQuery(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cats", query)

	got, err := f.presenter.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, items("c0", "c1"), got)

	require.NoError(t, f.presenter.ClearSearch(ctx))
	query, err = f.prefs.StoredQuery(ctx)
	require.NoError(t, err)
	assert.Empty(t, query)

	got, err = f.presenter.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	assert.ErrorIs(t, f.presenter.Search(ctx, "   "), domain.ErrEmptyQuery)
}

func TestPresenter_FailedRefreshEmptiesGallery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.presenter.Refresh(ctx))
	f.source.err = errOffline

	err := f.presenter.Refresh(ctx)
	assert.ErrorIs(t, err, errOffline)
	assert.ErrorIs(t, err, ErrFetchFailed)

	got, err := f.presenter.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPresenter_BindShowsPlaceholderThenThumbnail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.presenter.Refresh(ctx))

	gate := f.fetcher.block("p1")
	require.NoError(t, f.presenter.Bind(ctx, 0, 1))

	img, loaded, err := f.presenter.Thumbnail(ctx, 0)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, f.presenter.placeholder, img)

	close(gate)
	assert.Equal(t, "p1", f.waitLoaded(t, 0))
}

func TestPresenter_RecycledSlotKeepsNewestImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.presenter.Refresh(ctx))

	slow := f.fetcher.block("p0")
	require.NoError(t, f.presenter.Bind(ctx, 5, 0))

	// The slot is recycled for position 2 while p0 is still downloading
	require.NoError(t, f.presenter.Bind(ctx, 5, 2))
	close(slow)

	assert.Equal(t, "p2", f.waitLoaded(t, 5))

	// Give the stale p0 result every chance to arrive
	time.Sleep(20 * time.Millisecond)
	testutils.Flush(t, f.loop)
	img, _, err := f.presenter.Thumbnail(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "p2", img.(urlImage).url)
}

func TestPresenter_BindErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.presenter.Refresh(ctx))

	assert.ErrorIs(t, f.presenter.Bind(ctx, 0, 3), ErrPositionOutOfRange)
	assert.ErrorIs(t, f.presenter.Bind(ctx, 0, -1), ErrPositionOutOfRange)
	assert.ErrorIs(t, f.presenter.Bind(ctx, -1, 0), ErrInvalidSlot)

	_, _, err := f.presenter.Thumbnail(ctx, 9)
	assert.ErrorIs(t, err, ErrUnknownSlot)
	assert.ErrorIs(t, f.presenter.Unbind(ctx, 9), ErrUnknownSlot)
}

func TestPresenter_Unbind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.presenter.Refresh(ctx))

	gate := f.fetcher.block("p0")
	require.NoError(t, f.presenter.Bind(ctx, 1, 0))
	require.NoError(t, f.presenter.Unbind(ctx, 1))
	close(gate)

	_, _, err := f.presenter.Thumbnail(ctx, 1)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestPresenter_RefreshRebindsSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.presenter.Refresh(ctx))

	require.NoError(t, f.presenter.Bind(ctx, 0, 0))
	require.NoError(t, f.presenter.Bind(ctx, 2, 2))
	assert.Equal(t, "p0", f.waitLoaded(t, 0))

	// The search has two results: slot 0 is rebound, slot 2 falls off the end
	require.NoError(t, f.presenter.Search(ctx, "cats"))
	assert.Equal(t, "c0", f.waitLoaded(t, 0))

	_, _, err := f.presenter.Thumbnail(ctx, 2)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestPresenter_HideDropsPendingAndShowRequeues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.presenter.Refresh(ctx))
	require.NoError(t, f.presenter.Show(ctx))
	assert.True(t, f.presenter.Visible())

	blocker := f.fetcher.block("p0")
	require.NoError(t, f.presenter.Bind(ctx, 0, 0))
	require.NoError(t, f.presenter.Bind(ctx, 1, 1))

	require.NoError(t, f.presenter.Hide(ctx))
	assert.False(t, f.presenter.Visible())
	close(blocker)

	// Neither request survives the hide
	time.Sleep(20 * time.Millisecond)
	testutils.Flush(t, f.loop)
	snap, err := f.presenter.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.BoundSlots)
	assert.Equal(t, 0, snap.LoadedSlots)

	require.NoError(t, f.presenter.Show(ctx))
	assert.Equal(t, "p0", f.waitLoaded(t, 0))
	assert.Equal(t, "p1", f.waitLoaded(t, 1))
}

func TestPresenter_Close(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.presenter.Show(ctx))

	f.presenter.Close()
	f.presenter.Close()

	assert.False(t, f.presenter.Visible())
	assert.ErrorIs(t, f.presenter.Refresh(ctx), ErrClosed)
	assert.ErrorIs(t, f.presenter.Bind(ctx, 0, 0), ErrClosed)
}

func TestPresenter_Snapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.presenter.Search(ctx, "cats"))
	require.NoError(t, f.presenter.Bind(ctx, 0, 0))
	f.waitLoaded(t, 0)

	snap, err := f.presenter.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cats", snap.Query)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, 1, snap.BoundSlots)
	assert.Equal(t, 1, snap.LoadedSlots)
	assert.False(t, snap.Visible)
}

// recordingThumbs is a Thumbnails that only remembers what was asked of it.
type recordingThumbs struct {
	mu      sync.Mutex
	queued  []string
	pending map[SlotID]string
}

func (r *recordingThumbs) Queue(id SlotID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		r.pending = make(map[SlotID]string)
	}
	r.queued = append(r.queued, url)
	r.pending[id] = url
	return nil
}

func (r *recordingThumbs) Cancel(id SlotID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

func (r *recordingThumbs) ClearQueue() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
}

func (r *recordingThumbs) Shutdown()                              {}
func (r *recordingThumbs) SetListener(thumbnail.Listener[SlotID]) {}

func (r *recordingThumbs) PendingURL(id SlotID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	url, ok := r.pending[id]
	return url, ok
}

func (r *recordingThumbs) Queued() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queued...)
}

func TestPresenter_ShowSkipsPendingSlots(t *testing.T) {
	logger := testutils.DiscardLogger()
	loop := task.NewLooper(logger)
	loop.Start()
	defer loop.Quit()

	thumbs := &recordingThumbs{}
	source := &fakeSource{popular: items("p0", "p1")}
	p := NewPresenter(source, store.NewMemoryPreferenceStore(), thumbs, loop, Options{}, logger)
	defer p.Close()

	ctx := context.Background()
	require.NoError(t, p.Refresh(ctx))
	require.NoError(t, p.Bind(ctx, 0, 0))
	require.NoError(t, p.Bind(ctx, 1, 1))
	require.Equal(t, []string{"p0", "p1"}, thumbs.Queued())

	// Both requests are still pending, so nothing is queued twice
	require.NoError(t, p.Show(ctx))
	assert.Equal(t, []string{"p0", "p1"}, thumbs.Queued())

	// Hide drops them; Show asks again
	require.NoError(t, p.Hide(ctx))
	require.NoError(t, p.Show(ctx))
	assert.ElementsMatch(t, []string{"p0", "p1", "p0", "p1"}, thumbs.Queued())
}

type recordingGate struct {
	mu         sync.Mutex
	registered []events.Visibility
	removed    []events.Visibility
}

func (g *recordingGate) Register(v events.Visibility) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registered = append(g.registered, v)
}

func (g *recordingGate) Unregister(v events.Visibility) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removed = append(g.removed, v)
}

func TestPresenter_GateRegistration(t *testing.T) {
	logger := testutils.DiscardLogger()
	loop := task.NewLooper(logger)
	loop.Start()
	defer loop.Quit()

	gate := &recordingGate{}
	p := NewPresenter(&fakeSource{}, store.NewMemoryPreferenceStore(), &recordingThumbs{}, loop, Options{Gate: gate}, logger)
	require.Len(t, gate.registered, 1)
	assert.Same(t, p, gate.registered[0])
	assert.Empty(t, gate.removed)

	p.Close()
	p.Close()
	require.Len(t, gate.removed, 1)
	assert.Same(t, p, gate.removed[0])
}
