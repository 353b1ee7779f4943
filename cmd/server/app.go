package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/phrazzld/photogallery/internal/config"
	"github.com/phrazzld/photogallery/internal/events"
	"github.com/phrazzld/photogallery/internal/gallery"
	"github.com/phrazzld/photogallery/internal/notify"
	"github.com/phrazzld/photogallery/internal/platform/blobcache"
	"github.com/phrazzld/photogallery/internal/platform/fivehundredpx"
	"github.com/phrazzld/photogallery/internal/platform/postgres"
	"github.com/phrazzld/photogallery/internal/poll"
	"github.com/phrazzld/photogallery/internal/redact"
	"github.com/phrazzld/photogallery/internal/store"
	"github.com/phrazzld/photogallery/internal/task"
	"github.com/phrazzld/photogallery/internal/thumbnail"
)

// checkTimeout bounds each connectivity check made before a poll
const checkTimeout = 5 * time.Second

var _ thumbnail.Evicter = (*blobcache.Cache)(nil)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	prefs  store.PreferenceStore
	photos *fivehundredpx.Client
	cache  *blobcache.Cache

	// loop owns the gallery state
	loop    *task.Looper
	thumbs  *thumbnail.Downloader[gallery.SlotID]
	gallery *gallery.Presenter

	emitter *events.InMemoryEventEmitter
	gate    *events.VisibilityGate
	amqp    *notify.Connection
	poller  *poll.Poller
}

// newApplication wires the application. db may be nil, in which case
// preferences are kept in memory. On success the main loop is running and
// the poll alarm has been restored.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	if db != nil {
		app.prefs = postgres.NewPreferenceStore(db, logger)
	} else {
		app.prefs = store.NewMemoryPreferenceStore()
	}

	var err error
	app.photos, err = fivehundredpx.NewClient(fivehundredpx.Options{
		BaseURL:     cfg.API.BaseURL,
		ConsumerKey: cfg.API.ConsumerKey,
		ImageSize:   cfg.API.ImageSize,
		Sort:        cfg.API.Sort,
		Timeout:     cfg.API.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create photo API client: %w", err)
	}

	var fetcher thumbnail.Fetcher = app.photos
	if cfg.Cache.BucketURL != "" {
		app.cache, err = blobcache.Open(ctx, cfg.Cache.BucketURL, app.photos, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open thumbnail cache: %w", err)
		}
		fetcher = app.cache
		logger.Info("Thumbnail cache enabled", "bucket", redact.URL(cfg.Cache.BucketURL))
	}

	color, err := gallery.ParseHexColor(cfg.Thumbnail.Placeholder)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("invalid placeholder color: %w", err)
	}
	placeholderSize := cfg.Thumbnail.MaxDimension
	if placeholderSize <= 0 {
		placeholderSize = 1
	}

	app.loop = task.NewLooper(logger)
	app.loop.Start()

	app.thumbs = thumbnail.NewDownloader[gallery.SlotID](
		fetcher,
		thumbnail.ImageDecoder{MaxDimension: cfg.Thumbnail.MaxDimension},
		app.loop,
		logger,
	)

	app.gate = events.NewVisibilityGate(logger)
	app.gallery = gallery.NewPresenter(
		app.photos,
		app.prefs,
		app.thumbs,
		app.loop,
		gallery.Options{
			Placeholder: gallery.NewPlaceholder(color, placeholderSize),
			Gate:        app.gate,
		},
		logger,
	)

	// The gate goes first so a visible gallery consumes the event before
	// anyone is notified.
	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(app.gate)
	app.emitter.RegisterHandler(notify.NewLogNotifier(logger))

	if cfg.Notify.AMQPURL != "" {
		app.amqp, err = dialNotifier(ctx, cfg.Notify, logger)
		if err != nil {
			app.cleanup()
			return nil, err
		}
		amqpNotifier, err := notify.NewAMQPNotifier(
			app.amqp.Channel(),
			cfg.Notify.Exchange,
			cfg.Notify.RoutingKey,
			logger,
		)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to create AMQP notifier: %w", err)
		}
		app.emitter.RegisterHandler(amqpNotifier)
	}

	connectivity := poll.Connectivity(poll.AlwaysOnline{})
	if cfg.Poll.CheckURL != "" {
		connectivity = poll.NewHTTPConnectivity(cfg.Poll.CheckURL, checkTimeout, logger)
	}

	app.poller = poll.NewPoller(app.photos, app.prefs, app.emitter, poll.Options{
		Interval:     cfg.Poll.Interval,
		Connectivity: connectivity,
	}, logger)

	if err := app.poller.Restore(ctx, cfg.Poll.EnabledOnStart); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to restore poll alarm: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// dialNotifier connects to the AMQP broker, retrying while it comes up.
func dialNotifier(ctx context.Context, cfg config.NotifyConfig, logger *slog.Logger) (*notify.Connection, error) {
	var conn *notify.Connection
	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := notify.Dial(cfg.AMQPURL, cfg.Exchange)
		if err != nil {
			logger.Warn("AMQP broker not reachable yet", "error", redact.Error(err))
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	logger.Info("AMQP notifications enabled", "exchange", cfg.Exchange, "routing_key", cfg.RoutingKey)
	return conn, nil
}

// cleanup handles graceful shutdown of application resources.
// It is safe to call on a partially built application.
func (app *application) cleanup() {
	if app.poller != nil {
		app.poller.Stop()
	}
	if app.gallery != nil {
		app.gallery.Close()
	}
	if app.loop != nil {
		app.loop.Quit()
	}

	var errs []error
	if app.amqp != nil {
		errs = append(errs, app.amqp.Close())
	}
	if app.cache != nil {
		errs = append(errs, app.cache.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("Error releasing resources", "error", err)
	}

	app.logger.Info("Application shutdown completed")
}
