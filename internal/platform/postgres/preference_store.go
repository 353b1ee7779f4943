package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/phrazzld/photogallery/internal/platform/logger"
	"github.com/phrazzld/photogallery/internal/store"
)

// PreferenceStore implements store.PreferenceStore on a key/value table.
type PreferenceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPreferenceStore creates a PostgreSQL preference store.
// The caller owns db. If logger is nil, a default logger will be used.
func NewPreferenceStore(db store.DBTX, logger *slog.Logger) *PreferenceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceStore{
		db:     db,
		logger: logger.With(slog.String("component", "preference_store")),
	}
}

var _ store.PreferenceStore = (*PreferenceStore)(nil)

func (s *PreferenceStore) StoredQuery(ctx context.Context) (string, error) {
	value, _, err := s.get(ctx, store.KeySearchQuery)
	return value, err
}

// SetStoredQuery stores query, or deletes the row when it is blank.
func (s *PreferenceStore) SetStoredQuery(ctx context.Context, query string) error {
	query = store.NormalizeQuery(query)
	if query == "" {
		return s.remove(ctx, store.KeySearchQuery)
	}
	return s.set(ctx, store.KeySearchQuery, query)
}

func (s *PreferenceStore) LastResultID(ctx context.Context) (string, error) {
	value, _, err := s.get(ctx, store.KeyLastResultID)
	return value, err
}

func (s *PreferenceStore) SetLastResultID(ctx context.Context, id string) error {
	return s.set(ctx, store.KeyLastResultID, id)
}

func (s *PreferenceStore) AlarmOn(ctx context.Context) (bool, error) {
	value, ok, err := s.get(ctx, store.KeyAlarmOn)
	if err != nil || !ok {
		return false, err
	}
	return parseBool(value)
}

func (s *PreferenceStore) SetAlarmOn(ctx context.Context, on bool) error {
	return s.set(ctx, store.KeyAlarmOn, strconv.FormatBool(on))
}

// Snapshot reads every preference in a single query.
func (s *PreferenceStore) Snapshot(ctx context.Context) (store.Preferences, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM preferences WHERE key IN ($1, $2, $3)`,
		store.KeySearchQuery, store.KeyLastResultID, store.KeyAlarmOn)
	if err != nil {
		log.Error("failed to read preferences", slog.String("error", err.Error()))
		return store.Preferences{}, store.NewStoreError("preference", "snapshot", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var prefs store.Preferences
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return store.Preferences{}, store.NewStoreError("preference", "snapshot", "scan failed", MapError(err))
		}
		switch key {
		case store.KeySearchQuery:
			prefs.StoredQuery = value
		case store.KeyLastResultID:
			prefs.LastResultID = value
		case store.KeyAlarmOn:
			on, err := parseBool(value)
			if err != nil {
				return store.Preferences{}, err
			}
			prefs.AlarmOn = on
		}
	}
	if err := rows.Err(); err != nil {
		return store.Preferences{}, store.NewStoreError("preference", "snapshot", "iteration failed", MapError(err))
	}
	return prefs, nil
}

// get returns the stored value and whether a row exists.
func (s *PreferenceStore) get(ctx context.Context, key string) (string, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("preference not set", slog.String("key", key))
		return "", false, nil
	}
	if err != nil {
		log.Error("failed to read preference",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return "", false, store.NewStoreError("preference", "get", key, MapError(err))
	}
	return value, true, nil
}

func (s *PreferenceStore) set(ctx context.Context, key, value string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		log.Error("failed to write preference",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return store.NewStoreError("preference", "set", key,
			fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err)))
	}

	log.Debug("preference stored", slog.String("key", key))
	return nil
}

func (s *PreferenceStore) remove(ctx context.Context, key string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = $1`, key)
	if err != nil {
		log.Error("failed to clear preference",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return store.NewStoreError("preference", "delete", key, MapError(err))
	}

	if err := CheckRowsAffected(result, "preference"); err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("preference already clear", slog.String("key", key))
			return nil
		}
		log.Error("failed to confirm preference delete",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return store.NewStoreError("preference", "delete", key, err)
	}

	log.Debug("preference cleared", slog.String("key", key))
	return nil
}

func parseBool(value string) (bool, error) {
	on, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s is not a boolean: %q", store.ErrInvalidEntity, store.KeyAlarmOn, value)
	}
	return on, nil
}
