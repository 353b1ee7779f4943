package store

import (
	"context"
	"strings"
)

// Preference keys shared by every PreferenceStore implementation.
const (
	KeySearchQuery  = "search_query"
	KeyLastResultID = "last_result_id"
	KeyAlarmOn      = "is_alarm_on"
)

// Preferences is a snapshot of every stored preference.
type Preferences struct {
	StoredQuery  string `json:"stored_query"`
	LastResultID string `json:"last_result_id"`
	AlarmOn      bool   `json:"alarm_on"`
}

// PreferenceStore persists the gallery's user preferences.
// Missing values read as their zero value; they are never an error.
type PreferenceStore interface {
	// StoredQuery returns the active search query, or "" when browsing popular photos.
	StoredQuery(ctx context.Context) (string, error)

	// SetStoredQuery stores the active search query. An empty (or blank) query clears it.
	SetStoredQuery(ctx context.Context, query string) error

	// LastResultID returns the id of the newest result seen by the poller.
	LastResultID(ctx context.Context) (string, error)

	// SetLastResultID records the id of the newest result seen by the poller.
	SetLastResultID(ctx context.Context, id string) error

	// AlarmOn reports whether background polling was switched on.
	AlarmOn(ctx context.Context) (bool, error)

	// SetAlarmOn records whether background polling is switched on.
	SetAlarmOn(ctx context.Context, on bool) error

	// Snapshot returns every preference at once.
	Snapshot(ctx context.Context) (Preferences, error)
}

// NormalizeQuery trims surrounding whitespace from a search query.
func NormalizeQuery(query string) string {
	return strings.TrimSpace(query)
}
