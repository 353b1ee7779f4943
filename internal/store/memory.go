package store

import (
	"context"
	"sync"
)

// MemoryPreferenceStore keeps preferences in process memory.
// It is safe for concurrent use.
type MemoryPreferenceStore struct {
	mu    sync.RWMutex
	prefs Preferences
}

// NewMemoryPreferenceStore returns an empty in-memory store.
func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{}
}

var _ PreferenceStore = (*MemoryPreferenceStore)(nil)

func (s *MemoryPreferenceStore) StoredQuery(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.StoredQuery, nil
}

func (s *MemoryPreferenceStore) SetStoredQuery(ctx context.Context, query string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.StoredQuery = NormalizeQuery(query)
	return nil
}

func (s *MemoryPreferenceStore) LastResultID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.LastResultID, nil
}

func (s *MemoryPreferenceStore) SetLastResultID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.LastResultID = id
	return nil
}

func (s *MemoryPreferenceStore) AlarmOn(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.AlarmOn, nil
}

func (s *MemoryPreferenceStore) SetAlarmOn(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.AlarmOn = on
	return nil
}

func (s *MemoryPreferenceStore) Snapshot(ctx context.Context) (Preferences, error) {
	if err := ctx.Err(); err != nil {
		return Preferences{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs, nil
}
