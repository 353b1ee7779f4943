// Package store defines interfaces for data persistence operations.
// The gallery keeps only a handful of small preferences: the active search
// query, the id of the newest result seen by the background poller, and
// whether polling is switched on. PreferenceStore abstracts where they live;
// MemoryPreferenceStore serves tests and database-less runs, and
// internal/platform/postgres provides the durable implementation.
package store
