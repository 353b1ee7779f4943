// Package postgres provides the PostgreSQL implementation of
// store.PreferenceStore, the embedded goose migrations that create its
// schema, and helpers that map driver errors onto store errors.
//
// Connections are opened through the pgx database/sql driver
// (github.com/jackc/pgx/v5/stdlib) by the caller.
package postgres
