// Package testutils provides shared helpers for tests: an in-memory slog
// handler for asserting on log output, and a discard logger.
package testutils
