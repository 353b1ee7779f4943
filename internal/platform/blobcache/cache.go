package blobcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"github.com/phrazzld/photogallery/internal/redact"
)

// ErrNilBucket is returned by New when no bucket is provided.
var ErrNilBucket = errors.New("blobcache: bucket is nil")

const keyPrefix = "thumbnails/"

// Fetcher downloads the raw bytes behind a URL.
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Cache is a read-through Fetcher backed by a blob bucket.
// Cache write failures are logged and never fail the fetch.
type Cache struct {
	bucket *blob.Bucket
	next   Fetcher
	logger *slog.Logger
}

// Open opens the bucket at bucketURL and wraps next with it.
// The returned Cache owns the bucket; call Close to release it.
func Open(ctx context.Context, bucketURL string, next Fetcher, logger *slog.Logger) (*Cache, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open cache bucket: %w", err)
	}
	return New(bucket, next, logger)
}

// New wraps next with a cache stored in bucket.
func New(bucket *blob.Bucket, next Fetcher, logger *slog.Logger) (*Cache, error) {
	if bucket == nil {
		return nil, ErrNilBucket
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		bucket: bucket,
		next:   next,
		logger: logger.With("component", "blobcache"),
	}, nil
}

// FetchBytes returns the cached bytes for url, falling through to the wrapped
// Fetcher on a miss and storing what it returns.
func (c *Cache) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	key := Key(url)

	data, err := c.bucket.ReadAll(ctx, key)
	switch {
	case err == nil:
		c.logger.Debug("cache hit", "key", key)
		return data, nil
	case gcerrors.Code(err) != gcerrors.NotFound:
		c.logger.Warn("cache read failed, fetching from origin",
			"key", key,
			"error", err)
	}

	data, err = c.next.FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := c.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		Metadata: map[string]string{"source_url": redact.URL(url)},
	}); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return data, nil
}

// Evict removes the cached bytes for url. A missing entry is not an error.
func (c *Cache) Evict(ctx context.Context, url string) error {
	err := c.bucket.Delete(ctx, Key(url))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("evict %s: %w", redact.URL(url), err)
	}
	return nil
}

// Close releases the underlying bucket.
func (c *Cache) Close() error {
	return c.bucket.Close()
}

// Key returns the blob key for url.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}
