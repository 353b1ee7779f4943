package fivehundredpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/phrazzld/photogallery/internal/domain"
	"github.com/phrazzld/photogallery/internal/redact"
)

// defaultMaxBodySize bounds every response body read into memory
const defaultMaxBodySize = 32 << 20

// Options configures the API client.
type Options struct {
	// BaseURL is the API root, e.g. https://api.500px.com/v1
	BaseURL string

	// ConsumerKey is sent with every listing request.
	ConsumerKey string

	// ImageSize selects the thumbnail size variant returned in image_url.
	// Default: 3
	ImageSize int

	// Sort is the listing sort order.
	// Default: rating
	Sort string

	// Timeout for individual requests.
	// Default: 30s
	Timeout time.Duration

	// MaxBodySize is the largest body FetchBytes accepts, in bytes.
	// Default: 32 MiB
	MaxBodySize int64

	// HTTPClient overrides the pooled client built from Timeout.
	HTTPClient *http.Client
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		BaseURL:     "https://api.500px.com/v1",
		ImageSize:   3,
		Sort:        "rating",
		Timeout:     30 * time.Second,
		MaxBodySize: defaultMaxBodySize,
	}
}

// Client talks to the photo listing API. It fetches listings (popular and search)
// and the raw bytes behind image URLs.
type Client struct {
	http   *http.Client
	base   *url.URL
	opts   Options
	logger *slog.Logger
}

// NewClient creates a new API client with the given options.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	defaults := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.ImageSize <= 0 {
		opts.ImageSize = defaults.ImageSize
	}
	if opts.Sort == "" {
		opts.Sort = defaults.Sort
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaults.MaxBodySize
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
		httpClient.Timeout = opts.Timeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:   httpClient,
		base:   base,
		opts:   opts,
		logger: logger.With("component", "photo_api"),
	}, nil
}

// FetchBytes downloads the body behind rawURL. Any status other than 200 OK is an error,
// and so is a body larger than Options.MaxBodySize.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error repeats the full URL, key included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("get %s: %w", redact.URL(rawURL), err)
	}
	defer resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode, resp.Status); err != nil {
		return nil, fmt.Errorf("get %s: %w", redact.URL(rawURL), err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", redact.URL(rawURL), err)
	}
	if int64(len(body)) > c.opts.MaxBodySize {
		return nil, fmt.Errorf("read body of %s: %w (limit %d bytes)",
			redact.URL(rawURL), ErrBodyTooLarge, c.opts.MaxBodySize)
	}

	return body, nil
}

// FetchPopular returns the popular photo feed.
func (c *Client) FetchPopular(ctx context.Context) ([]domain.GalleryItem, error) {
	return c.downloadItems(ctx, c.popularURL())
}

// Search returns photos matching query. An empty query is rejected with domain.ErrEmptyQuery.
func (c *Client) Search(ctx context.Context, query string) ([]domain.GalleryItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	return c.downloadItems(ctx, c.searchURL(query))
}

// Fetch returns the search results for query, or the popular feed when query is empty.
func (c *Client) Fetch(ctx context.Context, query string) ([]domain.GalleryItem, error) {
	if strings.TrimSpace(query) == "" {
		return c.FetchPopular(ctx)
	}
	return c.Search(ctx, query)
}

func (c *Client) downloadItems(ctx context.Context, listingURL string) ([]domain.GalleryItem, error) {
	body, err := c.FetchBytes(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}

	items, dropped, err := parseItems(body)
	if err != nil {
		return nil, fmt.Errorf("fetch items from %s: %w", redact.URL(listingURL), err)
	}

	c.logger.Debug("fetched items",
		"url", redact.URL(listingURL),
		"count", len(items),
		"dropped", dropped)

	return items, nil
}

func (c *Client) popularURL() string {
	u := c.base.JoinPath("photos")
	q := url.Values{}
	q.Set("feature", "popular")
	return c.packageURL(u, q)
}

func (c *Client) searchURL(query string) string {
	u := c.base.JoinPath("photos", "search")
	q := url.Values{}
	q.Set("term", query)
	return c.packageURL(u, q)
}

func (c *Client) packageURL(u *url.URL, q url.Values) string {
	q.Set("sort", c.opts.Sort)
	q.Set("image_size", strconv.Itoa(c.opts.ImageSize))
	q.Set("consumer_key", c.opts.ConsumerKey)
	u.RawQuery = q.Encode()
	return u.String()
}
