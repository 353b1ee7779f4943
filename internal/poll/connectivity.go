package poll

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/phrazzld/photogallery/internal/redact"
)

// Connectivity reports whether the network is usable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// AlwaysOnline is a Connectivity that never reports offline.
type AlwaysOnline struct{}

// Online implements Connectivity.
func (AlwaysOnline) Online(context.Context) bool { return true }

// HTTPConnectivity sends a HEAD request to a URL and treats any response
// below 500 as online.
type HTTPConnectivity struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPConnectivity checks url with the given timeout.
func NewHTTPConnectivity(url string, timeout time.Duration, logger *slog.Logger) *HTTPConnectivity {
	if logger == nil {
		logger = slog.Default()
	}
	client := cleanhttp.DefaultClient()
	client.Timeout = timeout
	return &HTTPConnectivity{
		url:    url,
		client: client,
		logger: logger.With("component", "connectivity_check"),
	}
}

// Online implements Connectivity.
func (p *HTTPConnectivity) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.logger.Warn("invalid connectivity check request", "url", redact.URL(p.url), "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("connectivity check failed", "url", redact.URL(p.url), "error", redact.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode < http.StatusInternalServerError
}
