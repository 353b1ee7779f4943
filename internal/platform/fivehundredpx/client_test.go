package fivehundredpx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/phrazzld/photogallery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		BaseURL:     server.URL + "/v1",
		ConsumerKey: "secret-key",
		HTTPClient:  server.Client(),
	}, testLogger())
	require.NoError(t, err)
	return client
}

const listingBody = `{
  "photos": [
    {"id": 101, "description": "sunrise", "image_url": "https://cdn.example.com/101.jpg"},
    {"id": "102", "description": null, "image_url": ["https://cdn.example.com/102.jpg", "https://cdn.example.com/102-big.jpg"]},
    {"id": 103, "description": "no image"},
    {"id": 104, "description": "empty image", "image_url": ""}
  ]
}`

func TestClient_FetchPopular(t *testing.T) {
	var gotQuery url.Values
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = io.WriteString(w, listingBody)
	}))

	items, err := client.FetchPopular(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/v1/photos", gotPath)
	assert.Equal(t, "popular", gotQuery.Get("feature"))
	assert.Equal(t, "rating", gotQuery.Get("sort"))
	assert.Equal(t, "3", gotQuery.Get("image_size"))
	assert.Equal(t, "secret-key", gotQuery.Get("consumer_key"))

	assert.Equal(t, []domain.GalleryItem{
		{ID: "101", Caption: "sunrise", URL: "https://cdn.example.com/101.jpg"},
		{ID: "102", URL: "https://cdn.example.com/102.jpg"},
	}, items)
}

func TestClient_Search(t *testing.T) {
	var gotQuery url.Values
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = io.WriteString(w, `{"photos": [{"id": 7, "description": "cat", "image_url": "https://cdn.example.com/7.jpg"}]}`)
	}))

	t.Run("query is sent as term", func(t *testing.T) {
		items, err := client.Search(context.Background(), "black cat")
		require.NoError(t, err)

		assert.Equal(t, "/v1/photos/search", gotPath)
		assert.Equal(t, "black cat", gotQuery.Get("term"))
		assert.Empty(t, gotQuery.Get("feature"))
		require.Len(t, items, 1)
		assert.Equal(t, "7", items[0].ID)
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		_, err := client.Search(context.Background(), "  ")
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	})
}

func TestClient_Fetch(t *testing.T) {
	paths := make([]string, 0, 2)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = io.WriteString(w, `{"photos": []}`)
	}))

	_, err := client.Fetch(context.Background(), "")
	require.NoError(t, err)
	_, err = client.Fetch(context.Background(), "dogs")
	require.NoError(t, err)

	assert.Equal(t, []string{"/v1/photos", "/v1/photos/search"}, paths)
}

func TestClient_ListingErrorsAreDistinguishable(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, "", ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, "", ErrUnauthorized},
		{"forbidden", http.StatusForbidden, "", ErrForbidden},
		{"server error", http.StatusBadGateway, "", ErrServerError},
		{"teapot", http.StatusTeapot, "", ErrUnexpectedStatus},
		{"not json", http.StatusOK, "<html>", ErrMalformedBody},
		{"missing photos", http.StatusOK, `{"total_items": 0}`, ErrMalformedBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			items, err := client.FetchPopular(context.Background())
			assert.Nil(t, items)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotContains(t, err.Error(), "secret-key")
		})
	}
}

func TestClient_EmptyListingIsNotAnError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"photos": []}`)
	}))

	items, err := client.FetchPopular(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_FetchBytes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL, HTTPClient: server.Client()}, testLogger())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		data, err := client.FetchBytes(context.Background(), server.URL+"/ok.png")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
	})

	t.Run("non-success status", func(t *testing.T) {
		_, err := client.FetchBytes(context.Background(), server.URL+"/missing.png")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.FetchBytes(ctx, server.URL+"/ok.png")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_FetchBytesSizeLimit(t *testing.T) {
	const limit = 64

	mux := http.NewServeMux()
	mux.HandleFunc("/exact", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{'x'}, limit))
	})
	mux.HandleFunc("/over", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{'x'}, limit+10))
	})
	mux.HandleFunc("/photos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, listingBody)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(Options{
		BaseURL:     server.URL,
		HTTPClient:  server.Client(),
		MaxBodySize: limit,
	}, testLogger())
	require.NoError(t, err)

	t.Run("body at the limit", func(t *testing.T) {
		data, err := client.FetchBytes(context.Background(), server.URL+"/exact")
		require.NoError(t, err)
		assert.Len(t, data, limit)
	})

	t.Run("body over the limit", func(t *testing.T) {
		data, err := client.FetchBytes(context.Background(), server.URL+"/over")
		assert.ErrorIs(t, err, ErrBodyTooLarge)
		assert.Nil(t, data)
	})

	t.Run("oversized listing", func(t *testing.T) {
		_, err := client.FetchPopular(context.Background())
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client, err := NewClient(Options{ConsumerKey: "k"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://api.500px.com/v1", client.opts.BaseURL)
		assert.Equal(t, 3, client.opts.ImageSize)
		assert.Equal(t, "rating", client.opts.Sort)
		assert.Equal(t, DefaultOptions().Timeout, client.http.Timeout)
		assert.Equal(t, int64(defaultMaxBodySize), client.opts.MaxBodySize)
	})

	t.Run("relative base URL", func(t *testing.T) {
		_, err := NewClient(Options{BaseURL: "/v1"}, nil)
		assert.Error(t, err)
	})
}
