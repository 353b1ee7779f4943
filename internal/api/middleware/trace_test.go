package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/photogallery/internal/api/shared"
	"github.com/phrazzld/photogallery/internal/platform/logger"
	"github.com/phrazzld/photogallery/internal/testutils"
)

func TestTraceMiddleware(t *testing.T) {
	base, handler := testutils.NewTestLogger()

	var seenTraceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTraceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	NewTraceMiddleware(base)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NotEmpty(t, seenTraceID)
	assert.Equal(t, seenTraceID, w.Header().Get(TraceHeader))
	assert.Equal(t, http.StatusTeapot, w.Code)

	infos := handler.EntriesAtLevel(slog.LevelInfo)
	require.Len(t, infos, 1)
	assert.Equal(t, seenTraceID, infos[0]["trace_id"])

	debugs := handler.EntriesAtLevel(slog.LevelDebug)
	require.Len(t, debugs, 1)
	assert.Equal(t, "request completed", debugs[0]["message"])
	assert.EqualValues(t, http.StatusTeapot, debugs[0]["status"])
}
