package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.Initialize(logger.Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() {
		logger.Initialize(logger.Config{Level: "info", Format: "console"})
	})
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func newLoggingRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware("/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/items/:id", func(c *gin.Context) {
		c.Set(UserIDKey, "admin-1")
		c.String(http.StatusOK, GetRequestID(c))
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	captureLogs(t)
	router := newLoggingRouter()

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/1", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items/1", nil)
		req.Header.Set(RequestIDHeader, "trace-abc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "trace-abc", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "trace-abc", w.Body.String())
	})
}

func TestLoggingMiddleware_CompletionLog(t *testing.T) {
	buf := captureLogs(t)
	router := newLoggingRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/9?token=secret-jwt", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.NotContains(t, buf.String(), "secret-jwt")

	lines := logLines(t, buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "/items/9", lines[0]["path"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "admin-1", lines[0]["user_id"])
	assert.EqualValues(t, 200, lines[0]["status_code"])

	assert.Equal(t, "/boom", lines[1]["path"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.NotContains(t, lines[1], "user_id")
}

func TestGetLoggerFromContext_Fallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Same(t, logger.Get(), GetLoggerFromContext(c))
}
