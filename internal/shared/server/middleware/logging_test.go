package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramresume-backend/internal/shared/telemetry"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(nil) })
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func loggingRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), func(c *gin.Context) {
		SetIdentity(c, Identity{UserID: "google:42", TermsAccepted: true})
		c.Next()
	}, Logging())
	r.POST("/api/resume", func(c *gin.Context) {
		SetScanID(c, "scan-1")
		SetOperation(c, "resume")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/api/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestLoggingRequestLine(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodPost, "/api/resume", nil)
	req.Header.Set("X-Request-Id", "req-123")
	loggingRouter().ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, buf)
	require.NotEmpty(t, lines)
	got := lines[len(lines)-1]
	assert.Equal(t, "request.complete", got["msg"])
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "req-123", got["request_id"])
	assert.Equal(t, "google:42", got["user_id"])
	assert.Equal(t, "scan-1", got["scan_id"])
	assert.Equal(t, "resume", got["operation"])
	assert.Equal(t, "/api/resume", got["route"])
	assert.Contains(t, got, "duration_ms")
	assert.EqualValues(t, http.StatusOK, got["status"])
}

func TestLoggingLevelAndQuietPaths(t *testing.T) {
	buf := captureLogs(t)
	r := loggingRouter()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodOptions, "/api/resume", nil))
	assert.Empty(t, strings.TrimSpace(buf.String()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/missing", nil))
	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.NotContains(t, lines[0], "scan_id")
}
