package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{" http://localhost:3000/ "}))
	r.POST("/api/scan-history/:scanId", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/api/usage", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func corsDo(r *gin.Engine, method, path, origin string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSPreflight(t *testing.T) {
	w := corsDo(corsRouter(), http.MethodOptions, "/api/scan-history/abc", "http://localhost:3000",
		"Access-Control-Request-Method", http.MethodDelete,
		"Access-Control-Request-Headers", "authorization,content-type")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "authorization")
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORSSimpleRequest(t *testing.T) {
	w := corsDo(corsRouter(), http.MethodPost, "/api/scan-history/abc", "http://localhost:3000")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
	assert.Empty(t, w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORSUnknownOrigin(t *testing.T) {
	r := corsRouter()

	w := corsDo(r, http.MethodGet, "/api/usage", "https://evil.example")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = corsDo(r, http.MethodOptions, "/api/usage", "https://evil.example", "Access-Control-Request-Method", http.MethodGet)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))

	// A bare OPTIONS is not a preflight but still stops here.
	w = corsDo(r, http.MethodOptions, "/api/usage", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
