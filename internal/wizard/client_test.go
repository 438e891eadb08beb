package wizard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientExtractKeywords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/extract-keywords", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body["company"])
		_, _ = w.Write([]byte(`{"keywords":["SQL"],"scanId":"s1"}`))
	}))
	defer server.Close()

	keywords, scanID, err := NewClient(server.URL+"/", "tok").ExtractKeywords(context.Background(), "jd", "Acme", "Intern")
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL"}, keywords)
	assert.Equal(t, "s1", scanID)
}

func TestClientDecodesUsageLimitError(t *testing.T) {
	reset := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":         map[string]any{"code": "usage_limit_exceeded", "message": "Usage limit reached"},
			"resetDate":     reset,
			"remainingUses": 0,
		})
	}))
	defer server.Close()

	_, _, err := NewClient(server.URL, "tok").ExtractKeywords(context.Background(), "jd", "", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindUsageLimit, apiErr.Kind)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.True(t, reset.Equal(apiErr.ResetDate))
}

func TestClientDecodesRateLimitError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limited","message":"Too many requests, please try again later.","retryAfterMs":1500}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "tok").Usage(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindRateLimited, apiErr.Kind)
	assert.Equal(t, 1500*time.Millisecond, apiErr.RetryAfter)
	assert.Equal(t, "Too many requests, please try again later.", apiErr.Message)
}

func TestClientNonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").History(context.Background())
	assert.True(t, IsKind(err, KindUpstream))
}
