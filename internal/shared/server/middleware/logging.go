package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/shared/telemetry"
)

const (
	scanIDKey    = "scanId"
	operationKey = "operation"
)

// SetScanID tags the request log line with the scan it touched.
func SetScanID(c *gin.Context, id string) { c.Set(scanIDKey, id) }

// SetOperation tags the request log line with the handler's operation name.
func SetOperation(c *gin.Context, op string) { c.Set(operationKey, op) }

// OperationFromContext returns the name set by SetOperation.
func OperationFromContext(c *gin.Context) string { return c.GetString(operationKey) }

var quietPaths = map[string]bool{"/health": true, "/metrics": true}

// Logging writes one "request.complete" line per request. Preflights and
// probe endpoints are not logged. 5xx lines are errors, 4xx warnings.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || quietPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"bytes":       c.Writer.Size(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
			"client_ip":   c.ClientIP(),
		}
		for key, ctxKey := range map[string]string{"user_id": userIDKey, "scan_id": scanIDKey, "operation": operationKey} {
			if v := c.GetString(ctxKey); v != "" {
				fields[key] = v
			}
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields["user_agent"] = ua
		}

		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("request.complete", fields)
		case status >= http.StatusBadRequest:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
