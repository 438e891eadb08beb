package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/shared/telemetry"
)

// Context keys set by the request-id and auth middleware.
const (
	requestIDKey = "requestId"
	userIDKey    = "userId"
)

// ErrorBody is the object under "error" in every failure response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts the request with the standard error envelope.
func Error(c *gin.Context, status int, code, message string, details any) {
	ErrorWithFields(c, status, code, message, details, nil)
}

// ErrorWithFields is Error with extra top-level fields beside "error",
// such as resetDate on quota failures. A key named "error" in extra is
// ignored.
func ErrorWithFields(c *gin.Context, status int, code, message string, details any, extra map[string]any) {
	logError(c, status, code, message)

	body := ErrorBody{Code: code, Message: message, Details: details}
	if len(extra) == 0 {
		c.AbortWithStatusJSON(status, ErrorResponse{Error: body})
		return
	}
	out := gin.H{}
	for k, v := range extra {
		out[k] = v
	}
	out["error"] = body
	c.AbortWithStatusJSON(status, out)
}

// Client mistakes are logged as warnings; only 5xx are errors.
func logError(c *gin.Context, status int, code, message string) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": c.GetString(requestIDKey),
	}
	if uid := c.GetString(userIDKey); uid != "" {
		fields["user_id"] = uid
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
		return
	}
	telemetry.Warn("http.error", fields)
}
