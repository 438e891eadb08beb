package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Success writes the {"success":true} acknowledgement used by mutations
// that return no resource.
func Success(c *gin.Context) {
	OK(c, gin.H{"success": true})
}
