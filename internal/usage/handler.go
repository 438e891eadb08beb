package usage

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/shared/server/respond"
)

// Handler exposes usage endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.getUsage)
}

func (h *Handler) getUsage(c *gin.Context) {
	ctx := c.Request.Context()
	l, err := h.Svc.CheckUsage(ctx, middleware.UserIDFromContext(c))
	if err == nil {
		l, err = h.Svc.ResetIfNeeded(ctx, l)
	}
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to fetch usage data", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"remainingUses": l.RemainingUses,
		"resetDate":     l.ResetAt,
		"totalScans":    l.TotalScans,
	})
}
