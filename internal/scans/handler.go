package scans

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/shared/server/respond"
)

// Handler exposes scan history.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches scan routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/scan-history", h.history)
}

func (h *Handler) history(c *gin.Context) {
	records, err := h.Svc.History(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to fetch scan history", nil)
		}
		return
	}
	respond.OK(c, records)
}
