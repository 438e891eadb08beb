package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc          *Service
	CookieSecure bool
}

func NewHandler(svc *Service, cookieSecure bool) *Handler {
	return &Handler{Svc: svc, CookieSecure: cookieSecure}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/user", h.deleteAccount)
}

func (h *Handler) deleteAccount(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), userID); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to delete account", nil)
		return
	}

	middleware.ClearTokenCookie(c, h.CookieSecure)
	respond.Success(c)
}
