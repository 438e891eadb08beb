package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ramresume-backend/internal/account"
	googleauth "ramresume-backend/internal/auth"
	"ramresume-backend/internal/files"
	"ramresume-backend/internal/scans"
	"ramresume-backend/internal/services/health"
	"ramresume-backend/internal/shared/auth"
	"ramresume-backend/internal/shared/config"
	"ramresume-backend/internal/shared/metrics"
	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/shared/server/respond"
	"ramresume-backend/internal/toolbox"
	"ramresume-backend/internal/usage"
	"ramresume-backend/internal/users"
)

// Rate limit groups.
const (
	GroupStandard = "STANDARD"
	GroupAuth     = "AUTH"
	GroupAI       = "AI"
	GroupUpload   = "UPLOAD"
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config         config.Config
	Tokens         *auth.Issuer
	Identities     middleware.IdentityLookup
	Limiter        middleware.Limiter
	Health         *health.Service
	UserHandler    *users.Handler
	UsageHandler   *usage.Handler
	ScanHandler    *scans.Handler
	ToolboxHandler *toolbox.Handler
	FilesHandler   *files.Handler
	AccountHandler *account.Handler
	GoogleAuth     *googleauth.GoogleService
}

// DefaultRateLimitRules returns the per-group request allowances.
func DefaultRateLimitRules() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		GroupStandard: middleware.PerWindow(100, 15*time.Minute),
		GroupAuth:     middleware.PerWindow(30, time.Hour),
		GroupAI:       middleware.PerWindow(10, time.Hour),
		GroupUpload:   middleware.PerWindow(20, time.Hour),
	}
}

// GroupFor maps a request path to its rate limit group.
func GroupFor(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case path == "/health" || path == "/metrics":
		return middleware.SkipRateLimit
	case path == "/auth/google/callback":
		return middleware.SkipRateLimit
	case strings.HasPrefix(path, "/auth/"):
		return GroupAuth
	case path == "/api/extract-keywords" || path == "/api/resume" || path == "/api/cover-letter":
		return GroupAI
	case path == "/api/upload" || path == "/api/extract-text":
		return GroupUpload
	default:
		return GroupStandard
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		metrics.Middleware(),
	)
	// Limiting runs ahead of Auth so rejected credentials still count.
	if deps.Config.RateLimitEnabled {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        DefaultRateLimitRules(),
			DefaultGroup: GroupStandard,
			GroupFor:     GroupFor,
			Limiter:      deps.Limiter,
			Principal:    middleware.TokenSubject(deps.Tokens),
		}))
	}
	r.Use(middleware.Auth(middleware.AuthConfig{
		Tokens:     deps.Tokens,
		Identities: deps.Identities,
		SkipPrefixes: []string{
			"/auth/google",
			"/auth/login-failed",
			"/auth/logout",
			"/health",
			"/metrics",
		},
	}))

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	r.GET("/health", func(c *gin.Context) {
		body, ok := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, body)
	})
	r.GET("/metrics", metrics.Handler())

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(r.Group("/auth"))
	}

	api := r.Group("/api")
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
	}
	if deps.ScanHandler != nil {
		deps.ScanHandler.RegisterRoutes(api)
	}
	if deps.FilesHandler != nil {
		deps.FilesHandler.RegisterRoutes(api)
		deps.FilesHandler.RegisterUploadRoutes(api)
	}
	if deps.ToolboxHandler != nil {
		tools := api.Group("", middleware.RequireTerms())
		deps.ToolboxHandler.RegisterRoutes(tools)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
