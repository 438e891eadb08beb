package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"ramresume-backend/internal/account"
	googleauth "ramresume-backend/internal/auth"
	"ramresume-backend/internal/files"
	"ramresume-backend/internal/generation"
	"ramresume-backend/internal/llm"
	"ramresume-backend/internal/llm/gemini"
	openai "ramresume-backend/internal/llm/openai"
	"ramresume-backend/internal/scans"
	"ramresume-backend/internal/services/health"
	sharedauth "ramresume-backend/internal/shared/auth"
	"ramresume-backend/internal/shared/config"
	"ramresume-backend/internal/shared/server"
	"ramresume-backend/internal/shared/server/middleware"
	"ramresume-backend/internal/shared/storage/db"
	"ramresume-backend/internal/shared/storage/object"
	localstore "ramresume-backend/internal/shared/storage/object/local"
	s3store "ramresume-backend/internal/shared/storage/object/s3"
	"ramresume-backend/internal/shared/telemetry"
	"ramresume-backend/internal/toolbox"
	"ramresume-backend/internal/usage"
	"ramresume-backend/internal/users"
)

const rateLimitKeyPrefix = "ramresume:rl:"

// App holds shared dependencies and the assembled router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Redis    *redis.Client
	Store    object.ObjectStore
	Provider llm.Provider
	Tokens   *sharedauth.Issuer

	UsersService   *users.Service
	UsageService   *usage.Service
	ScansService   *scans.Service
	FilesService   *files.Service
	AccountService *account.Service
	Gateway        *generation.Gateway
	GoogleAuth     *googleauth.GoogleService

	closers []io.Closer
}

// Build prepares shared dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tokens, err := sharedauth.NewIssuer(cfg.JWTSecret, cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Provider: provider,
		Tokens:   tokens,
	}
	if c, ok := provider.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}

	limiter, err := app.buildLimiter()
	if err != nil {
		return nil, err
	}

	app.buildServices()

	checks := map[string]health.Pinger{}
	if app.DB != nil {
		checks["database"] = app.DB
	}
	if app.Redis != nil {
		checks["redis"] = redisPinger{app.Redis}
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		Tokens:         tokens,
		Identities:     app.UsersService,
		Limiter:        limiter,
		Health:         health.NewService(checks),
		UserHandler:    users.NewHandler(app.UsersService),
		UsageHandler:   usage.NewHandler(app.UsageService),
		ScanHandler:    scans.NewHandler(app.ScansService),
		ToolboxHandler: toolbox.NewHandler(app.Gateway, app.UsageService, app.ScansService),
		FilesHandler:   files.NewHandler(app.FilesService),
		AccountHandler: account.NewHandler(app.AccountService, cfg.CookieSecure),
		GoogleAuth:     app.GoogleAuth,
	})

	return app, nil
}

// Close releases the database, redis and provider connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// NewProvider picks the LLM backend. A missing key leaves the placeholder
// in place so the API still boots; generation calls then fail upstream.
func NewProvider(ctx context.Context, cfg config.Config) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			break
		}
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			break
		}
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, openai.WithTimeout(cfg.LLMTimeout))
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
	telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": cfg.LLMProvider})
	return llm.PlaceholderProvider{}, nil
}

func (a *App) buildLimiter() (middleware.Limiter, error) {
	if strings.TrimSpace(a.Config.RedisURL) == "" {
		return middleware.NewRateLimiter(nil), nil
	}
	opts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	a.Redis = redis.NewClient(opts)
	return middleware.NewRedisLimiter(a.Redis, rateLimitKeyPrefix), nil
}

func (a *App) buildServices() {
	var (
		userRepo users.Repo
		scanRepo scans.Repo
		fileRepo files.Repo
	)
	if a.DB != nil {
		userRepo = &users.PGRepo{DB: a.DB}
		scanRepo = &scans.PGRepo{DB: a.DB}
		fileRepo = &files.PGRepo{DB: a.DB}
		a.UsageService = usage.NewPostgresService(usage.NewPGStore(a.DB))
	} else {
		userRepo = users.NewMemoryRepo()
		scanRepo = scans.NewMemoryRepo()
		fileRepo = files.NewMemoryRepo()
		a.UsageService = usage.NewService()
	}

	a.UsersService = users.NewService(userRepo)
	a.ScansService = scans.NewService(scanRepo)
	a.FilesService = files.NewService(a.Store, fileRepo)
	a.AccountService = account.NewService(a.UsersService, a.UsageService, a.ScansService, a.FilesService, a.DB)
	a.Gateway = generation.NewGateway(a.Provider)
	a.GoogleAuth = googleauth.NewGoogleService(googleauth.Config{
		ClientID:      a.Config.GoogleClientID,
		ClientSecret:  a.Config.GoogleClientSecret,
		RedirectURL:   a.Config.GoogleRedirectURL,
		ClientURL:     a.Config.ClientURL,
		UIRedirect:    a.Config.UIRedirectURL,
		AllowedDomain: a.Config.AllowedEmailDomain,
		CookieSecure:  a.Config.CookieSecure,
	}, a.Tokens, a.UsersService)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
