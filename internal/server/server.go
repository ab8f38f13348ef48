package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pantryplan/backend/config"
	"github.com/pantryplan/backend/internal/api"
	"github.com/pantryplan/backend/internal/database"
	"github.com/pantryplan/backend/internal/ratelimit"
	"github.com/pantryplan/backend/internal/router"
	"github.com/pantryplan/backend/internal/service"
)

// Server wires the pipeline services together and owns the HTTP listener.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	http   *http.Server
	stops  []func()
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config) (*Server, error) {
	authService, err := service.NewAuthService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	fetcher := service.NewSafeFetcher(service.FetcherConfig{
		Timeout:      cfg.FetchTimeout,
		MaxBodyBytes: cfg.FetchMaxBodyBytes,
	})
	pipeline := service.NewPipeline(fetcher, service.NewContentReducer(), service.NewGenerationClient(cfg))

	s := &Server{cfg: cfg}

	limiters, err := s.buildLimiters(cfg)
	if err != nil {
		return nil, err
	}

	s.engine = router.SetupRouter(api.NewIngestHandler(pipeline), authService, limiters, cfg.ExtraAllowedOrigins)
	s.http = &http.Server{
		Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
		Handler: s.engine,
	}

	return s, nil
}

// buildLimiters constructs the per-endpoint limiters on the configured
// backend. The memory backend is only safe for a single instance; redis and
// postgres hold the limits across replicas and restarts.
func (s *Server) buildLimiters(cfg *config.Config) (router.Limiters, error) {
	var redisClient *redis.Client
	var db *gorm.DB
	var err error

	switch cfg.RateLimitBackend {
	case "redis":
		if redisClient, err = database.NewRedisClient(cfg); err != nil {
			return router.Limiters{}, fmt.Errorf("failed to create redis limiter backend: %w", err)
		}
	case "postgres":
		if db, err = database.NewPostgres(cfg); err != nil {
			return router.Limiters{}, fmt.Errorf("failed to create postgres limiter backend: %w", err)
		}
	}

	build := func(action string, setting config.RateLimitSetting) (ratelimit.Limiter, error) {
		rlCfg := ratelimit.Config{Action: action, Limit: setting.Limit, Window: setting.Window}
		switch cfg.RateLimitBackend {
		case "redis":
			return ratelimit.NewRedisLimiter(redisClient, rlCfg), nil
		case "postgres":
			limiter, err := ratelimit.NewPostgresLimiter(db, rlCfg)
			if err != nil {
				return nil, err
			}
			s.stops = append(s.stops, limiter.Stop)
			return limiter, nil
		default:
			limiter := ratelimit.NewMemoryLimiter(rlCfg)
			s.stops = append(s.stops, limiter.Stop)
			return limiter, nil
		}
	}

	var limiters router.Limiters
	if limiters.ParseURL, err = build("parse_url", cfg.ParseURLLimit); err != nil {
		return limiters, err
	}
	if limiters.Consolidate, err = build("consolidate", cfg.ConsolidateLimit); err != nil {
		return limiters, err
	}
	if limiters.Suggestions, err = build("suggestions", cfg.SuggestionLimit); err != nil {
		return limiters, err
	}
	limiters.ParseURLLimit = cfg.ParseURLLimit.Limit
	limiters.ConsolidateLimit = cfg.ConsolidateLimit.Limit
	limiters.SuggestionLimit = cfg.SuggestionLimit.Limit
	return limiters, nil
}

// Start begins serving. It blocks until the listener stops.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, stop := range s.stops {
		stop()
	}
	return s.http.Shutdown(ctx)
}
