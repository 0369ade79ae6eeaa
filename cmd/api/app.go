package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/cindral/core/cmd/api/middleware"
	"github.com/cindral/core/internal/client"
	"github.com/cindral/core/internal/config"
	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/handlers"
	"github.com/cindral/core/internal/positions"
	"github.com/cindral/core/internal/store"
	"github.com/cindral/core/internal/systemmap"
)

// app owns every long-lived dependency. close releases them in reverse order.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db        *store.DB
	redis     *positions.RedisKV
	backend   systemmap.Backend
	positions *positions.Store
	builder   *graph.Builder
	sessions  *systemmap.Registry
	coord     *systemmap.Coordinator
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, builder: graph.NewBuilder(cfg.Layout)}

	switch cfg.Source.Kind {
	case config.SourceSQL:
		db, err := store.Open(ctx, cfg.Source.Driver, cfg.Source.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.backend = db
	case config.SourceHTTP:
		a.backend = client.New(cfg.Source.BaseURL,
			client.WithToken(cfg.Source.Token),
			client.WithRateLimit(rate.Limit(cfg.Source.RPS), cfg.Source.Burst),
			client.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	var kv positions.KV
	switch cfg.Positions.Backend {
	case config.PositionsMemory:
		kv = positions.NewMemoryKV()
	case config.PositionsRedis:
		a.redis = positions.NewRedisKV(cfg.Positions.RedisAddr, cfg.Positions.RedisPassword, cfg.Positions.RedisDB, cfg.Positions.TTL)
		kv = a.redis
	case config.PositionsSQL:
		if a.db == nil {
			a.close()
			return nil, errors.New("sql positions need the sql source")
		}
		kv = a.db.PositionKV()
	default:
		a.close()
		return nil, fmt.Errorf("unknown positions backend %q", cfg.Positions.Backend)
	}

	a.positions = positions.NewStore(kv, cfg.Positions.Prefix, logger)
	a.sessions = systemmap.NewRegistry(a.backend, a.positions, a.builder, logger)
	a.coord = systemmap.NewCoordinator(a.backend, logger)
	return a, nil
}

func (a *app) checks() map[string]handlers.CheckFunc {
	checks := map[string]handlers.CheckFunc{}
	if a.db != nil {
		checks["database"] = a.db.Ping
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Ping
	}
	return checks
}

func (a *app) router(limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger(a.logger), middleware.Cors(a.cfg.Server.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteNotFound(w, r, "No route for "+r.URL.Path)
	})
	r.MethodNotAllowed(handlers.WriteMethodNotAllowed)

	r.Handle("/health", handlers.NewHealth(a.checks()))
	r.Route("/api/system-map", func(r chi.Router) {
		r.Use(limiter.Middleware, handlers.RequireTenant)
		handlers.NewSystemMap(a.sessions, a.coord, a.logger).Routes(r)
	})
	return r
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
}
