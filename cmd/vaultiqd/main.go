// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Vaultiqd is a thin demonstration/integration-testing host for the
internal/vaultiq session lifecycle and revocation engine.

It exists so the session lifecycle and revocation engine can be exercised
end-to-end — real Postgres, real Redis, real HTTP — independent of any
larger application that embeds the package.

Usage:

	go run cmd/vaultiqd/main.go

The flags/environment variables are:

	SERVER_PORT                     Port to listen on (default: 8080)
	DATABASE_URL                    Postgres connection string (required)
	REDIS_URL                       Redis connection string (required)
	SESSION_PRODUCTION_MODE         default persistence posture (default: false)
	SESSION_GLOBAL_USE_STORE        global useStore override
	SESSION_GLOBAL_USE_CACHE        global useCache override
	SESSION_PERSISTENCE_MODELS      JSON array of per-family overrides

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Storage: Establish connections to Postgres and Redis.
 4. Migration: Run idempotent schema updates.
 5. Wiring: Resolve persistence config and build the Mode Gate.
 6. Server: Bind HTTP listener and handle graceful shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/vaultiq/internal/platform/config"
	"github.com/taibuivan/vaultiq/internal/platform/constants"
	"github.com/taibuivan/vaultiq/internal/platform/middleware"
	"github.com/taibuivan/vaultiq/internal/platform/migration"
	pgstore "github.com/taibuivan/vaultiq/internal/platform/postgres"
	redisstore "github.com/taibuivan/vaultiq/internal/platform/redis"
	"github.com/taibuivan/vaultiq/internal/platform/sec"
	"github.com/taibuivan/vaultiq/internal/vaultiq"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("app", "vaultiqd"))
	slog.SetDefault(log)
	log.Info("vaultiqd_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. PostgreSQL
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	// # 4. Redis
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// # 5. Migrations
	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// # 6. JWT verification (sessions are issued against authenticated users)
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return fmt.Errorf("initialize jwt service: %w", err)
	}

	// # 7. Config Resolver + Mode Gate
	models, err := vaultiq.ParseModels(cfg.SessionPersistenceModels)
	if err != nil {
		return fmt.Errorf("parse session persistence models: %w", err)
	}

	resolved := vaultiq.Resolve(vaultiq.RawConfig{
		ProductionMode:          cfg.SessionProductionMode,
		GlobalUseStore:          cfg.SessionGlobalUseStore,
		GlobalUseCache:          cfg.SessionGlobalUseCache,
		CacheInfrastructureName: cfg.SessionCacheInfrastructure,
		Models:                  models,
	})

	metrics := vaultiq.NewMetrics()
	cacheProvider := vaultiq.NewRedisCacheProvider(rdb, log, metrics,
		"session-pool", "revoked-session-pool", "user-session-mapping", "activity-log-pool")

	gate, err := vaultiq.NewGate(vaultiq.GateOptions{
		Configs:       resolved,
		Pool:          pool,
		CacheProvider: cacheProvider,
		Probe:         vaultiq.NewJWTIdentityProbe(),
		Clock:         vaultiq.SystemClock,
		Log:           log,
		Metrics:       metrics,
	})
	if err != nil {
		return fmt.Errorf("construct vaultiq gate: %w", err)
	}

	// # 8. HTTP Assembly
	router := chi.NewRouter()
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(log))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.PanicRecovery(log))
	router.Use(middleware.Authenticate(jwtSvc))
	router.Use(middleware.CORS(cfg))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.RequireAuth)
		api.Mount("/", vaultiq.NewHandler(gate).Routes())
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadTimeout:       constants.DefaultReadTimeout,
		WriteTimeout:      constants.DefaultWriteTimeout,
		IdleTimeout:       constants.DefaultIdleTimeout,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
	}

	// # 9. Lifecycle Handling
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("vaultiqd_running", slog.String("port", cfg.ServerPort))

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}
