// Package main is the entrypoint for the pick-list API server.
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

	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api/handler"
	mw "github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api/middleware"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/api/response"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/cache"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/config"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/picklist"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/repo"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/sortly"
	"github.com/EargasmDev/SortlyXEargasmInternalTool/internal/store"
	syncpkg "github.com/EargasmDev/SortlyXEargasmInternalTool/internal/sync"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "sync_enabled", cfg.Sync.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Build the job repository and load persisted jobs
	pgStore := store.NewPostgresStore(pool)
	registry := repo.NewRegistry(pgStore)
	if err := registry.Load(ctx); err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}
	slog.Info("jobs loaded", "count", len(registry.List(ctx)))

	// 6. Domain services
	jobService := picklist.NewService(registry)
	processor := picklist.NewProcessor(registry)

	// 7. Sortly client and sync runner
	sortlyClient := sortly.NewHTTPClient(cfg.Sortly.BaseURL, cfg.Sortly.SecretKey, cfg.Sortly.Timeout)
	reconciler := syncpkg.NewReconciler(registry)
	runner := syncpkg.NewRunner(sortlyClient, registry, reconciler, redisCache,
		cfg.Sync.Interval, cfg.Sync.WarehouseLocation, cfg.Sync.PerPage)

	if cfg.Sync.Enabled {
		go runner.Run(ctx)
		slog.Info("sortly sync runner started", "interval", cfg.Sync.Interval)
	}

	// 8. Build router with dependencies
	rateLimit := mw.NewRateLimit(redisCache, 120)

	deps := api.Dependencies{
		RateLimit: rateLimit,

		HealthHandler: healthHandler(pgStore, redisCache),

		CreateJobHandler:  handler.NewCreateJobHandler(jobService),
		ListJobsHandler:   handler.NewListJobsHandler(jobService),
		GetJobHandler:     handler.NewGetJobHandler(jobService),
		DeleteJobHandler:  handler.NewDeleteJobHandler(jobService),
		EditItemHandler:   handler.NewEditItemHandler(jobService),
		ListScansHandler:  handler.NewListScansHandler(jobService),
		SubmitScanHandler: handler.NewSubmitScanHandler(processor),

		TriggerSyncHandler:   handler.NewTriggerSyncHandler(runner),
		SyncStatusHandler:    handler.NewSyncStatusHandler(runner),
		SortlyWebhookHandler: handler.NewSortlyWebhookHandler(runner, cfg.Sync.WarehouseLocation),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
