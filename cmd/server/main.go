package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-progress/internal/cache"
	"github.com/stemsi/exstem-progress/internal/config"
	"github.com/stemsi/exstem-progress/internal/database"
	"github.com/stemsi/exstem-progress/internal/handler"
	"github.com/stemsi/exstem-progress/internal/logger"
	"github.com/stemsi/exstem-progress/internal/model"
	"github.com/stemsi/exstem-progress/internal/repository"
	"github.com/stemsi/exstem-progress/internal/router"
	"github.com/stemsi/exstem-progress/internal/service"
	"github.com/stemsi/exstem-progress/internal/validator"
	"github.com/stemsi/exstem-progress/internal/watcher"
	"github.com/stemsi/exstem-progress/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("data_dir", cfg.DataDir).
		Msg("Starting progress server")

	if cfg.AdminPasswordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD_HASH is empty; admin login is disabled")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Storage, Cache and Queue ──────────────────────────────────────
	reportRepo := repository.NewPostgresReportRepository(pool)
	reports := cache.NewLayered(
		cache.NewMemoryCache(cfg.ReportCacheTTL, cache.DefaultCleanupInterval, log),
		cache.NewRedisCache(rdb),
		cfg.ReportCacheTTL,
		log,
	).Volatile(config.CacheKey.LatestReportKey(), cache.DefaultVolatileTTL)
	persistQueue := worker.NewRedisQueue(rdb, config.WorkerKey.PersistReportsQueue)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	reportService := service.NewReportService(cfg, reports, reportRepo, worker.NewPersistQueue(persistQueue), log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(authService, log),
		Report: handler.NewReportHandler(reportService, log),
		WS:     handler.NewWSHandler(reportService, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(map[string]handler.Pinger{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, persistQueue.Len, reportService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	persistWorker := worker.NewPersistWorker(persistQueue, reports, reportRepo, log)
	go func() {
		persistWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Initial Run ───────────────────────────────────────────────────
	// A bad data directory is reported but does not stop the server; the
	// admin can fix the files and trigger a new run.
	if _, err := reportService.Run(ctx, model.RunRequest{}, nil); err != nil {
		log.Warn().Err(err).Msg("Initial run failed")
	}

	// ─── Data Directory Watcher ────────────────────────────────────────
	if cfg.WatchDataDir {
		w, err := watcher.New(watcher.Config{
			Dir: cfg.DataDir,
			Files: []string{
				cfg.StudentsFile, cfg.InstructorsFile, cfg.MajorsFile, cfg.GradesFile,
			},
			Debounce: cfg.WatchDebounce,
			Log:      log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create watcher")
		}
		onChange, err := w.Start()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start watcher")
		}
		defer w.Stop()

		go func() {
			for {
				select {
				case <-onChange:
					if _, err := reportService.Run(workerCtx, model.RunRequest{}, nil); err != nil {
						log.Warn().Err(err).Msg("Reload run failed")
					}
				case <-workerCtx.Done():
					return
				}
			}
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the watcher loop and let the persist worker drain its queue.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(worker.PersistDrainWindow + time.Second):
		log.Warn().Msg("Persist worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
