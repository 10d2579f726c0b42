package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/config"
	"github.com/stemsi/dataprocessor/internal/database"
	"github.com/stemsi/dataprocessor/internal/handler"
	"github.com/stemsi/dataprocessor/internal/logger"
	"github.com/stemsi/dataprocessor/internal/repository"
	"github.com/stemsi/dataprocessor/internal/router"
	"github.com/stemsi/dataprocessor/internal/service"
	"github.com/stemsi/dataprocessor/internal/validator"
	"github.com/stemsi/dataprocessor/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("data_dir", cfg.DataDir).
		Msg("Starting Data Processor")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Migrate Schema ────────────────────────────────────────────────
	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied")
	}

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

	clock := clockwork.NewRealClock()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	reportCache := repository.NewReportCacheRepository(rdb, cfg.ReportCacheTTL)
	jobRepo := repository.NewImportJobRepository(rdb, cfg.ImportJobTTL)

	// ─── Initialize Services ──────────────────────────────────────────
	fileService := service.NewFileService(cfg, clock)
	generatorService := service.NewGeneratorService(fileService, cfg.MaxGenerateRows, log)
	converterService := service.NewConverterService(fileService, log)
	importService := service.NewImportService(studentRepo, jobRepo, reportCache, fileService, clock, log)
	reportService := service.NewReportService(studentRepo, reportCache, cfg.MaxPageSize, log)
	exportService := service.NewExportService(studentRepo, cfg.MaxExportRows, clock, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		File:   handler.NewFileHandler(generatorService, converterService, fileService),
		Import: handler.NewImportHandler(importService, fileService),
		Report: handler.NewReportHandler(reportService, exportService),
		Health: handler.NewHealthHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	importWorker := worker.NewImportWorker(importService, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		importWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, handlers, cfg, clock)

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

	// 1. Stop accepting new HTTP requests. Generation of large workbooks
	// can take a while, so in-flight requests get longer than usual.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the import worker and wait for it to record its current job.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
