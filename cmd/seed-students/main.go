package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stemsi/dataprocessor/internal/config"
	"github.com/stemsi/dataprocessor/internal/database"
	"github.com/stemsi/dataprocessor/internal/logger"
	"github.com/stemsi/dataprocessor/internal/repository"
	"github.com/stemsi/dataprocessor/internal/service"
	"github.com/stemsi/dataprocessor/internal/sheet"
)

func main() {
	var count int
	flag.IntVar(&count, "count", 1000, "Number of random students to seed")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if count < 1 || count > config.MaxSheetRows {
		log.Fatal().Int("count", count).Int("max", config.MaxSheetRows).Msg("count out of range")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Redis is optional here: without it the report cache simply expires on its own.
	var cache service.CacheInvalidator
	if rdb, err := database.NewRedisClient(ctx, cfg, log); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, report cache will not be invalidated")
	} else {
		defer rdb.Close()
		cache = repository.NewReportCacheRepository(rdb, cfg.ReportCacheTTL)
	}

	clock := clockwork.NewRealClock()
	studentRepo := repository.NewStudentRepository(pool)
	fileService := service.NewFileService(cfg, clock)
	importService := service.NewImportService(studentRepo, nil, cache, fileService, clock, log)

	fmt.Printf("=== Seeding %d Students ===\n", count)
	start := time.Now()

	// generate -> convert -> import, streamed through a pipe.
	pr, pw := io.Pipe()
	go func() {
		_, err := sheet.GenerateCSV(ctx, pw, count, sheet.NewRand(), log)
		pw.CloseWithError(err)
	}()

	result, err := importService.ImportCSV(ctx, pr)
	pr.CloseWithError(err)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed students")
	}

	fmt.Printf("Seeded %d students (%d rows skipped) in %s\n",
		result.RecordsProcessed, result.RowsSkipped, time.Since(start).Round(time.Millisecond))
}
