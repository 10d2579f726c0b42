package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stemsi/dataprocessor/internal/config"
	"github.com/stemsi/dataprocessor/internal/handler"
	"github.com/stemsi/dataprocessor/internal/middleware"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stemsi/dataprocessor/internal/response"
)

// exportPath is shared by the route and the compression skip list.
const exportPath = "/api/students/export"

// Handlers groups all handler instances for route setup.
type Handlers struct {
	File   *handler.FileHandler
	Import *handler.ImportHandler
	Report *handler.ReportHandler
	Health *handler.HealthHandler
}

// SetupRouter configures all Gin routes with appropriate middlewares.
// Background helpers started here stop when ctx is done.
func SetupRouter(
	ctx context.Context,
	handlers *Handlers,
	cfg *config.Config,
	clock clockwork.Clock,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// Multipart parts beyond this stay on disk instead of memory.
	router.MaxMultipartMemory = 8 << 20

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition", "Location"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(middleware.Metrics())

	// Workbooks are zip archives already; compressing them again only costs CPU.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:      middleware.DefaultBrotliConfig.Quality,
		MinLength:    middleware.DefaultBrotliConfig.MinLength,
		SkipPrefixes: []string{model.DownloadPrefix, exportPath, "/metrics"},
	}))

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	// ─── Operational ───────────────────────────────────────────────────
	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Generation, conversion and import are CPU and disk heavy, so they are
	// rate limited per client IP.
	var heavy []gin.HandlerFunc
	if cfg.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute, clock, ctx.Done())
		heavy = append(heavy, limiter.Middleware())
	}
	withLimit := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, heavy...), h)
	}

	// ─── API ───────────────────────────────────────────────────────────
	api := router.Group("/api")
	{
		api.POST("/generate", withLimit(handlers.File.Generate)...)
		api.POST("/convert", withLimit(handlers.File.Convert)...)
		api.POST("/upload-csv", withLimit(handlers.Import.UploadCSV)...)
		api.GET("/imports/:jobId", handlers.Import.GetJob)

		api.GET("/students", handlers.Report.ListStudents)
		api.GET("/students/export", middleware.CacheControl(middleware.NoStore), handlers.Report.ExportStudents)

		api.GET("/download/:fileName", middleware.CacheControl(middleware.NoStore), handlers.File.Download)
	}

	return router
}
