package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	// HTTPRequestsTotal counts requests by matched route, method and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration tracks handler latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"route", "method"},
	)
)

// Data Pipeline Metrics
var (
	// RowsGeneratedTotal counts student rows written by the generator
	RowsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dataprocessor_rows_generated_total",
			Help: "Total student rows written to generated workbooks",
		},
	)

	// RowsConvertedTotal counts rows written to CSV by the converter
	RowsConvertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dataprocessor_rows_converted_total",
			Help: "Total rows converted from XLSX to CSV",
		},
	)

	// RowsImportedTotal counts rows upserted into the students table
	RowsImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dataprocessor_rows_imported_total",
			Help: "Total rows imported from CSV into the database",
		},
	)

	// RowsSkippedTotal counts malformed rows dropped by stage (convert, import)
	RowsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataprocessor_rows_skipped_total",
			Help: "Total malformed rows skipped by stage",
		},
		[]string{"stage"},
	)

	// ExportsTotal counts report exports by format
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataprocessor_exports_total",
			Help: "Total report exports by format",
		},
		[]string{"format"},
	)

	// ImportJobsTotal counts finished background imports by outcome (completed, failed)
	ImportJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataprocessor_import_jobs_total",
			Help: "Total background import jobs by outcome",
		},
		[]string{"outcome"},
	)

	// ReportCacheLookups counts report page cache lookups by result (hit, miss, error)
	ReportCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataprocessor_report_cache_lookups_total",
			Help: "Report page cache lookups by result",
		},
		[]string{"result"},
	)
)
