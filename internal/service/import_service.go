package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/metrics"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stemsi/dataprocessor/internal/repository"
	"github.com/stemsi/dataprocessor/internal/sheet"
)

// Sentinel errors for CSV imports.
var (
	ErrEmptyCSV          = sheet.ErrEmptyCSV
	ErrMalformedCSV      = sheet.ErrMalformedCSV
	ErrImportJobNotFound = repository.ErrImportJobNotFound
)

// importStatusPrefix is the route serving job state.
const importStatusPrefix = "/api/imports/"

// StudentImporter bulk-loads rows into the students table.
type StudentImporter interface {
	Import(ctx context.Context, src pgx.CopyFromSource) (int64, error)
}

// ImportJobStore persists background import jobs and queues them.
type ImportJobStore interface {
	Enqueue(ctx context.Context, job *model.ImportJob) error
	Save(ctx context.Context, job *model.ImportJob) error
	Get(ctx context.Context, id string) (*model.ImportJob, error)
}

// CacheInvalidator drops cached report pages.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// ImportService loads converted CSV files into the database, either inline
// or through the import queue.
type ImportService struct {
	students StudentImporter
	jobs     ImportJobStore
	cache    CacheInvalidator
	files    *FileService
	clock    clockwork.Clock
	log      zerolog.Logger
}

// NewImportService creates a new ImportService. jobs and cache may be nil:
// without jobs only synchronous imports work, without cache nothing is invalidated.
func NewImportService(
	students StudentImporter,
	jobs ImportJobStore,
	cache CacheInvalidator,
	files *FileService,
	clock clockwork.Clock,
	log zerolog.Logger,
) *ImportService {
	return &ImportService{
		students: students,
		jobs:     jobs,
		cache:    cache,
		files:    files,
		clock:    clock,
		log:      log.With().Str("component", "import_service").Logger(),
	}
}

// Import validates the upload and imports it in the request.
func (s *ImportService) Import(ctx context.Context, u Upload) (*model.ImportResult, error) {
	if err := s.checkUpload(u); err != nil {
		return nil, err
	}
	return s.ImportCSV(ctx, u.Body)
}

// ImportCSV streams a converted CSV from r into the students table. Each
// score is lowered by 5; rows that cannot be parsed are skipped and counted.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader) (*model.ImportResult, error) {
	start := time.Now()

	reader, err := sheet.NewImportReader(r, s.log)
	if err != nil {
		return nil, err
	}

	processed, err := s.students.Import(ctx, reader)
	if readErr := reader.Err(); readErr != nil {
		return nil, readErr
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to import students")
		return nil, fmt.Errorf("import students: %w", err)
	}

	metrics.RowsImportedTotal.Add(float64(processed))
	metrics.RowsSkippedTotal.WithLabelValues("import").Add(float64(reader.Skipped))

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Failed to invalidate report cache")
		}
	}

	s.log.Info().
		Int64("records", processed).
		Int("rows_skipped", reader.Skipped).
		Dur("took", time.Since(start)).
		Msg("CSV imported")

	return &model.ImportResult{
		Message:          "CSV data uploaded successfully",
		RecordsProcessed: processed,
		RowsSkipped:      reader.Skipped,
	}, nil
}

// Enqueue stages the upload and queues it for the import worker.
func (s *ImportService) Enqueue(ctx context.Context, u Upload) (*model.ImportJobAccepted, error) {
	if s.jobs == nil {
		return nil, errors.New("import queue is not configured")
	}
	if err := s.checkUpload(u); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if _, err := s.files.Stage(id, u.Body); err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	now := s.clock.Now().UTC()
	job := &model.ImportJob{
		ID:        id,
		Status:    model.ImportJobQueued,
		FileName:  u.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		_ = s.files.RemoveStaged(id)
		return nil, fmt.Errorf("enqueue import: %w", err)
	}

	s.log.Info().Str("job_id", id).Str("upload", u.Name).Msg("Import queued")

	return &model.ImportJobAccepted{
		JobID:      id,
		Status:     job.Status,
		StatusLink: importStatusPrefix + id,
	}, nil
}

// GetJob returns the state of a queued import.
func (s *ImportService) GetJob(ctx context.Context, id string) (*model.ImportJob, error) {
	if s.jobs == nil {
		return nil, ErrImportJobNotFound
	}
	return s.jobs.Get(ctx, id)
}

// ProcessJob runs the queued import id. The outcome is recorded on the job;
// the returned error only reports bookkeeping failures.
func (s *ImportService) ProcessJob(ctx context.Context, id string) error {
	defer func() {
		if err := s.files.RemoveStaged(id); err != nil {
			s.log.Warn().Err(err).Str("job_id", id).Msg("Failed to remove staged upload")
		}
	}()

	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load job %s: %w", id, err)
	}

	job.Status = model.ImportJobRunning
	job.UpdatedAt = s.clock.Now().UTC()
	if err := s.jobs.Save(ctx, job); err != nil {
		s.log.Warn().Err(err).Str("job_id", id).Msg("Failed to mark job running")
	}

	result, err := s.importStaged(ctx, id)
	if err != nil {
		job.Status = model.ImportJobFailed
		job.Error = publicImportError(err)
		metrics.ImportJobsTotal.WithLabelValues(string(model.ImportJobFailed)).Inc()
		s.log.Error().Err(err).Str("job_id", id).Msg("Import job failed")
	} else {
		job.Status = model.ImportJobCompleted
		job.RecordsProcessed = result.RecordsProcessed
		job.RowsSkipped = result.RowsSkipped
		metrics.ImportJobsTotal.WithLabelValues(string(model.ImportJobCompleted)).Inc()
	}
	job.UpdatedAt = s.clock.Now().UTC()

	// The outcome must be recorded even when shutdown cancelled the import.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.jobs.Save(saveCtx, job); err != nil {
		return fmt.Errorf("save job %s: %w", id, err)
	}
	return nil
}

func (s *ImportService) importStaged(ctx context.Context, id string) (*model.ImportResult, error) {
	f, err := os.Open(s.files.StagedPath(id))
	if err != nil {
		return nil, fmt.Errorf("open staged upload: %w", err)
	}
	defer f.Close()

	return s.ImportCSV(ctx, f)
}

func (s *ImportService) checkUpload(u Upload) error {
	if err := s.files.CheckUpload(u, ".csv", "text/csv"); err != nil {
		return err
	}
	if u.Size == 0 {
		return ErrEmptyCSV
	}
	return nil
}

// publicImportError keeps database details out of the job status.
func publicImportError(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCSV), errors.Is(err, ErrMalformedCSV):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "import interrupted by shutdown"
	default:
		return "import failed"
	}
}
