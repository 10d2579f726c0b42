package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/metrics"
	"github.com/stemsi/dataprocessor/internal/model"
)

var (
	// ErrPageSizeTooLarge is returned when size exceeds the configured maximum.
	ErrPageSizeTooLarge = errors.New("page size too large")
	// ErrPageOutOfRange is returned when page*size overflows the row offset.
	ErrPageOutOfRange = errors.New("page out of range")
)

// StudentReader reads the students table.
type StudentReader interface {
	ListPaginated(ctx context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int64, error)
	List(ctx context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, error)
}

// ReportCache caches report pages per cache generation.
type ReportCache interface {
	Generation(ctx context.Context) (int64, error)
	GetPage(ctx context.Context, generation int64, fingerprint string) (*model.Page[model.Student], bool, error)
	SetPage(ctx context.Context, generation int64, fingerprint string, page *model.Page[model.Student]) error
}

// ReportService serves the paginated student report.
type ReportService struct {
	students    StudentReader
	cache       ReportCache
	maxPageSize int
	log         zerolog.Logger
}

// NewReportService creates a new ReportService. cache may be nil.
func NewReportService(students StudentReader, cache ReportCache, maxPageSize int, log zerolog.Logger) *ReportService {
	return &ReportService{
		students:    students,
		cache:       cache,
		maxPageSize: maxPageSize,
		log:         log.With().Str("component", "report_service").Logger(),
	}
}

// MaxPageSize returns the largest accepted page size.
func (s *ReportService) MaxPageSize() int {
	return s.maxPageSize
}

// List returns one page of students ordered by id. Cache failures fall back
// to the database.
func (s *ReportService) List(ctx context.Context, q model.StudentQuery) (*model.Page[model.Student], error) {
	q.Normalize()
	if q.Size > s.maxPageSize {
		return nil, fmt.Errorf("%w: %d (max: %d)", ErrPageSizeTooLarge, q.Size, s.maxPageSize)
	}
	offset, ok := q.Offset()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, q.Page)
	}

	fingerprint := q.Fingerprint()
	generation, cached := s.generation(ctx)
	if cached {
		page, hit, err := s.cache.GetPage(ctx, generation, fingerprint)
		switch {
		case err != nil:
			metrics.ReportCacheLookups.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Msg("Report cache read failed")
		case hit:
			metrics.ReportCacheLookups.WithLabelValues("hit").Inc()
			return page, nil
		default:
			metrics.ReportCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	students, total, err := s.students.ListPaginated(ctx, q.StudentFilter, q.Size, offset)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list students")
		return nil, fmt.Errorf("list students: %w", err)
	}
	page := model.NewPage(students, q.Page, q.Size, total)

	if cached {
		if err := s.cache.SetPage(ctx, generation, fingerprint, &page); err != nil {
			s.log.Warn().Err(err).Msg("Report cache write failed")
		}
	}
	return &page, nil
}

// generation is read before the database so a page loaded before an import
// can never be stored under the generation that import created.
func (s *ReportService) generation(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		metrics.ReportCacheLookups.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Msg("Report cache unavailable")
		return 0, false
	}
	return gen, true
}
