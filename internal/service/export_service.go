package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/export"
	"github.com/stemsi/dataprocessor/internal/metrics"
	"github.com/stemsi/dataprocessor/internal/model"
)

// ErrUnsupportedFormat is returned for an export format other than csv, xlsx or pdf.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ExportFile is a rendered report export.
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
	Records     int
}

// ExportService renders the student report as a downloadable document.
type ExportService struct {
	students StudentReader
	maxRows  int
	clock    clockwork.Clock
	log      zerolog.Logger
}

// NewExportService creates a new ExportService. maxRows bounds both a single
// page and an all-rows export.
func NewExportService(students StudentReader, maxRows int, clock clockwork.Clock, log zerolog.Logger) *ExportService {
	return &ExportService{
		students: students,
		maxRows:  maxRows,
		clock:    clock,
		log:      log.With().Str("component", "export_service").Logger(),
	}
}

// Export renders the requested page, or every matching row when q.All is set.
func (s *ExportService) Export(ctx context.Context, q model.ExportQuery) (*ExportFile, error) {
	format, err := model.ParseExportFormat(q.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, q.Format)
	}

	q.Normalize()
	limit, offset := s.maxRows, 0
	if !q.All {
		if q.Size > s.maxRows {
			return nil, fmt.Errorf("%w: %d (max: %d)", ErrPageSizeTooLarge, q.Size, s.maxRows)
		}
		var ok bool
		if offset, ok = model.PageOffset(q.Page, q.Size); !ok {
			return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, q.Page)
		}
		limit = q.Size
	}

	students, err := s.students.List(ctx, q.StudentFilter, limit, offset)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load students for export")
		return nil, fmt.Errorf("list students: %w", err)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, students); err != nil {
		s.log.Error().Err(err).Str("format", string(format)).Msg("Failed to render export")
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
	s.log.Info().
		Str("format", string(format)).
		Int("records", len(students)).
		Bool("all", q.All).
		Msg("Report exported")

	return &ExportFile{
		Name:        fmt.Sprintf("students_export_%d%s", s.clock.Now().UnixMilli(), format.Extension()),
		ContentType: format.ContentType(),
		Body:        buf.Bytes(),
		Records:     len(students),
	}, nil
}
