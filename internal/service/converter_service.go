package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/metrics"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stemsi/dataprocessor/internal/sheet"
)

// ErrInvalidWorkbook is returned when an upload is not a readable XLSX workbook.
var ErrInvalidWorkbook = sheet.ErrInvalidWorkbook

// ConverterService turns uploaded workbooks into CSV files.
type ConverterService struct {
	files *FileService
	log   zerolog.Logger
}

// NewConverterService creates a new ConverterService.
func NewConverterService(files *FileService, log zerolog.Logger) *ConverterService {
	return &ConverterService{
		files: files,
		log:   log.With().Str("component", "converter_service").Logger(),
	}
}

// Convert writes the first sheet of the uploaded workbook to
// converted_<millis>.csv, raising every score by 10.
func (s *ConverterService) Convert(ctx context.Context, u Upload) (*model.ConvertResult, error) {
	if err := s.files.CheckUpload(u, ".xlsx"); err != nil {
		return nil, err
	}

	start := time.Now()
	var stats sheet.ConvertStats
	name, path, err := s.files.WriteTimestamped("converted", ".csv", func(w io.Writer) error {
		var err error
		stats, err = sheet.ConvertWorkbook(ctx, u.Body, w, s.log)
		return err
	})
	if err != nil {
		s.log.Warn().Err(err).Str("upload", u.Name).Msg("Conversion failed")
		return nil, fmt.Errorf("convert %s: %w", u.Name, err)
	}

	metrics.RowsConvertedTotal.Add(float64(stats.RowsWritten))
	metrics.RowsSkippedTotal.WithLabelValues("convert").Add(float64(stats.RowsSkipped))
	s.log.Info().
		Str("upload", u.Name).
		Str("file", name).
		Int("rows_written", stats.RowsWritten).
		Int("rows_skipped", stats.RowsSkipped).
		Dur("took", time.Since(start)).
		Msg("Workbook converted")

	return &model.ConvertResult{
		CSVPath:      path,
		DownloadLink: model.DownloadLink(name),
		FileName:     name,
		RowsWritten:  stats.RowsWritten,
		RowsSkipped:  stats.RowsSkipped,
	}, nil
}
