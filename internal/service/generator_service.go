package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/metrics"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stemsi/dataprocessor/internal/sheet"
)

// ErrInvalidCount is returned when the requested row count is out of range.
var ErrInvalidCount = errors.New("invalid count")

// GeneratorService writes workbooks of random students.
type GeneratorService struct {
	files   *FileService
	maxRows int
	newRand func() *rand.Rand
	log     zerolog.Logger
}

// NewGeneratorService creates a new GeneratorService. maxRows caps a single request.
func NewGeneratorService(files *FileService, maxRows int, log zerolog.Logger) *GeneratorService {
	return &GeneratorService{
		files:   files,
		maxRows: maxRows,
		newRand: sheet.NewRand,
		log:     log.With().Str("component", "generator_service").Logger(),
	}
}

// Generate writes count random students to students_<count>_<millis>.xlsx.
func (s *GeneratorService) Generate(ctx context.Context, count int) (*model.GenerateResult, error) {
	if count < 1 || count > s.maxRows {
		return nil, fmt.Errorf("%w: %d (allowed: 1..%d)", ErrInvalidCount, count, s.maxRows)
	}

	start := time.Now()
	name, path, err := s.files.WriteTimestamped(fmt.Sprintf("students_%d", count), ".xlsx", func(w io.Writer) error {
		return sheet.WriteWorkbook(ctx, w, count, s.newRand())
	})
	if err != nil {
		s.log.Error().Err(err).Int("count", count).Msg("Failed to generate workbook")
		return nil, fmt.Errorf("generate workbook: %w", err)
	}

	metrics.RowsGeneratedTotal.Add(float64(count))
	s.log.Info().
		Str("file", name).
		Int("count", count).
		Dur("took", time.Since(start)).
		Msg("Workbook generated")

	return &model.GenerateResult{
		FilePath:     path,
		DownloadLink: model.DownloadLink(name),
		FileName:     name,
		RecordCount:  count,
	}, nil
}
