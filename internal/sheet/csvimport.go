package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/model"
)

var (
	// ErrEmptyCSV is returned when the upload has no header record.
	ErrEmptyCSV = errors.New("csv file is empty")
	// ErrMalformedCSV wraps quoting errors that make the rest of the file unreadable.
	ErrMalformedCSV = errors.New("malformed csv")
)

// importScorePenalty is subtracted from every score on import. Together with
// the conversion bonus the stored score is the generated score + 5.
const importScorePenalty = 5

// Column widths of the students table.
const (
	maxNameLength  = 100
	maxClassLength = 50
)

// ImportReader streams valid student rows out of a converted CSV.
// It satisfies pgx.CopyFromSource so rows go straight into COPY.
type ImportReader struct {
	r       *csv.Reader
	log     zerolog.Logger
	line    int
	current model.Student
	err     error

	// Skipped counts records dropped because they could not be parsed.
	Skipped int
}

// NewImportReader consumes the header record of r. An input without a header
// yields ErrEmptyCSV.
func NewImportReader(r io.Reader, log zerolog.Logger) (*ImportReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCSV
		}
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedCSV, err)
	}

	return &ImportReader{r: cr, log: log, line: 1}, nil
}

// Next advances to the next valid row, skipping and counting invalid ones.
func (ir *ImportReader) Next() bool {
	if ir.err != nil {
		return false
	}
	for {
		record, err := ir.r.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		ir.line++
		if err != nil {
			ir.err = fmt.Errorf("%w: %v", ErrMalformedCSV, err)
			return false
		}

		s, err := ParseImportRecord(record)
		if err != nil {
			ir.Skipped++
			ir.log.Warn().Int("line", ir.line).Err(err).Msg("Skipping row")
			continue
		}
		ir.current = s
		return true
	}
}

// Student returns the row Next advanced to.
func (ir *ImportReader) Student() model.Student {
	return ir.current
}

// Values returns the current row as
// student_id, first_name, last_name, date_of_birth, class_name, score.
func (ir *ImportReader) Values() ([]any, error) {
	s := ir.current

	var dob any
	if s.DOB != nil {
		dob = s.DOB.Time
	}
	var clazz any
	if s.Clazz != nil {
		clazz = *s.Clazz
	}
	var score any
	if s.Score != nil {
		score = int32(*s.Score)
	}

	return []any{s.StudentID, s.FirstName, s.LastName, dob, clazz, score}, nil
}

// Err returns the error that stopped iteration, if any.
func (ir *ImportReader) Err() error {
	return ir.err
}

// ParseImportRecord validates one CSV record and lowers its score by 5.
// A missing score or one that is not a 32-bit integer is stored as -5.
func ParseImportRecord(record []string) (model.Student, error) {
	if len(record) < rowColumns {
		return model.Student{}, fmt.Errorf("row has %d columns, want %d", len(record), rowColumns)
	}

	id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return model.Student{}, fmt.Errorf("invalid studentId %q", record[0])
	}

	first := strings.TrimSpace(record[1])
	last := strings.TrimSpace(record[2])
	if first == "" || last == "" {
		return model.Student{}, errors.New("first and last name are required")
	}
	if utf8.RuneCountInString(first) > maxNameLength || utf8.RuneCountInString(last) > maxNameLength {
		return model.Student{}, fmt.Errorf("names are limited to %d characters", maxNameLength)
	}

	var clazz *string
	if raw := strings.TrimSpace(record[4]); raw != "" {
		if utf8.RuneCountInString(raw) > maxClassLength {
			return model.Student{}, fmt.Errorf("class is limited to %d characters", maxClassLength)
		}
		clazz = &raw
	}

	var dob *model.Date
	if raw := strings.TrimSpace(record[3]); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return model.Student{}, fmt.Errorf("invalid DOB %q", raw)
		}
		dob = &d
	}

	score := -importScorePenalty
	if n, err := strconv.ParseInt(strings.TrimSpace(record[5]), 10, 32); err == nil && n >= math.MinInt32+importScorePenalty {
		score = int(n) - importScorePenalty
	}

	return model.Student{
		StudentID: id,
		FirstName: first,
		LastName:  last,
		DOB:       dob,
		Clazz:     clazz,
		Score:     &score,
	}, nil
}
