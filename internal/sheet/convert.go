package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/xuri/excelize/v2"
)

// ErrInvalidWorkbook is returned when the upload is not a readable XLSX workbook.
var ErrInvalidWorkbook = errors.New("invalid workbook")

const (
	// convertScoreBonus is added to every score on conversion.
	convertScoreBonus = 10
	// rowColumns is the number of cells a data row must carry.
	rowColumns = 6
)

// ConvertStats reports what ConvertWorkbook did.
type ConvertStats struct {
	RowsWritten int
	RowsSkipped int
}

// ConvertWorkbook reads the first sheet of the XLSX workbook in r and writes
// it as CSV to w. The first row is treated as a header and replaced by
// Header; each data row goes through ConvertRow. Rows are read with the
// streaming iterator, so only one row is held at a time.
func ConvertWorkbook(ctx context.Context, r io.Reader, w io.Writer, log zerolog.Logger) (ConvertStats, error) {
	var stats ConvertStats

	f, err := excelize.OpenReader(r)
	if err != nil {
		return stats, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return stats, fmt.Errorf("%w: workbook has no sheets", ErrInvalidWorkbook)
	}

	rows, err := f.Rows(sheetName)
	if err != nil {
		return stats, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return stats, fmt.Errorf("write csv header: %w", err)
	}

	rowNum := 0
	for rows.Next() {
		rowNum++
		if rowNum == 1 {
			continue
		}
		if rowNum%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return stats, fmt.Errorf("%w: row %d: %v", ErrInvalidWorkbook, rowNum, err)
		}

		record, err := ConvertRow(cols)
		if err != nil {
			stats.RowsSkipped++
			log.Warn().Int("row", rowNum).Err(err).Msg("Skipping row")
			continue
		}
		if record[3] != "" && !isISODate(record[3]) {
			log.Warn().Int("row", rowNum).Str("dob", record[3]).Msg("Could not parse date, keeping as-is")
		}

		if err := cw.Write(record); err != nil {
			return stats, fmt.Errorf("write csv row %d: %w", rowNum, err)
		}
		stats.RowsWritten++
	}
	if err := rows.Error(); err != nil {
		return stats, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return stats, fmt.Errorf("flush csv: %w", err)
	}
	return stats, nil
}

// ConvertRow maps one raw worksheet row to a CSV record:
// whole numbers lose their fractional part, the date of birth is normalized
// to yyyy-mm-dd and the score is raised by 10.
func ConvertRow(cols []string) ([]string, error) {
	if len(cols) < rowColumns {
		return nil, fmt.Errorf("row has %d columns, want %d", len(cols), rowColumns)
	}

	return []string{
		normalizeNumber(cols[0]),
		cols[1],
		cols[2],
		normalizeDate(cols[3]),
		cols[4],
		raiseScore(normalizeNumber(cols[5])),
	}, nil
}

// normalizeNumber renders whole numbers without a fractional part ("60.0" -> "60").
// Anything that is not a finite number is returned unchanged.
func normalizeNumber(s string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return s
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return s
}

// normalizeDate returns an ISO date for ISO input or an Excel date serial.
// Other input is returned unchanged.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if d, err := model.ParseDate(s); err == nil {
		return d.String()
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && !math.IsInf(serial, 0) {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(model.DateLayout)
		}
	}
	return s
}

func isISODate(s string) bool {
	_, err := model.ParseDate(s)
	return err == nil
}

// raiseScore adds the conversion bonus. An empty score stays "0"; a score
// that is not a 32-bit integer, or would leave that range, counts as 0 and
// becomes "10".
func raiseScore(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0"
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n > math.MaxInt32-convertScoreBonus {
		return strconv.Itoa(convertScoreBonus)
	}
	return strconv.FormatInt(n+convertScoreBonus, 10)
}
