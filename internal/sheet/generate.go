// Package sheet holds the spreadsheet pipeline: random workbook generation,
// XLSX to CSV conversion and CSV parsing for the database import.
package sheet

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of generated and exported workbooks.
const SheetName = "Students"

// Header is the column layout shared by generated workbooks and converted CSVs.
var Header = []string{"studentId", "firstName", "lastName", "DOB", "class", "score"}

// Classes are the labels assigned to generated students.
var Classes = []string{"Class1", "Class2", "Class3", "Class4", "Class5"}

const (
	minNameLen = 3
	maxNameLen = 8
	minScore   = 55
	maxScore   = 75

	// ctxCheckEvery is how many rows are written between cancellation checks.
	ctxCheckEvery = 10_000
)

var (
	dobFirst = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	dobLast  = time.Date(2010, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// NewRand returns a PCG source seeded from the wall clock.
func NewRand() *rand.Rand {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>17|0x9e3779b97f4a7c15))
}

// RandomStudent builds a student with the given id and random fields:
// A-Z names of length 3..8, a birth date in 2000..2010, Class1..Class5
// and a score in 55..75.
func RandomStudent(rng *rand.Rand, id int64) model.Student {
	days := int(dobLast.Sub(dobFirst).Hours()/24) + 1
	dob := model.Date{Time: dobFirst.AddDate(0, 0, rng.IntN(days))}
	score := minScore + rng.IntN(maxScore-minScore+1)
	clazz := Classes[rng.IntN(len(Classes))]

	return model.Student{
		StudentID: id,
		FirstName: randomAlpha(rng),
		LastName:  randomAlpha(rng),
		DOB:       &dob,
		Clazz:     &clazz,
		Score:     &score,
	}
}

func randomAlpha(rng *rand.Rand) string {
	n := minNameLen + rng.IntN(maxNameLen-minNameLen+1)
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('A' + rng.IntN(26)))
	}
	return b.String()
}

// WriteWorkbook streams count random students, ids 1..count, as an XLSX
// workbook to w. Memory use does not grow with count.
func WriteWorkbook(ctx context.Context, w io.Writer, count int, rng *rand.Rand) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	if err := sw.SetRow("A1", stringsToRow(Header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 1; i <= count; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		s := RandomStudent(rng, int64(i))
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := []interface{}{s.StudentID, s.FirstName, s.LastName, s.DOBString(), s.ClassName(), *s.Score}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush stream writer: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func stringsToRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
