// Package export renders report rows as CSV, XLSX or PDF documents.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/xuri/excelize/v2"
)

// Header is the human-readable column row of every export.
var Header = []string{"Student ID", "First Name", "Last Name", "Date of Birth", "Class", "Score"}

const sheetName = "Students"

// Write renders students in the given format to w.
func Write(w io.Writer, format model.ExportFormat, students []model.Student) error {
	switch format {
	case model.ExportCSV:
		return WriteCSV(w, students)
	case model.ExportXLSX:
		return WriteXLSX(w, students)
	case model.ExportPDF:
		return WritePDF(w, students)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteCSV writes a header and one record per student. Unknown dates and
// scores are left empty.
func WriteCSV(w io.Writer, students []model.Student) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, s := range students {
		score := ""
		if s.Score != nil {
			score = strconv.Itoa(*s.Score)
		}
		record := []string{
			strconv.FormatInt(s.StudentID, 10),
			s.FirstName,
			s.LastName,
			s.DOBString(),
			s.ClassName(),
			score,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single "Students" sheet. Unknown scores are written as 0.
func WriteXLSX(w io.Writer, students []model.Student) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	// Column widths must be set before the first row is streamed.
	if err := sw.SetColWidth(1, len(Header), 16); err != nil {
		return err
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, s := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{s.StudentID, s.FirstName, s.LastName, s.DOBString(), s.ClassName(), scoreOrZero(s)}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush stream writer: %w", err)
	}
	_, err = f.WriteTo(w)
	return err
}

func scoreOrZero(s model.Student) int {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}
