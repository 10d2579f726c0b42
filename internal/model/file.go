package model

import (
	"fmt"
	"strings"
)

// DownloadPrefix is the route prefix for generated files.
const DownloadPrefix = "/api/download/"

// DownloadLink returns the client-facing link for a stored file.
func DownloadLink(fileName string) string {
	return DownloadPrefix + fileName
}

// GenerateResult is returned by POST /api/generate.
type GenerateResult struct {
	FilePath     string `json:"filePath"`
	DownloadLink string `json:"downloadLink"`
	FileName     string `json:"fileName"`
	RecordCount  int    `json:"recordCount"`
}

// ConvertResult is returned by POST /api/convert.
type ConvertResult struct {
	CSVPath      string `json:"csvPath"`
	DownloadLink string `json:"downloadLink"`
	FileName     string `json:"fileName"`
	RowsWritten  int    `json:"rowsWritten"`
	RowsSkipped  int    `json:"rowsSkipped"`
}

// ImportResult is returned by a synchronous POST /api/upload-csv.
type ImportResult struct {
	Message          string `json:"message"`
	RecordsProcessed int64  `json:"recordsProcessed"`
	RowsSkipped      int    `json:"rowsSkipped"`
}

// ExportFormat is a report export file type.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
	ExportPDF  ExportFormat = "pdf"
)

// ParseExportFormat accepts csv, xlsx or pdf in any case.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportCSV, ExportXLSX, ExportPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Extension returns the file extension including the dot.
func (f ExportFormat) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	return ContentTypeFor(f.Extension())
}

// ContentTypeFor maps a file extension (with dot) to a MIME type.
func ContentTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
