package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExport(students *fakeStudents) *ExportService {
	return NewExportService(students, 500, clockwork.NewFakeClockAt(testNow), zerolog.Nop())
}

func TestExportService_Export(t *testing.T) {
	tests := []struct {
		format     string
		wantName   string
		wantType   string
		wantPrefix []byte
	}{
		{"csv", "students_export_1714564800000.csv", "text/csv", []byte("Student ID,")},
		{"XLSX", "students_export_1714564800000.xlsx", model.ExportXLSX.ContentType(), []byte("PK")},
		{"pdf", "students_export_1714564800000.pdf", "application/pdf", []byte("%PDF")},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			students := &fakeStudents{list: reportStudents(4)}
			file, err := newTestExport(students).Export(context.Background(), model.ExportQuery{Format: tt.format, Page: 1, Size: 4})
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, file.Name)
			assert.Equal(t, tt.wantType, file.ContentType)
			assert.Equal(t, 4, file.Records)
			assert.True(t, bytes.HasPrefix(file.Body, tt.wantPrefix))
			assert.Equal(t, 4, students.lastLimit)
			assert.Equal(t, 4, students.lastOff)
		})
	}
}

func TestExportService_All(t *testing.T) {
	students := &fakeStudents{list: reportStudents(2)}

	_, err := newTestExport(students).Export(context.Background(), model.ExportQuery{Format: "csv", Page: 3, Size: 10, All: true})
	require.NoError(t, err)
	assert.Equal(t, 500, students.lastLimit)
	assert.Zero(t, students.lastOff)
}

func TestExportService_Errors(t *testing.T) {
	students := &fakeStudents{}
	svc := newTestExport(students)

	_, err := svc.Export(context.Background(), model.ExportQuery{Format: "docx", Size: 10})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = svc.Export(context.Background(), model.ExportQuery{Format: "csv", Size: 501})
	assert.ErrorIs(t, err, ErrPageSizeTooLarge)
	assert.Zero(t, students.listCalls)

	_, err = svc.Export(context.Background(), model.ExportQuery{Format: "csv", Page: 1 << 62, Size: 2})
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	assert.Zero(t, students.listCalls)

	students.listErr = errBoom
	_, err = svc.Export(context.Background(), model.ExportQuery{Format: "csv", Size: 10})
	assert.ErrorIs(t, err, errBoom)
}
