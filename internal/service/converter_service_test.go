package service

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stemsi/dataprocessor/internal/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverterService_Convert(t *testing.T) {
	files, _ := newTestFiles(t)
	svc := NewConverterService(files, zerolog.Nop())

	var wb bytes.Buffer
	require.NoError(t, sheet.WriteWorkbook(context.Background(), &wb, 15, sheet.NewRand()))

	res, err := svc.Convert(context.Background(), Upload{Name: "in.XLSX", Size: int64(wb.Len()), Body: &wb})
	require.NoError(t, err)

	assert.Equal(t, "converted_1714564800000.csv", res.FileName)
	assert.Equal(t, 15, res.RowsWritten)
	assert.Zero(t, res.RowsSkipped)

	b, err := os.ReadFile(res.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, 16, strings.Count(string(b), "\n"))
}

func TestConverterService_ConvertSameMillisecond(t *testing.T) {
	files, _ := newTestFiles(t)
	svc := NewConverterService(files, zerolog.Nop())

	convert := func(rows int) *model.ConvertResult {
		var wb bytes.Buffer
		require.NoError(t, sheet.WriteWorkbook(context.Background(), &wb, rows, sheet.NewRand()))
		res, err := svc.Convert(context.Background(), Upload{Name: "in.xlsx", Size: int64(wb.Len()), Body: &wb})
		require.NoError(t, err)
		return res
	}

	first := convert(3)
	second := convert(5)

	assert.NotEqual(t, first.DownloadLink, second.DownloadLink)
	assert.Equal(t, "converted_1714564800000_1.csv", second.FileName)

	b, err := os.ReadFile(first.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(b), "\n"))
}

func TestConverterService_Rejects(t *testing.T) {
	files, _ := newTestFiles(t)
	svc := NewConverterService(files, zerolog.Nop())

	_, err := svc.Convert(context.Background(), Upload{Name: "in.csv", Size: 3, Body: strings.NewReader("a,b")})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = svc.Convert(context.Background(), Upload{Name: "in.xlsx", Size: 3, Body: strings.NewReader("abc")})
	assert.ErrorIs(t, err, ErrInvalidWorkbook)

	entries, err := os.ReadDir(files.dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
