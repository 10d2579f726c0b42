package sheet

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportRecord(t *testing.T) {
	s, err := ParseImportRecord([]string{"12", " ANA ", "BOB", "2005-01-02", "Class1", "70"})
	require.NoError(t, err)

	assert.Equal(t, int64(12), s.StudentID)
	assert.Equal(t, "ANA", s.FirstName)
	assert.Equal(t, "BOB", s.LastName)
	require.NotNil(t, s.DOB)
	assert.Equal(t, "2005-01-02", s.DOB.String())
	assert.Equal(t, "Class1", s.ClassName())
	require.NotNil(t, s.Score)
	assert.Equal(t, 65, *s.Score)
}

func TestParseImportRecord_ScoreFallback(t *testing.T) {
	s, err := ParseImportRecord([]string{"1", "ANA", "BOB", "", "", "n/a"})
	require.NoError(t, err)

	assert.Nil(t, s.DOB)
	assert.Nil(t, s.Clazz)
	require.NotNil(t, s.Score)
	assert.Equal(t, -5, *s.Score)
}

func TestParseImportRecord_ScoreRange(t *testing.T) {
	tests := []struct {
		name  string
		score string
		want  int
	}{
		{name: "beyond int32", score: "3000000005", want: -5},
		{name: "below int32", score: "-3000000000", want: -5},
		{name: "would underflow", score: "-2147483645", want: -5},
		{name: "smallest lowerable", score: "-2147483643", want: math.MinInt32},
		{name: "largest int32", score: "2147483647", want: math.MaxInt32 - 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseImportRecord([]string{"1", "ANA", "BOB", "", "", tt.score})
			require.NoError(t, err)
			require.NotNil(t, s.Score)
			assert.Equal(t, tt.want, *s.Score)
		})
	}
}

func TestParseImportRecord_Invalid(t *testing.T) {
	tests := map[string][]string{
		"too few columns":     {"1", "ANA", "BOB"},
		"non-numeric id":      {"x", "ANA", "BOB", "2005-01-02", "Class1", "70"},
		"missing name":        {"1", "", "BOB", "2005-01-02", "Class1", "70"},
		"bad date":            {"1", "ANA", "BOB", "12/31/2004", "Class1", "70"},
		"first name too long": {"1", strings.Repeat("A", 101), "BOB", "2005-01-02", "Class1", "70"},
		"last name too long":  {"1", "ANA", strings.Repeat("é", 101), "2005-01-02", "Class1", "70"},
		"class too long":      {"1", "ANA", "BOB", "2005-01-02", strings.Repeat("C", 51), "70"},
	}

	for name, record := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseImportRecord(record)
			assert.Error(t, err)
		})
	}
}

func TestImportReader(t *testing.T) {
	input := "studentId,firstName,lastName,DOB,class,score\n" +
		"1,ANA,BOB,2005-01-02,Class1,70\n" +
		"oops,ANA,BOB,2005-01-02,Class1,70\n" +
		"2,CID,DAN,,,\n" +
		"3,EVE\n" +
		"4,EVE,FOX,," + strings.Repeat("C", 51) + ",70\n"

	ir, err := NewImportReader(strings.NewReader(input), zerolog.Nop())
	require.NoError(t, err)

	require.True(t, ir.Next())
	values, err := ir.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{
		int64(1), "ANA", "BOB",
		time.Date(2005, time.January, 2, 0, 0, 0, 0, time.UTC),
		"Class1", int32(65),
	}, values)

	require.True(t, ir.Next())
	values, err = ir.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), "CID", "DAN", nil, nil, int32(-5)}, values)

	assert.False(t, ir.Next())
	assert.NoError(t, ir.Err())
	assert.Equal(t, 3, ir.Skipped)
}

func TestImportReader_Empty(t *testing.T) {
	_, err := NewImportReader(strings.NewReader(""), zerolog.Nop())
	assert.ErrorIs(t, err, ErrEmptyCSV)
}

func TestImportReader_Malformed(t *testing.T) {
	input := "studentId,firstName,lastName,DOB,class,score\n" +
		"1,\"ANA,BOB,2005-01-02,Class1,70\n"

	ir, err := NewImportReader(strings.NewReader(input), zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, ir.Next())
	assert.ErrorIs(t, ir.Err(), ErrMalformedCSV)
}

func TestGenerateCSV(t *testing.T) {
	var out bytes.Buffer
	stats, err := GenerateCSV(context.Background(), &out, 30, testRand(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 30, stats.RowsWritten)

	ir, err := NewImportReader(&out, zerolog.Nop())
	require.NoError(t, err)

	n := 0
	for ir.Next() {
		n++
		s := ir.Student()
		assert.Equal(t, int64(n), s.StudentID)
		// generated 55..75, +10 on convert, -5 on import
		require.NotNil(t, s.Score)
		assert.GreaterOrEqual(t, *s.Score, 60)
		assert.LessOrEqual(t, *s.Score, 80)
	}
	require.NoError(t, ir.Err())
	assert.Equal(t, 30, n)
	assert.Zero(t, ir.Skipped)
}
