package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name      string
		content   []int
		number    int
		size      int
		total     int64
		wantPages int
		wantFirst bool
		wantLast  bool
		wantEmpty bool
	}{
		{"first of many", []int{1, 2}, 0, 2, 5, 3, true, false, false},
		{"middle", []int{3, 4}, 1, 2, 5, 3, false, false, false},
		{"partial last", []int{5}, 2, 2, 5, 3, false, true, false},
		{"exact fit", []int{1, 2}, 0, 2, 2, 1, true, true, false},
		{"past the end", nil, 9, 2, 5, 3, false, true, true},
		{"no rows", nil, 0, 20, 0, 0, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.content, tt.number, tt.size, tt.total)

			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantFirst, p.First)
			assert.Equal(t, tt.wantLast, p.Last)
			assert.Equal(t, tt.wantEmpty, p.Empty)
			assert.Equal(t, len(tt.content), p.NumberOfElements)
			assert.NotNil(t, p.Content)
		})
	}
}

func TestNewPage_EmptyContentIsArray(t *testing.T) {
	b, err := json.Marshal(NewPage[Student](nil, 0, 20, 0))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"content":[]`)
}

func TestParseExportFormat(t *testing.T) {
	for in, want := range map[string]ExportFormat{"csv": ExportCSV, " XLSX ": ExportXLSX, "Pdf": ExportPDF} {
		got, err := ParseExportFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseExportFormat("docx")
	assert.Error(t, err)
	_, err = ParseExportFormat("")
	assert.Error(t, err)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "text/csv", ContentTypeFor(".CSV"))
	assert.Equal(t, "application/pdf", ExportPDF.ContentType())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ExportXLSX.ContentType())
	assert.Equal(t, "application/octet-stream", ContentTypeFor(".bin"))
}

func TestStudentJSON(t *testing.T) {
	dob := NewDate(2004, 2, 29)
	score := 71
	clazz := "Class2"
	in := Student{StudentID: 3, FirstName: "ANA", LastName: "BOB", DOB: &dob, Clazz: &clazz, Score: &score}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"studentId":3,"firstName":"ANA","lastName":"BOB","dob":"2004-02-29","clazz":"Class2","score":71}`,
		string(b))

	var out Student
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in.DOBString(), out.DOBString())

	assert.Equal(t, "Class2", out.ClassName())

	var blank Student
	assert.Empty(t, blank.DOBString())
	assert.Empty(t, blank.ClassName())
	assert.Error(t, json.Unmarshal([]byte(`{"dob":20040229}`), &blank))
}

func TestStudentJSON_Nulls(t *testing.T) {
	b, err := json.Marshal(Student{StudentID: 4, FirstName: "CID", LastName: "DAN"})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"studentId":4,"firstName":"CID","lastName":"DAN","dob":null,"clazz":null,"score":null}`,
		string(b))
}

func TestStudentQuery_Fingerprint(t *testing.T) {
	id := int64(12)
	a := StudentQuery{StudentFilter: StudentFilter{Search: "Ana"}, Page: 1, Size: 20}
	b := StudentQuery{StudentFilter: StudentFilter{Search: "ana"}, Page: 1, Size: 20}
	c := StudentQuery{StudentFilter: StudentFilter{StudentID: &id}, Page: 1, Size: 20}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), StudentQuery{Page: 2, Size: 20}.Fingerprint())
	offset, ok := a.Offset()
	assert.True(t, ok)
	assert.Equal(t, 20, offset)
}

func TestPageOffset(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		want       int
		ok         bool
	}{
		{name: "first page", page: 0, size: 20, want: 0, ok: true},
		{name: "third page", page: 2, size: 50, want: 100, ok: true},
		{name: "largest page", page: math.MaxInt / 4, size: 4, want: math.MaxInt / 4 * 4, ok: true},
		{name: "wraps to small offset", page: 4611686018427387909, size: 4},
		{name: "wraps negative", page: 1 << 62, size: 2},
		{name: "negative page", page: -1, size: 20},
		{name: "zero size", page: 1, size: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PageOffset(tt.page, tt.size)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStudentFilter_Normalize(t *testing.T) {
	f := StudentFilter{Clazz: " Class1 ", Search: "  bo "}
	f.Normalize()
	assert.Equal(t, "Class1", f.Clazz)
	assert.Equal(t, "bo", f.Search)
}

func TestDownloadLink(t *testing.T) {
	assert.Equal(t, "/api/download/students_5_1.xlsx", DownloadLink("students_5_1.xlsx"))
}
