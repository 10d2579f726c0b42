package export

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleStudents(n int) []model.Student {
	students := make([]model.Student, 0, n)
	for i := 1; i <= n; i++ {
		dob := model.NewDate(2004, time.March, i%28+1)
		score := 60 + i%20
		clazz := "Class1"
		students = append(students, model.Student{
			StudentID: int64(i),
			FirstName: fmt.Sprintf("FIRST%d", i),
			LastName:  fmt.Sprintf("LAST%d", i),
			DOB:       &dob,
			Clazz:     &clazz,
			Score:     &score,
		})
	}
	return students
}

func TestWriteCSV(t *testing.T) {
	students := sampleStudents(1)
	students = append(students, model.Student{StudentID: 2, FirstName: "NO", LastName: "DATA"})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, students))

	assert.Equal(t,
		"Student ID,First Name,Last Name,Date of Birth,Class,Score\n"+
			"1,FIRST1,LAST1,2004-03-02,Class1,61\n"+
			"2,NO,DATA,,,\n",
		buf.String())
}

func TestWriteXLSX(t *testing.T) {
	students := sampleStudents(3)
	students = append(students, model.Student{StudentID: 4, FirstName: "NO", LastName: "SCORE"})

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, students))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"1", "FIRST1", "LAST1", "2004-03-02", "Class1", "61"}, rows[1])
	assert.Equal(t, []string{"4", "NO", "SCORE", "", "", "0"}, rows[4])
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleStudents(RecordsPerPage*2+1)))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "missing PDF header")
	assert.Contains(t, string(out), "%%EOF")

	var small bytes.Buffer
	require.NoError(t, WritePDF(&small, sampleStudents(1)))
	assert.Greater(t, buf.Len(), small.Len())
}

func TestWritePDF_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, model.ExportFormat("docx"), nil))
}
