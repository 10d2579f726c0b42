package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentRepository_ImportAndList(t *testing.T) {
	repo := setupStudents(t)
	ctx := context.Background()

	n := importCSV(t, repo,
		"3,EVE,FOX,2003-07-15,Class3,80",
		"1,ANA,BOB,2005-01-02,Class1,70",
		"2,CID,DAN,,,60",
	)
	assert.Equal(t, int64(3), n)

	students, total, err := repo.ListPaginated(ctx, model.StudentFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, students, 3)

	assert.Equal(t, []int64{1, 2, 3}, []int64{students[0].StudentID, students[1].StudentID, students[2].StudentID})

	ana := students[0]
	assert.Equal(t, "ANA", ana.FirstName)
	assert.Equal(t, "Class1", ana.ClassName())
	require.NotNil(t, ana.DOB)
	assert.Equal(t, "2005-01-02", ana.DOB.String())
	require.NotNil(t, ana.Score)
	assert.Equal(t, 65, *ana.Score)

	cid := students[1]
	assert.Nil(t, cid.DOB)
	assert.Nil(t, cid.Clazz)
	require.NotNil(t, cid.Score)
	assert.Equal(t, 55, *cid.Score)
}

func TestStudentRepository_ImportUpserts(t *testing.T) {
	repo := setupStudents(t)
	ctx := context.Background()

	importCSV(t, repo, "1,ANA,BOB,2005-01-02,Class1,70")
	n := importCSV(t, repo,
		"1,ANNA,BOB,2005-01-02,Class2,90",
		"2,CID,DAN,2004-01-01,Class1,60",
		"1,ANNE,BOB,2005-01-02,Class4,95",
	)
	assert.Equal(t, int64(3), n)

	students, total, err := repo.ListPaginated(ctx, model.StudentFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// the last occurrence in a file wins
	assert.Equal(t, "ANNE", students[0].FirstName)
	assert.Equal(t, "Class4", students[0].ClassName())
	assert.Equal(t, 90, *students[0].Score)
}

func TestStudentRepository_Filters(t *testing.T) {
	repo := setupStudents(t)
	ctx := context.Background()

	importCSV(t, repo,
		"1,ANA,BOBBY,2005-01-02,Class1,70",
		"2,BOB,CID,2005-01-02,Class2,70",
		"3,DAN,EVE,2005-01-02,Class1,70",
		"4,FOX_X,GUS,2005-01-02,Class3,70",
	)

	id := int64(3)
	tests := []struct {
		name   string
		filter model.StudentFilter
		want   []int64
	}{
		{"by id", model.StudentFilter{StudentID: &id}, []int64{3}},
		{"by class", model.StudentFilter{Clazz: "Class1"}, []int64{1, 3}},
		{"search first or last name", model.StudentFilter{Search: "bob"}, []int64{1, 2}},
		{"search combined with class", model.StudentFilter{Search: "bob", Clazz: "Class2"}, []int64{2}},
		{"wildcards are literal", model.StudentFilter{Search: "%"}, nil},
		{"underscore is literal", model.StudentFilter{Search: "x_x"}, []int64{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, total, err := repo.ListPaginated(ctx, tt.filter, 10, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)

			var ids []int64
			for _, s := range students {
				ids = append(ids, s.StudentID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStudentRepository_Pagination(t *testing.T) {
	repo := setupStudents(t)
	ctx := context.Background()

	rows := make([]string, 0, 25)
	for i := 25; i >= 1; i-- {
		rows = append(rows, csvRow(i))
	}
	importCSV(t, repo, rows...)

	students, total, err := repo.ListPaginated(ctx, model.StudentFilter{}, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, students, 5)
	assert.Equal(t, int64(21), students[0].StudentID)

	students, err = repo.List(ctx, model.StudentFilter{}, 10, 30)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func csvRow(id int) string {
	return fmt.Sprintf("%d,FIRST,LAST,2005-01-02,Class1,70", id)
}
