package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/dataprocessor/internal/model"
)

// ImportColumns is the column order expected from an import source.
var ImportColumns = []string{"student_id", "first_name", "last_name", "date_of_birth", "class_name", "score"}

const studentColumns = `student_id, first_name, last_name, date_of_birth, class_name, score`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// ListPaginated retrieves one page of students matching filter, ordered by
// student_id, together with the total number of matches.
func (r *StudentRepository) ListPaginated(ctx context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int64, error) {
	where, args := buildWhere(filter)

	// 1. Get total count
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	if total == 0 {
		return []model.Student{}, 0, nil
	}

	// 2. Get paginated data
	students, err := r.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// List retrieves up to limit students matching filter starting at offset,
// ordered by student_id.
func (r *StudentRepository) List(ctx context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, error) {
	where, args := buildWhere(filter)
	argIdx := len(args) + 1
	query := `SELECT ` + studentColumns + ` FROM students` + where +
		` ORDER BY student_id LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	return r.query(ctx, query, args...)
}

// Import streams src into a transaction-scoped staging table with COPY and
// upserts the result into students. When an id repeats inside src the last
// occurrence wins. Returns the number of rows copied.
func (r *StudentRepository) Import(ctx context.Context, src pgx.CopyFromSource) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		`CREATE TEMP TABLE students_import (LIKE students INCLUDING DEFAULTS) ON COMMIT DROP`,
	); err != nil {
		return 0, fmt.Errorf("create staging table: %w", err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"students_import"}, ImportColumns, src)
	if err != nil {
		return 0, fmt.Errorf("copy students: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO students (`+studentColumns+`)
		 SELECT DISTINCT ON (student_id) `+studentColumns+`
		 FROM students_import
		 ORDER BY student_id, ctid DESC
		 ON CONFLICT (student_id) DO UPDATE SET
		     first_name    = EXCLUDED.first_name,
		     last_name     = EXCLUDED.last_name,
		     date_of_birth = EXCLUDED.date_of_birth,
		     class_name    = EXCLUDED.class_name,
		     score         = EXCLUDED.score,
		     updated_at    = CURRENT_TIMESTAMP`,
	); err != nil {
		return 0, fmt.Errorf("upsert students: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return copied, nil
}

func (r *StudentRepository) query(ctx context.Context, query string, args ...interface{}) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		var (
			s     model.Student
			dob   pgtype.Date
			clazz pgtype.Text
			score pgtype.Int4
		)
		if err := rows.Scan(&s.StudentID, &s.FirstName, &s.LastName, &dob, &clazz, &score); err != nil {
			return nil, err
		}
		if dob.Valid {
			d := model.Date{Time: dob.Time}
			s.DOB = &d
		}
		if clazz.Valid {
			s.Clazz = &clazz.String
		}
		if score.Valid {
			v := int(score.Int32)
			s.Score = &v
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// buildWhere renders filter as a WHERE clause with positional arguments.
// Search matches first or last name case-insensitively; LIKE wildcards in
// the search text are matched literally.
func buildWhere(filter model.StudentFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conds = append(conds, `student_id = $`+strconv.Itoa(len(args)))
	}
	if filter.Clazz != "" {
		args = append(args, filter.Clazz)
		conds = append(conds, `class_name = $`+strconv.Itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, `(first_name ILIKE $`+n+` OR last_name ILIKE $`+n+`)`)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}
