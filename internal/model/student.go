package model

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire and in files.
const DateLayout = "2006-01-02"

// Date is a calendar date serialized as "yyyy-mm-dd".
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO "yyyy-mm-dd" date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Student is one row of the report.
type Student struct {
	StudentID int64   `json:"studentId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	DOB       *Date   `json:"dob"`
	Clazz     *string `json:"clazz"`
	Score     *int    `json:"score"`
}

// DOBString returns the date of birth or "" when unknown.
func (s Student) DOBString() string {
	if s.DOB == nil {
		return ""
	}
	return s.DOB.String()
}

// ClassName returns the class or "" when unknown.
func (s Student) ClassName() string {
	if s.Clazz == nil {
		return ""
	}
	return *s.Clazz
}

// StudentFilter narrows the report. Zero values mean "no filter".
type StudentFilter struct {
	StudentID *int64 `form:"studentId" json:"studentId,omitempty" binding:"omitempty,min=0"`
	Clazz     string `form:"clazz" json:"clazz,omitempty" binding:"omitempty,max=50"`
	Search    string `form:"search" json:"search,omitempty" binding:"omitempty,max=100"`
}

// Normalize trims free-text fields.
func (f *StudentFilter) Normalize() {
	f.Clazz = strings.TrimSpace(f.Clazz)
	f.Search = strings.TrimSpace(f.Search)
}

// StudentQuery is the query string of GET /api/students.
type StudentQuery struct {
	StudentFilter
	Page int `form:"page,default=0" json:"page" binding:"min=0"`
	Size int `form:"size,default=20" json:"size" binding:"min=1"`
}

// Offset returns the row offset of the requested page. ok is false when
// page*size does not fit in an int.
func (q StudentQuery) Offset() (offset int, ok bool) {
	return PageOffset(q.Page, q.Size)
}

// PageOffset returns page*size, or false when the product overflows.
func PageOffset(page, size int) (int, bool) {
	if page < 0 || size < 1 || page > math.MaxInt/size {
		return 0, false
	}
	return page * size, true
}

// Fingerprint returns a stable string identifying the query, used in cache keys.
func (q StudentQuery) Fingerprint() string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if q.StudentID != nil {
		v.Set("studentId", strconv.FormatInt(*q.StudentID, 10))
	}
	if q.Clazz != "" {
		v.Set("clazz", q.Clazz)
	}
	if q.Search != "" {
		v.Set("search", strings.ToLower(q.Search))
	}
	return v.Encode()
}

// ExportQuery is the query string of GET /api/students/export.
type ExportQuery struct {
	StudentFilter
	Format string `form:"format" json:"format" binding:"required"`
	Page   int    `form:"page,default=0" json:"page" binding:"min=0"`
	Size   int    `form:"size,default=100" json:"size" binding:"min=1"`
	// All exports every matching row instead of one page.
	All bool `form:"all" json:"all"`
}
