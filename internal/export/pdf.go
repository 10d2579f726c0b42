package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/signintech/gopdf"
	"github.com/stemsi/dataprocessor/internal/model"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	fontRegular = "go-regular"
	fontBold    = "go-bold"

	// RecordsPerPage is the number of student lines on each PDF page.
	RecordsPerPage = 30

	marginLeft = 50.0
	titleY     = 42.0
	headerY    = 72.0
	firstRowY  = 92.0
	nextPageY  = 42.0
	lineStep   = 15.0
)

// Letter size in points, the default page of most PDF tooling.
var pageSize = gopdf.Rect{W: 612, H: 792}

// WritePDF renders a title, a header line and one line per student,
// RecordsPerPage lines per page. Unknown scores print as 0.
func WritePDF(w io.Writer, students []model.Student) error {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: pageSize})

	if err := pdf.AddTTFFontData(fontRegular, goregular.TTF); err != nil {
		return fmt.Errorf("load regular font: %w", err)
	}
	if err := pdf.AddTTFFontData(fontBold, gobold.TTF); err != nil {
		return fmt.Errorf("load bold font: %w", err)
	}

	pdf.AddPage()

	if err := text(pdf, fontBold, 16, titleY, "Student Data Export"); err != nil {
		return err
	}
	if err := text(pdf, fontBold, 10, headerY, strings.Join(Header, " | ")); err != nil {
		return err
	}

	y := firstRowY
	for i, s := range students {
		if i > 0 && i%RecordsPerPage == 0 {
			pdf.AddPage()
			y = nextPageY
		}
		if err := text(pdf, fontRegular, 8, y, pdfLine(s)); err != nil {
			return err
		}
		y += lineStep
	}

	if _, err := pdf.WriteTo(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func text(pdf *gopdf.GoPdf, family string, size float64, y float64, s string) error {
	if err := pdf.SetFont(family, "", size); err != nil {
		return fmt.Errorf("set font: %w", err)
	}
	pdf.SetXY(marginLeft, y)
	return pdf.Cell(nil, s)
}

func pdfLine(s model.Student) string {
	return fmt.Sprintf("%d | %s | %s | %s | %s | %d",
		s.StudentID, s.FirstName, s.LastName, s.DOBString(), s.ClassName(), scoreOrZero(s))
}
