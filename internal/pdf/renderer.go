// Package pdf renders a populated report record as a paginated PDF document.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/hemolens/hemolens/internal/report"
)

const (
	documentTitle = "Blood Test Report Analysis"
	fontFamily    = "Arial"
)

// Renderer produces the fixed-layout analysis document. It is stateless
// between calls; given the same report and a pinned clock the output bytes
// are identical.
type Renderer struct {
	// Now supplies the "Generated on" timestamp and the document creation
	// date. Defaults to time.Now; tests pin it for reproducible output.
	Now func() time.Time
}

// NewRenderer returns a Renderer using the wall clock.
func NewRenderer() *Renderer {
	return &Renderer{Now: time.Now}
}

// Render produces the PDF document for a report.
func (r *Renderer) Render(rep *report.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, rep); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo writes the PDF document for a report to w.
//
// Sections appear in fixed order and each one skips itself when its field is
// absent from the report: generation timestamp, patient block, test date,
// parameter table, summary, disclaimer. Page breaks are automatic.
func (r *Renderer) RenderTo(w io.Writer, rep *report.Report) error {
	if rep == nil {
		return fmt.Errorf("cannot render a nil report")
	}

	now := r.now()

	d := newDoc(now)
	d.addGeneratedLine(now)

	for _, section := range []func(*report.Report){
		d.addPatientDetails,
		d.addTestDate,
		d.addParameters,
		d.addSummary,
		d.addDisclaimer,
	} {
		section(rep)
	}

	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("pdf rendering failed: %w", err)
	}
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// doc wraps the underlying fpdf document with the report's fixed chrome:
// a centered title header on every page and a "Page N/total" footer.
type doc struct {
	pdf *fpdf.Fpdf
}

func newDoc(now time.Time) *doc {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetCreationDate(now)
	p.SetModificationDate(now)
	// Sorted object catalog so identical input renders identical bytes.
	p.SetCatalogSort(true)
	p.AliasNbPages("")

	p.SetHeaderFunc(func() {
		p.SetFont(fontFamily, "B", 16)
		p.Cell(80, 10, "")
		p.CellFormat(30, 10, documentTitle, "", 0, "C", false, 0, "")
		p.Ln(20)
	})
	p.SetFooterFunc(func() {
		p.SetY(-15)
		p.SetFont(fontFamily, "I", 8)
		p.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", p.PageNo()), "", 0, "C", false, 0, "")
	})

	p.AddPage()
	return &doc{pdf: p}
}

// addGeneratedLine stamps the render time. This is the render clock, not the
// record's analysis_timestamp.
func (d *doc) addGeneratedLine(now time.Time) {
	d.pdf.SetFont(fontFamily, "I", 10)
	d.pdf.CellFormat(0, 10, "Generated on: "+now.Format("January 02, 2006, 15:04"), "", 1, "", false, 0, "")
	d.pdf.Ln(4)
}

// chapterTitle paints a section heading with a light blue fill.
func (d *doc) chapterTitle(title string) {
	d.pdf.SetFont(fontFamily, "B", 12)
	d.pdf.SetFillColor(200, 220, 255)
	d.pdf.CellFormat(0, 6, title, "", 1, "L", true, 0, "")
	d.pdf.Ln(4)
}

// labelRow paints a bold label with a plain value on one line.
func (d *doc) labelRow(label, value string) {
	d.pdf.SetFont(fontFamily, "B", 10)
	d.pdf.CellFormat(30, 6, label, "", 0, "", false, 0, "")
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.CellFormat(0, 6, value, "", 1, "", false, 0, "")
}
