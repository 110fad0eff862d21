package pdf

import (
	"fmt"

	"github.com/hemolens/hemolens/internal/report"
)

// maxParameterLen is the longest parameter name the table renders before
// truncating with an ellipsis.
const maxParameterLen = 30

func (d *doc) addPatientDetails(rep *report.Report) {
	pd := rep.PatientDetails
	if pd == nil {
		return
	}
	d.chapterTitle("Patient Details")

	if pd.Name != "" {
		d.labelRow("Name:", pd.Name)
	}
	if pd.Age != "" || pd.Gender != "" {
		d.labelRow("Age/Gender:", fmt.Sprintf("%s / %s", orNA(pd.Age), orNA(pd.Gender)))
	}
	if pd.ID != "" {
		d.labelRow("Patient ID:", pd.ID)
	}
	d.pdf.Ln(4)
}

func (d *doc) addTestDate(rep *report.Report) {
	if rep.TestDate == "" {
		return
	}
	d.labelRow("Test Date:", rep.TestDate)
	d.pdf.Ln(4)
}

func (d *doc) addParameters(rep *report.Report) {
	if len(rep.BloodParameters) == 0 {
		return
	}
	d.chapterTitle("Blood Parameters")

	d.pdf.SetFont(fontFamily, "B", 10)
	d.pdf.CellFormat(60, 7, "Parameter", "1", 0, "C", false, 0, "")
	d.pdf.CellFormat(30, 7, "Value", "1", 0, "C", false, 0, "")
	d.pdf.CellFormat(60, 7, "Reference Range", "1", 0, "C", false, 0, "")
	d.pdf.CellFormat(40, 7, "Status", "1", 1, "C", false, 0, "")

	d.pdf.SetFont(fontFamily, "", 10)
	for _, p := range rep.BloodParameters {
		d.pdf.CellFormat(60, 7, truncateName(p.Parameter), "1", 0, "", false, 0, "")
		d.pdf.CellFormat(30, 7, orNA(p.Value), "1", 0, "C", false, 0, "")
		d.pdf.CellFormat(60, 7, orNA(p.ReferenceRange), "1", 0, "C", false, 0, "")

		// Red ABNORMAL, green NORMAL. Anything that is not "abnormal"
		// renders as NORMAL, unexpected statuses included.
		if p.Abnormal() {
			d.pdf.SetTextColor(255, 0, 0)
			d.pdf.CellFormat(40, 7, "ABNORMAL", "1", 1, "C", false, 0, "")
		} else {
			d.pdf.SetTextColor(0, 128, 0)
			d.pdf.CellFormat(40, 7, "NORMAL", "1", 1, "C", false, 0, "")
		}
		d.pdf.SetTextColor(0, 0, 0)
	}
	d.pdf.Ln(4)
}

func (d *doc) addSummary(rep *report.Report) {
	if len(rep.Summary) == 0 {
		return
	}
	d.chapterTitle("Summary")

	d.pdf.SetFont(fontFamily, "", 10)
	for i, point := range rep.Summary {
		d.pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, point), "", "", false)
	}
	d.pdf.Ln(4)
}

func (d *doc) addDisclaimer(rep *report.Report) {
	if len(rep.Disclaimer) == 0 {
		return
	}
	d.chapterTitle("Disclaimer")

	d.pdf.SetFont(fontFamily, "I", 10)
	d.pdf.SetTextColor(128, 128, 128)
	for i, point := range rep.Disclaimer {
		d.pdf.MultiCell(0, 5, fmt.Sprintf("%d. %s", i+1, point), "", "", false)
	}
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.Ln(4)
}

// truncateName shortens a parameter name to the table's limit, counting runes
// so a multi-byte name is not cut mid-character.
func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxParameterLen {
		return name
	}
	return string(runes[:maxParameterLen]) + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
