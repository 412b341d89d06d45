package letter

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Data carries everything the admission letter prints. The letter is
// re-derived on demand from the application record; nothing is stored.
type Data struct {
	InstituteName    string
	InstituteAddress string
	FullName         string
	AdmissionNumber  string
	Course           string
	ReportingDate    string
	FeePerYear       float64
	FeeBalance       float64
}

// Generate renders the admission letter as a PDF.
func Generate(d Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 8, d.InstituteName)
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, d.InstituteAddress)
	pdf.Ln(4)
	pdf.SetDrawColor(40, 145, 108)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 6, "OFFICE OF ADMISSIONS")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "LETTER OF ADMISSION")
	pdf.Ln(15)

	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf(
		"Dear %s,\n\nWe are pleased to inform you that you have been admitted to %s "+
			"for the %s programme.",
		d.FullName, d.InstituteName, d.Course), "", "L", false)
	pdf.Ln(6)

	row := func(label, value string) {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(50, 6, label)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, value)
		pdf.Ln(5)
	}
	row("Admission Number:", d.AdmissionNumber)
	row("Programme:", d.Course)
	row("Reporting Date:", d.ReportingDate)
	row("Annual Tuition:", fmt.Sprintf("KES %.2f", d.FeePerYear))
	row("Minimum Fee Balance:", fmt.Sprintf("KES %.2f", d.FeeBalance))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6,
		"Please present this letter together with your original academic documents "+
			"on the reporting date. This admission is subject to the institute's fee policy.",
		"", "L", false)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, "Registrar, Admissions")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render admission letter: %w", err)
	}
	return buf.Bytes(), nil
}
