package evaluation

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

func pdfFilename(employeeName, periodDate string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(employeeName), "-"), "-")
	if base == "" {
		base = "evaluation"
	}
	return fmt.Sprintf("%s-%s.pdf", base, strings.ToLower(periodDate))
}

func ratingText(r *int) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%d / 5", *r)
}

func renderPDF(e *Evaluation, employee Person, evaluatorName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Performance Evaluation")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	header := []string{fmt.Sprintf("Employee: %s", employee.Name)}
	if employee.Department != nil {
		header = append(header, fmt.Sprintf("Department: %s", *employee.Department))
	}
	header = append(header,
		fmt.Sprintf("Evaluator: %s", evaluatorName),
		fmt.Sprintf("Period: %s %s", e.PeriodType, e.PeriodDate),
		fmt.Sprintf("Status: %s", e.Status),
		fmt.Sprintf("Overall rating: %s", ratingText(e.OverallRating)),
	)
	for _, line := range header {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}

	if e.OverallComment != nil && *e.OverallComment != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Overall comment")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(*e.OverallComment), "", "L", false)
	}

	items := e.EvaluationItemsData.Data().Items
	if len(items) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Items")
		pdf.Ln(10)

		for i, it := range items {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.Cell(140, 7, tr(fmt.Sprintf("%d. %s (%s)", i+1, it.Title, strings.ToUpper(it.Type))))
			pdf.Cell(0, 7, ratingText(it.Rating))
			pdf.Ln(7)
			if it.Comment != nil && *it.Comment != "" {
				pdf.SetFont("Helvetica", "", 10)
				pdf.MultiCell(0, 5, tr(*it.Comment), "", "L", false)
			}
			pdf.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
