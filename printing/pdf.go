package printing

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const lineHeight = 4.5

// RenderPDF lays the ticket out on a single roll-paper page.
func RenderPDF(t Ticket, paperWidth int) ([]byte, error) {
	if paperWidth != 58 {
		paperWidth = 80
	}
	width := float64(paperWidth)

	lines := 4 + len(t.Header) + len(t.Footer) + len(t.Totals)
	for _, l := range t.Lines {
		lines++
		if l.Notes != "" {
			lines++
		}
	}
	height := float64(lines)*lineHeight + 20
	if height < 60 {
		height = 60
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(3, 3, 3)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	content := width - 6

	pdf.SetFont("Courier", "B", 11)
	pdf.CellFormat(content, lineHeight+1, tr(t.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "", 8)
	for _, h := range t.Header {
		pdf.CellFormat(content, lineHeight, tr(h), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(content, 1, "", "B", 1, "", false, 0, "")

	amountWidth := 22.0
	for _, l := range t.Lines {
		name := fmt.Sprintf("%dx %s", l.Quantity, l.Name)
		if l.Amount != nil {
			pdf.CellFormat(content-amountWidth, lineHeight, tr(name), "", 0, "L", false, 0, "")
			pdf.CellFormat(amountWidth, lineHeight, utils.FormatMoney(*l.Amount, ""), "", 1, "R", false, 0, "")
		} else {
			pdf.SetFont("Courier", "B", 9)
			pdf.CellFormat(content, lineHeight, tr(name), "", 1, "L", false, 0, "")
			pdf.SetFont("Courier", "", 8)
		}
		if l.Notes != "" {
			pdf.CellFormat(content, lineHeight, tr("  > "+l.Notes), "", 1, "L", false, 0, "")
		}
	}

	if len(t.Totals) > 0 {
		pdf.CellFormat(content, 1, "", "B", 1, "", false, 0, "")
		for _, tot := range t.Totals {
			pdf.CellFormat(content-30, lineHeight, tr(tot.Label), "", 0, "L", false, 0, "")
			pdf.CellFormat(30, lineHeight, utils.FormatMoney(tot.Amount, t.Currency), "", 1, "R", false, 0, "")
		}
	}
	for _, f := range t.Footer {
		pdf.CellFormat(content, lineHeight, tr(f), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(content, lineHeight, t.Printed.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}
