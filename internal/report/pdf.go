package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
)

// PDFMeta is the header information of a PDF scan report.
type PDFMeta struct {
	Title       string
	Serial      string
	GeneratedAt time.Time
}

// WritePDF renders entries as a paginated A4 report using the core
// Helvetica font.
func WritePDF(w io.Writer, meta PDFMeta, entries []Entry) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle(meta.Title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, pdfText(meta.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, "Generated at: "+meta.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"), "", 1, "L", false, 0, "")
	if meta.Serial != "" {
		pdf.CellFormat(0, 6, "Device: "+pdfText(meta.Serial), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Packages: %d", len(entries)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	sectionTitle(pdf, "Summary")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(230, 230, 235)
	pdf.CellFormat(110, 6, "Package", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 6, "Score", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 6, "Level", "1", 0, "C", true, 0, "")
	pdf.CellFormat(27, 6, "Suspicious", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, e := range entries {
		r, g, b := levelColor(string(e.Level))
		pdf.SetTextColor(20, 20, 20)
		pdf.CellFormat(110, 5.5, pdfText(e.Package), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 5.5, fmt.Sprintf("%.1f", e.Score), "1", 0, "R", false, 0, "")
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(25, 5.5, string(e.Level), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.CellFormat(27, 5.5, fmt.Sprintf("%d", len(e.Suspicious)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	sectionTitle(pdf, "Details")
	for _, e := range entries {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(20, 20, 20)
		pdf.CellFormat(0, 6, pdfText(e.Package), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(40, 40, 40)
		if e.Error != "" {
			kv(pdf, "Error", e.Error)
		}
		kv(pdf, "Version", e.Version)
		kv(pdf, "SHA-256", e.ContentHash)
		kv(pdf, "Suspicious", strings.Join(e.Suspicious, ", "))
		kv(pdf, "Permissions", fmt.Sprintf("%d declared", len(e.Permissions)))
		exported := make([]string, len(e.ExportedComponents))
		for i, c := range e.ExportedComponents {
			exported[i] = string(c.Kind) + " " + c.Name
		}
		kv(pdf, "Exported", strings.Join(exported, ", "))
		kv(pdf, "Actions", strings.Join(e.IntentActions, ", "))
		pdf.Ln(2)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(90, 90, 90)
	pdf.MultiCell(0, 4, "Scores are heuristic: suspicious permissions x1.0, exported components x0.5, intent actions x0.2, capped at 10.", "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render PDF: %w", err)
	}
	return nil
}

// PDF publishes a PDF scan report and returns its path.
func (w *Writer) PDF(meta PDFMeta, entries []Entry) (string, error) {
	return w.Publish("manifest", "pdf", func(out io.Writer) error {
		return WritePDF(out, meta, entries)
	})
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdf.GetX(), pdf.GetY(), 196, pdf.GetY())
	pdf.Ln(2)
}

func kv(pdf *gofpdf.Fpdf, key, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(28, 4.8, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 4.8, pdfText(value), "", "L", false)
}

func levelColor(level string) (int, int, int) {
	switch level {
	case "HIGH":
		return 180, 40, 40
	case "MEDIUM":
		return 170, 120, 0
	default:
		return 40, 120, 40
	}
}

// pdfText flattens whitespace and replaces characters the core fonts
// cannot encode.
func pdfText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Map(func(r rune) rune {
		if r > 126 {
			return '?'
		}
		return r
	}, s)
}
