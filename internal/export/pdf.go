package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/abhisek/cefrquiz/internal/cefr"
)

const (
	pageMargin = 15.0
	lineHeight = 6.0
)

var unsafeName = regexp.MustCompile(`[^a-z0-9]+`)

// FileName returns the default report file name for a learner.
func FileName(learner string, at time.Time) string {
	slug := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(learner), "-"), "-")
	if slug == "" {
		slug = "learner"
	}
	return fmt.Sprintf("cefr-summary-%s-%s.pdf", slug, at.Format("20060102-150405"))
}

// SavePDF writes r to path, creating parent directories. A partially
// written file is removed on failure.
func SavePDF(path string, r Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WritePDF(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// WritePDF renders r as an A4 PDF.
func WritePDF(w io.Writer, r Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle("CEFR English Proficiency Summary", true)
	pdf.SetCreator("cefrquiz", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "CEFR English Proficiency Summary", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, "Generated "+r.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	field := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, lineHeight+1, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, lineHeight+1, tr(value), "", 1, "L", false, 0, "")
	}

	field("Learner", r.Learner)
	if r.UserID != "" {
		field("User ID", r.UserID)
	}
	if r.Answered > 0 {
		field("Questions answered", fmt.Sprintf("%d", r.Answered))
		field("Completed", fmt.Sprintf("%d", r.Correct))
	}
	if agg := r.Aggregate; agg != nil {
		field("Total submissions", fmt.Sprintf("%d", agg.TotalSubmissions))
		field("Average score", fmt.Sprintf("%.2f / 5", agg.AverageScore))
		if agg.MostRecentMode != "" {
			field("Most recent", fmt.Sprintf("%s, %.0f / 5", agg.MostRecentMode, agg.MostRecentScore))
		}
		if !agg.LastUpdated.IsZero() {
			field("Last updated", agg.LastUpdated.Format("2006-01-02 15:04"))
		}
		progressBar(pdf, cefr.ScorePercent(agg.AverageScore))
	}

	if r.Level != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, "Estimated level: "+string(r.Level), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, lineHeight, tr(r.Encouragement), "", "L", false)
	}

	if len(r.Entries) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, "Review", "", 1, "L", false, 0, "")
		for i, e := range r.Entries {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.MultiCell(0, lineHeight, tr(fmt.Sprintf("%d. [%s] %s", i+1, e.Band, e.Question)), "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, lineHeight, tr("Answer: "+e.Answer), "", "L", false)
			pdf.MultiCell(0, lineHeight, tr("Result: "+e.Outcome), "", "L", false)
			pdf.Ln(1)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func progressBar(pdf *fpdf.Fpdf, percent float64) {
	const width, height = 120.0, 5.0
	x, y := pdf.GetX()+50, pdf.GetY()+1
	pdf.SetDrawColor(180, 180, 180)
	pdf.Rect(x, y, width, height, "D")
	pdf.SetFillColor(76, 175, 80)
	if percent > 0 {
		pdf.Rect(x, y, width*percent/100, height, "F")
	}
	pdf.Ln(height + 3)
}
