package infra

// pdf.go — Monthly statement generation using go-pdf/fpdf.
// One A4 page per statement: member header, a row per billing week
// (meals, purchases, payments, expense, balance, status) and a closing
// line with the advance carried out of the month.
//
// The output file is saved to storagePath/statement_{user}_{year}_{month}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"messbill/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerateStatementPDF renders a member's monthly breakdown. storagePath is
// created if needed. Returns the absolute path to the generated file.
func GenerateStatementPDF(messName, memberName string, year, month int, weeks []dto.WeeklyBalanceResponse, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("statement_%s_%d_%02d.pdf", sanitize(memberName), year, month)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, messName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Monthly statement — %s — %d-%02d", memberName, year, month), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Table header ──────────────────────────────────────────────────────────
	cols := []struct {
		title string
		width float64
		align string
	}{
		{"Week", 0.10, "L"},
		{"Meals", 0.10, "C"},
		{"Purchases", 0.16, "R"},
		{"Payments", 0.16, "R"},
		{"Expense", 0.16, "R"},
		{"Balance", 0.16, "R"},
		{"Status", 0.16, "C"},
	}

	pdf.SetFont("Helvetica", "B", 9)
	for _, col := range cols {
		pdf.CellFormat(contentW*col.width, 7, col.title, "B", 0, col.align, false, 0, "")
	}
	pdf.Ln(-1)

	// ── Week rows ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	for _, w := range weeks {
		cells := []string{
			fmt.Sprintf("%d", w.Week),
			fmt.Sprintf("%d", w.TotalMeals),
			w.TotalPurchases.StringFixed(2),
			w.TotalAdvancePayments.StringFixed(2),
			w.TotalExpense.StringFixed(2),
			w.AdjustedBalance.StringFixed(2),
			w.Status,
		}
		for i, col := range cols {
			pdf.CellFormat(contentW*col.width, 6, cells[i], "", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	// ── Carry-out line ────────────────────────────────────────────────────────
	if len(weeks) > 0 {
		last := weeks[len(weeks)-1]
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 7,
			fmt.Sprintf("Advance carried into next week: %s", last.AdvanceToNextWeek.StringFixed(2)),
			"T", 1, "R", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
