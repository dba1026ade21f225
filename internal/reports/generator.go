package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fdg312/diet-hub/internal/mealplans"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fontName = "Arial"

var slotTitles = map[string]string{
	"breakfast": "Breakfast",
	"lunch":     "Lunch",
	"dinner":    "Dinner",
	"snack":     "Snack",
}

var statusTitles = map[string]string{
	mealplans.StatusOver:    "over target",
	mealplans.StatusUnder:   "under target",
	mealplans.StatusOnTrack: "on track",
}

// GenerateCSV writes one row per plan entry followed by a total row.
func GenerateCSV(plan mealplans.PlanDTO) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"slot", "name", "calories"}); err != nil {
		return nil, err
	}
	for _, slot := range plan.Slots {
		for _, item := range slot.Items {
			if err := w.Write([]string{slot.Slot, item.Name, formatKcal(item.Calories)}); err != nil {
				return nil, err
			}
		}
	}
	if err := w.Write([]string{"total", "", formatKcal(plan.TotalKcal)}); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GeneratePDF renders the plan with the core Arial font. Core fonts only
// cover cp1252, so accents are stripped before translation.
func GeneratePDF(plan mealplans.PlanDTO, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1252")
	text := func(s string) string { return tr(plainText(s)) }

	pdf.AddPage()

	pdf.SetFont(fontName, "B", 16)
	pdf.Cell(0, 10, "Meal Plan")
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 10)
	pdf.Cell(0, 6, "Generated "+generatedAt.UTC().Format("2006-01-02"))
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 12)
	status := statusTitles[plan.Status]
	if status == "" {
		status = plan.Status
	}
	pdf.Cell(0, 8, fmt.Sprintf("Target: %s kcal   Goal: %s   Status: %s (%.0f%%)",
		formatKcal(plan.TargetKcal), plan.Goal, status, plan.ProgressPercent))
	pdf.Ln(12)

	for _, slot := range plan.Slots {
		drawSlotTable(pdf, slot, text)
	}

	pdf.SetFont(fontName, "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %s kcal", formatKcal(plan.TotalKcal)))
	pdf.Ln(8)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSlotTable(pdf *gofpdf.Fpdf, slot mealplans.SlotDTO, text func(string) string) {
	title := slotTitles[slot.Slot]
	if title == "" {
		title = slot.Slot
	}

	pdf.SetFont(fontName, "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("%s (budget %s kcal)", title, formatKcal(slot.BudgetKcal)))
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(130, 6, "Food", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Calories", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	if len(slot.Items) == 0 {
		pdf.CellFormat(170, 6, "-", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	for _, item := range slot.Items {
		pdf.CellFormat(130, 6, text(item.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, formatKcal(item.Calories), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.CellFormat(130, 6, "Subtotal", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, formatKcal(slot.TotalKcal), "1", 0, "R", false, 0, "")
	pdf.Ln(10)
}

// plainText drops combining marks so "Phở" prints as "Pho" instead of
// falling outside the code page.
func plainText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}

func formatKcal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

func filename(format string, at time.Time) string {
	return fmt.Sprintf("meal-plan-%s.%s", at.UTC().Format("2006-01-02"), format)
}
