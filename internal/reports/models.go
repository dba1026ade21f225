package reports

import (
	"context"
	"errors"

	"github.com/fdg312/diet-hub/internal/mealplans"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

var ErrInvalidFormat = errors.New("invalid format")

// PlanSource returns the saved meal plan of a user.
type PlanSource interface {
	Get(ctx context.Context, ownerUserID string) (mealplans.PlanDTO, bool, error)
}

// ParseFormat accepts "pdf" or "csv"; empty means pdf.
func ParseFormat(s string) (string, error) {
	switch s {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", ErrInvalidFormat
	}
}

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/pdf"
}
