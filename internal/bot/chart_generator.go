package bot

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// ErrNothingToChart is returned when no category has spending in the month.
var ErrNothingToChart = errors.New("no spending to chart")

// GenerateBudgetChart creates a pie chart of spend per category for one month.
// Categories without spending are left out. Returns PNG image as bytes.
func GenerateBudgetChart(snapshots []models.SpendSnapshot, monthLabel string) ([]byte, error) {
	var values []float64
	var categoryNames []string

	for _, s := range snapshots {
		if !s.CurrentSpent.IsPositive() {
			continue
		}
		categoryNames = append(categoryNames, s.Category.Name)
		values = append(values, s.CurrentSpent.InexactFloat64())
	}

	if len(values) == 0 {
		return nil, ErrNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Spending by Category - %s", monthLabel),
		}),
		charts.LegendLabelsOptionFunc(categoryNames),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// chartFilename creates filename like "budget_2026-03.png".
func chartFilename(month string) string {
	return fmt.Sprintf("budget_%s.png", month)
}
