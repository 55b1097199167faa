package budget

import (
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// BuildOverallHealth aggregates current-month snapshots of every category a user owns.
func BuildOverallHealth(snapshots []models.SpendSnapshot) models.OverallBudgetHealth {
	var budgeted, spent decimal.Decimal
	var essentialLimit, essentialSpent, niceLimit, niceSpent decimal.Decimal
	var essentialCount, niceToHaveCount int

	for _, s := range snapshots {
		limit := s.Category.MonthlyLimit
		budgeted = budgeted.Add(limit)
		spent = spent.Add(s.CurrentSpent)
		if s.Category.IsEssential {
			essentialLimit = essentialLimit.Add(limit)
			essentialSpent = essentialSpent.Add(s.CurrentSpent)
			essentialCount++
		} else {
			niceLimit = niceLimit.Add(limit)
			niceSpent = niceSpent.Add(s.CurrentSpent)
			niceToHaveCount++
		}
	}

	status := classifyGroup(spent, budgeted, len(snapshots))
	health, encouragement := OverallMessages(status)

	return models.OverallBudgetHealth{
		TotalBudgeted:                budgeted,
		TotalSpent:                   spent,
		TotalRemaining:               budgeted.Sub(spent),
		PercentageUsed:               Percentage(spent, budgeted),
		OverallStatus:                status,
		EssentialCategoriesHealth:    classifyGroup(essentialSpent, essentialLimit, essentialCount),
		NonEssentialCategoriesHealth: classifyGroup(niceSpent, niceLimit, niceToHaveCount),
		HealthMessage:                health,
		EncouragementMessage:         encouragement,
		CategoryCount:                len(snapshots),
	}
}

// BuildMonthlyProgress reports month-to-date progress for one category and projects
// month-end spend at the current daily run rate.
func BuildMonthlyProgress(snapshot models.SpendSnapshot, today time.Time) models.MonthlyProgressData {
	limit := snapshot.Category.MonthlyLimit
	days := daysInMonth(today)
	elapsed := today.Day()

	projected := snapshot.CurrentSpent.
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(int64(elapsed))).
		Round(2)

	return models.MonthlyProgressData{
		CategoryID:           snapshot.Category.ID,
		CategoryName:         snapshot.Category.Name,
		MonthlyLimit:         limit,
		CurrentSpent:         snapshot.CurrentSpent,
		PercentageUsed:       Percentage(snapshot.CurrentSpent, limit),
		HealthStatus:         Classify(snapshot.CurrentSpent, limit),
		IsEssential:          snapshot.Category.IsEssential,
		DaysRemainingInMonth: days - elapsed + 1,
		ProjectedSpending:    projected,
		OnPaceToOverspend:    projected.GreaterThan(limit),
	}
}
