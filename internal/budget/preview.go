package budget

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// BuildPreview projects a hypothetical expense onto a spend snapshot.
func BuildPreview(snapshot models.SpendSnapshot, amount decimal.Decimal) models.BudgetImpactPreview {
	limit := snapshot.Category.MonthlyLimit
	projected := snapshot.CurrentSpent.Add(amount)
	remaining := limit.Sub(projected)
	status := Classify(projected, limit)
	message, level := Render(status, snapshot.Category.IsEssential, remaining)

	return models.BudgetImpactPreview{
		CategoryID:            snapshot.Category.ID,
		CategoryName:          snapshot.Category.Name,
		CurrentSpent:          snapshot.CurrentSpent,
		MonthlyLimit:          limit,
		HypotheticalAmount:    amount,
		RemainingAfterExpense: remaining,
		PercentageUsed:        Percentage(projected, limit),
		HealthStatus:          status,
		IsEssential:           snapshot.Category.IsEssential,
		ImpactMessage:         message,
		EncouragementLevel:    level,
	}
}
