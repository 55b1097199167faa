// Package budget turns category limits and committed spend into health judgments,
// impact previews and monthly summaries.
package budget

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/logger"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Band thresholds in percent of the limit. A value exactly on a threshold
// belongs to the more severe band. Bands are chosen on the exact ratio, never the
// rounded percentage.
var (
	goodThreshold      = decimal.NewFromInt(50)
	attentionThreshold = decimal.NewFromInt(75)
	concernThreshold   = decimal.NewFromInt(90)
)

// Percentage returns spent/limit*100 rounded to two decimal places, or zero when limit is not positive.
// The result is unbounded above 100.
func Percentage(spent, limit decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return spent.Mul(hundred).Div(limit).Round(2)
}

// Classify maps spent against limit to a health status.
// A non-positive limit cannot be divided by; it is reported as Excellent and logged.
func Classify(spent, limit decimal.Decimal) models.HealthStatus {
	if !limit.IsPositive() {
		logger.Log.Warn().
			Str("limit", limit.String()).
			Str("spent", spent.String()).
			Msg("Classifying against a non-positive budget limit, defaulting to excellent")
		return models.HealthExcellent
	}
	// spent*100 against threshold*limit keeps the comparison exact.
	scaled := spent.Mul(hundred)
	switch {
	case scaled.LessThan(goodThreshold.Mul(limit)):
		return models.HealthExcellent
	case scaled.LessThan(attentionThreshold.Mul(limit)):
		return models.HealthGood
	case scaled.LessThan(concernThreshold.Mul(limit)):
		return models.HealthAttention
	default:
		return models.HealthConcern
	}
}

// classifyGroup classifies a subtotal. An empty group has nothing at risk.
func classifyGroup(spent, limit decimal.Decimal, count int) models.HealthStatus {
	if count == 0 {
		return models.HealthExcellent
	}
	return Classify(spent, limit)
}
