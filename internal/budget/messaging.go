package budget

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

var essentialMessages = map[models.HealthStatus]string{
	models.HealthExcellent: "Great choice! You're staying well within your essential budget!",
	models.HealthGood:      "Nice work! Your essential spending is on track.",
	models.HealthAttention: "Heads up: this essential category is getting close to its limit.",
	models.HealthConcern:   "This essential category is nearly used up. Let's plan the rest of the month carefully.",
}

var niceToHaveMessages = map[models.HealthStatus]string{
	models.HealthExcellent: "Enjoy it! There's plenty of room left in your nice-to-have budget.",
	models.HealthGood:      "Looking good! Your nice-to-have spending is comfortably on track.",
	models.HealthAttention: "Worth a pause: your nice-to-have budget is getting tight.",
	models.HealthConcern:   "Your nice-to-have budget is almost gone. Maybe this one can wait?",
}

var overallMessages = map[models.HealthStatus][2]string{
	models.HealthExcellent: {
		"Your budget is in excellent shape this month.",
		"Keep up the great habits!",
	},
	models.HealthGood: {
		"Your budget is on track this month.",
		"You're doing well, stay the course.",
	},
	models.HealthAttention: {
		"Your budget needs some attention this month.",
		"A few small adjustments now will make month-end easier.",
	},
	models.HealthConcern: {
		"Your budget is under pressure this month.",
		"Every budget has tough months. Focus on essentials and you'll get through it.",
	},
}

// LevelFor returns the encouragement level paired with a status.
func LevelFor(status models.HealthStatus) models.EncouragementLevel {
	switch status {
	case models.HealthExcellent:
		return models.EncouragementCelebration
	case models.HealthGood:
		return models.EncouragementEncouragement
	case models.HealthAttention:
		return models.EncouragementGuidance
	default:
		return models.EncouragementSupport
	}
}

// Render produces the impact message and encouragement level for a category.
// A negative remaining always yields an over-budget message, whatever the status.
// Output depends only on the arguments.
func Render(status models.HealthStatus, isEssential bool, remaining decimal.Decimal) (string, models.EncouragementLevel) {
	level := LevelFor(status)

	if remaining.IsNegative() {
		over := FormatAmount(remaining.Neg())
		if isEssential {
			return fmt.Sprintf("This would put your essential budget over budget by %s. "+
				"Essentials matter, so look for room in other categories.", over), level
		}
		return fmt.Sprintf("This would put your nice-to-have budget over budget by %s. "+
			"Consider postponing it to next month.", over), level
	}

	messages := niceToHaveMessages
	if isEssential {
		messages = essentialMessages
	}
	msg, ok := messages[status]
	if !ok {
		msg = messages[models.HealthConcern]
	}
	return msg, level
}

// OverallMessages returns the health summary and encouragement text for an overall status.
func OverallMessages(status models.HealthStatus) (health, encouragement string) {
	m, ok := overallMessages[status]
	if !ok {
		m = overallMessages[models.HealthConcern]
	}
	return m[0], m[1]
}

// FormatAmount renders a money amount as $X.XX.
func FormatAmount(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Neg().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}
