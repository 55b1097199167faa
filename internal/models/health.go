package models

import "github.com/shopspring/decimal"

// HealthStatus is an ordered severity level describing how much of a budget is consumed.
type HealthStatus int

// Health statuses in increasing order of severity.
const (
	HealthExcellent HealthStatus = iota
	HealthGood
	HealthAttention
	HealthConcern
)

func (s HealthStatus) String() string {
	switch s {
	case HealthExcellent:
		return "excellent"
	case HealthGood:
		return "good"
	case HealthAttention:
		return "attention"
	case HealthConcern:
		return "concern"
	default:
		return "unknown"
	}
}

// Emoji returns the marker used when rendering a status in chat.
func (s HealthStatus) Emoji() string {
	switch s {
	case HealthExcellent:
		return "🟢"
	case HealthGood:
		return "🔵"
	case HealthAttention:
		return "🟡"
	default:
		return "🔴"
	}
}

// EncouragementLevel is the tone tag that drives user-facing copy.
type EncouragementLevel string

// Encouragement levels, one per health status.
const (
	EncouragementCelebration   EncouragementLevel = "celebration"
	EncouragementEncouragement EncouragementLevel = "encouragement"
	EncouragementGuidance      EncouragementLevel = "guidance"
	EncouragementSupport       EncouragementLevel = "support"
)

// BudgetImpactPreview projects what a not-yet-committed expense would do to a category.
type BudgetImpactPreview struct {
	CategoryID            int
	CategoryName          string
	CurrentSpent          decimal.Decimal
	MonthlyLimit          decimal.Decimal
	HypotheticalAmount    decimal.Decimal
	RemainingAfterExpense decimal.Decimal
	PercentageUsed        decimal.Decimal
	HealthStatus          HealthStatus
	IsEssential           bool
	ImpactMessage         string
	EncouragementLevel    EncouragementLevel
}

// OverallBudgetHealth summarizes every category of a user for the current month.
type OverallBudgetHealth struct {
	TotalBudgeted                decimal.Decimal
	TotalSpent                   decimal.Decimal
	TotalRemaining               decimal.Decimal
	PercentageUsed               decimal.Decimal
	OverallStatus                HealthStatus
	EssentialCategoriesHealth    HealthStatus
	NonEssentialCategoriesHealth HealthStatus
	HealthMessage                string
	EncouragementMessage         string
	CategoryCount                int
}

// MonthlyProgressData is the month-to-date progress of one category with a run-rate projection.
type MonthlyProgressData struct {
	CategoryID           int
	CategoryName         string
	MonthlyLimit         decimal.Decimal
	CurrentSpent         decimal.Decimal
	PercentageUsed       decimal.Decimal
	HealthStatus         HealthStatus
	IsEssential          bool
	DaysRemainingInMonth int
	ProjectedSpending    decimal.Decimal
	OnPaceToOverspend    bool
}
