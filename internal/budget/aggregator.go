package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// CategoryReader looks up categories scoped to their owner.
type CategoryReader interface {
	FindCategory(ctx context.Context, userID int64, categoryID int) (*models.BudgetCategory, error)
	ListCategories(ctx context.Context, userID int64) ([]models.BudgetCategory, error)
}

// ExpenseSummer totals committed expenses.
type ExpenseSummer interface {
	SumExpenses(ctx context.Context, userID int64, categoryID int, dateRange models.DateRange) (decimal.Decimal, error)
}

// SpendAggregator sums committed spend for a category within a calendar month.
type SpendAggregator struct {
	categories CategoryReader
	expenses   ExpenseSummer
	clock      Clock
}

// NewSpendAggregator creates a SpendAggregator.
func NewSpendAggregator(categories CategoryReader, expenses ExpenseSummer, clock Clock) *SpendAggregator {
	return &SpendAggregator{categories: categories, expenses: expenses, clock: clock}
}

// GetCurrentSpend returns the user's spend in the category from the first of the current month through today.
// Returns models.ErrCategoryNotFound when the category is missing or owned by someone else.
func (a *SpendAggregator) GetCurrentSpend(ctx context.Context, userID int64, categoryID int) (decimal.Decimal, error) {
	snapshot, err := a.Snapshot(ctx, userID, categoryID, a.clock.Now())
	if err != nil {
		return decimal.Zero, err
	}
	return snapshot.CurrentSpent, nil
}

// Snapshot returns the spend of the month containing asOf, ownership-checked.
func (a *SpendAggregator) Snapshot(
	ctx context.Context,
	userID int64,
	categoryID int,
	asOf time.Time,
) (models.SpendSnapshot, error) {
	category, err := a.categories.FindCategory(ctx, userID, categoryID)
	if err != nil {
		return models.SpendSnapshot{}, fmt.Errorf("failed to find category %d: %w", categoryID, err)
	}
	return a.SnapshotCategory(ctx, *category, asOf)
}

// SnapshotCategory is Snapshot for a category the caller already loaded for its owner.
func (a *SpendAggregator) SnapshotCategory(
	ctx context.Context,
	category models.BudgetCategory,
	asOf time.Time,
) (models.SpendSnapshot, error) {
	window := monthWindow(asOf, a.clock.Now())
	spent, err := a.expenses.SumExpenses(ctx, category.UserID, category.ID, window)
	if err != nil {
		return models.SpendSnapshot{}, fmt.Errorf("failed to sum spend for category %d: %w", category.ID, err)
	}
	return models.SpendSnapshot{
		Category:     category,
		Month:        monthKey(window.From),
		Window:       window,
		CurrentSpent: spent,
	}, nil
}
