// Package ledger is the write path for categories and expenses. Every write that can
// change a category's spend or limit invalidates its cached budget data before returning.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/budget"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// MaxDescriptionLength is the longest stored expense description, in characters.
const MaxDescriptionLength = 200

// MaxMonthlyLimit fits the DECIMAL(12,2) limit column.
var MaxMonthlyLimit = decimal.RequireFromString("9999999999.99")

var (
	// ErrInvalidName is returned for empty or overlong category names.
	ErrInvalidName = fmt.Errorf("%w: category name must be 1-%d characters", budget.ErrValidation, models.MaxCategoryNameLength)
	// ErrInvalidLimit is returned for non-positive or oversized monthly limits.
	ErrInvalidLimit = fmt.Errorf("%w: monthly limit must be greater than 0", budget.ErrValidation)
	// ErrDuplicateCategory is returned when the user already has a category with the name.
	ErrDuplicateCategory = fmt.Errorf("%w: a category with this name already exists", budget.ErrValidation)
)

// CategoryStore persists categories scoped to their owner.
type CategoryStore interface {
	FindCategory(ctx context.Context, userID int64, categoryID int) (*models.BudgetCategory, error)
	FindCategoryByName(ctx context.Context, userID int64, name string) (*models.BudgetCategory, error)
	ListCategories(ctx context.Context, userID int64) ([]models.BudgetCategory, error)
	Create(ctx context.Context, cat *models.BudgetCategory) error
	Update(ctx context.Context, cat *models.BudgetCategory) error
	Delete(ctx context.Context, userID int64, categoryID int) error
}

// ExpenseStore persists expenses scoped to their owner.
type ExpenseStore interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, userID int64, id int) (*models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, userID int64, id int) error
}

// CacheInvalidator evicts cached budget data of a (user, category) pair.
type CacheInvalidator interface {
	InvalidateBudgetCache(ctx context.Context, userID int64, categoryID int)
}

// findOwnedCategory wraps not-found lookups so callers can still test with errors.Is.
func findOwnedCategory(ctx context.Context, categories CategoryStore, userID int64, categoryID int) (*models.BudgetCategory, error) {
	cat, err := categories.FindCategory(ctx, userID, categoryID)
	if errors.Is(err, models.ErrCategoryNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return cat, nil
}
