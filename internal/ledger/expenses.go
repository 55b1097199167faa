package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/budget"
	"gitlab.com/yelinaung/budget-health/internal/logger"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// ExpenseService records, edits and removes expenses.
type ExpenseService struct {
	categories  CategoryStore
	expenses    ExpenseStore
	invalidator CacheInvalidator
	clock       budget.Clock
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(
	categories CategoryStore,
	expenses ExpenseStore,
	invalidator CacheInvalidator,
	clock budget.Clock,
) *ExpenseService {
	return &ExpenseService{
		categories:  categories,
		expenses:    expenses,
		invalidator: invalidator,
		clock:       clock,
	}
}

// RecordRequest describes a new expense. A zero Date means today.
type RecordRequest struct {
	UserID      int64
	CategoryID  int
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// Record validates and stores a new expense.
func (s *ExpenseService) Record(ctx context.Context, req RecordRequest) (*models.Expense, error) {
	expense := &models.Expense{
		UserID:      req.UserID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: normalizeDescription(req.Description),
		ExpenseDate: req.Date,
	}
	if err := s.validate(ctx, expense); err != nil {
		return nil, err
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to record expense: %w", err)
	}
	s.invalidator.InvalidateBudgetCache(ctx, expense.UserID, expense.CategoryID)

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(expense.UserID)).
		Int("expense_id", expense.ID).
		Int("category_id", expense.CategoryID).
		Str("description", logger.SanitizeDescription(expense.Description)).
		Msg("Expense recorded")

	return expense, nil
}

// Update replaces an expense's category, amount, description and date.
// Both the old and the new category are invalidated.
func (s *ExpenseService) Update(ctx context.Context, expense *models.Expense) error {
	existing, err := s.expenses.GetByID(ctx, expense.UserID, expense.ID)
	if err != nil {
		return err
	}

	expense.Description = normalizeDescription(expense.Description)
	if err := s.validate(ctx, expense); err != nil {
		return err
	}

	if err := s.expenses.Update(ctx, expense); err != nil {
		return err
	}
	s.invalidator.InvalidateBudgetCache(ctx, expense.UserID, existing.CategoryID)
	if existing.CategoryID != expense.CategoryID {
		s.invalidator.InvalidateBudgetCache(ctx, expense.UserID, expense.CategoryID)
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(expense.UserID)).
		Int("expense_id", expense.ID).
		Msg("Expense updated")
	return nil
}

// Delete removes an expense and returns what was removed.
func (s *ExpenseService) Delete(ctx context.Context, userID int64, expenseID int) (*models.Expense, error) {
	existing, err := s.expenses.GetByID(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}
	if err := s.expenses.Delete(ctx, userID, expenseID); err != nil {
		return nil, err
	}
	s.invalidator.InvalidateBudgetCache(ctx, userID, existing.CategoryID)

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Int("expense_id", expenseID).
		Msg("Expense deleted")
	return existing, nil
}

// validate checks amount, date and category ownership. A zero date is set to today.
func (s *ExpenseService) validate(ctx context.Context, expense *models.Expense) error {
	if err := budget.ValidateAmount(expense.Amount); err != nil {
		return err
	}

	today := s.clock.Now()
	if expense.ExpenseDate.IsZero() {
		expense.ExpenseDate = today
	}
	if err := budget.ValidateDate(expense.ExpenseDate, today); err != nil {
		return err
	}
	expense.ExpenseDate = time.Date(expense.ExpenseDate.Year(), expense.ExpenseDate.Month(), expense.ExpenseDate.Day(),
		0, 0, 0, 0, time.UTC)

	_, err := findOwnedCategory(ctx, s.categories, expense.UserID, expense.CategoryID)
	return err
}

func normalizeDescription(desc string) string {
	desc = strings.Join(strings.Fields(strings.ToValidUTF8(desc, "")), " ")
	// Cut on runes so a multibyte character is never split.
	if runes := []rune(desc); len(runes) > MaxDescriptionLength {
		desc = strings.TrimSpace(string(runes[:MaxDescriptionLength]))
	}
	return desc
}
