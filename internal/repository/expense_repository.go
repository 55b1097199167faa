package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/database"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

const expenseColumns = `id, user_id, category_id, amount, description, expense_date, created_at, updated_at`

// Create adds a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (user_id, category_id, amount, description, expense_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, expense.UserID, expense.CategoryID, expense.Amount, expense.Description, expense.ExpenseDate,
	).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense owned by userID.
func (r *ExpenseRepository) GetByID(ctx context.Context, userID int64, id int) (*models.Expense, error) {
	var exp models.Expense
	err := r.db.QueryRow(ctx, `
		SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&exp.ID, &exp.UserID, &exp.CategoryID, &exp.Amount, &exp.Description,
		&exp.ExpenseDate, &exp.CreatedAt, &exp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &exp, nil
}

// Update modifies an existing expense owned by expense.UserID.
func (r *ExpenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE expenses SET
			category_id = $3,
			amount = $4,
			description = $5,
			expense_date = $6,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, expense.ID, expense.UserID, expense.CategoryID, expense.Amount, expense.Description, expense.ExpenseDate)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrExpenseNotFound
	}
	return nil
}

// Delete removes an expense owned by userID.
func (r *ExpenseRepository) Delete(ctx context.Context, userID int64, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrExpenseNotFound
	}
	return nil
}

// SumExpenses totals the expenses of a user's category whose date falls in the inclusive range.
func (r *ExpenseRepository) SumExpenses(
	ctx context.Context,
	userID int64,
	categoryID int,
	dateRange models.DateRange,
) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE user_id = $1 AND category_id = $2 AND expense_date >= $3::date AND expense_date <= $4::date
	`, userID, categoryID, dateRange.From, dateRange.To).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return total, nil
}

// ListByCategoryAndDateRange retrieves a user's expenses in one category, newest first.
func (r *ExpenseRepository) ListByCategoryAndDateRange(
	ctx context.Context,
	userID int64,
	categoryID int,
	dateRange models.DateRange,
) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE user_id = $1 AND category_id = $2 AND expense_date >= $3::date AND expense_date <= $4::date
		ORDER BY expense_date DESC, id DESC
	`, userID, categoryID, dateRange.From, dateRange.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses by category: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var exp models.Expense
		if err := rows.Scan(&exp.ID, &exp.UserID, &exp.CategoryID, &exp.Amount, &exp.Description,
			&exp.ExpenseDate, &exp.CreatedAt, &exp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}
