// Package repository provides database access for domain entities.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/budget-health/internal/database"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// CategoryRepository handles budget category database operations.
// Every query is scoped by user so one user can never read another's category.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, user_id, name, monthly_limit, is_essential, created_at, updated_at`

// FindCategory retrieves a category owned by userID.
// Returns models.ErrCategoryNotFound when it does not exist or belongs to someone else.
func (r *CategoryRepository) FindCategory(ctx context.Context, userID int64, categoryID int) (*models.BudgetCategory, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM budget_categories WHERE id = $1 AND user_id = $2
	`, categoryID, userID)
	return scanCategory(row)
}

// FindCategoryByName retrieves a category owned by userID by name (case-insensitive).
func (r *CategoryRepository) FindCategoryByName(ctx context.Context, userID int64, name string) (*models.BudgetCategory, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM budget_categories WHERE user_id = $1 AND LOWER(name) = LOWER($2)
	`, userID, name)
	return scanCategory(row)
}

// ListCategories retrieves all categories owned by userID ordered by name.
func (r *CategoryRepository) ListCategories(ctx context.Context, userID int64) ([]models.BudgetCategory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+categoryColumns+` FROM budget_categories WHERE user_id = $1 ORDER BY name, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.BudgetCategory
	for rows.Next() {
		var cat models.BudgetCategory
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.MonthlyLimit, &cat.IsEssential,
			&cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// Create adds a new category and fills in its generated fields.
func (r *CategoryRepository) Create(ctx context.Context, cat *models.BudgetCategory) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO budget_categories (user_id, name, monthly_limit, is_essential)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, cat.UserID, cat.Name, cat.MonthlyLimit, cat.IsEssential).Scan(&cat.ID, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update modifies the name, limit and essential flag of a category owned by cat.UserID.
func (r *CategoryRepository) Update(ctx context.Context, cat *models.BudgetCategory) error {
	err := r.db.QueryRow(ctx, `
		UPDATE budget_categories SET
			name = $3,
			monthly_limit = $4,
			is_essential = $5,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, cat.ID, cat.UserID, cat.Name, cat.MonthlyLimit, cat.IsEssential).Scan(&cat.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// Delete removes a category owned by userID together with its expenses.
func (r *CategoryRepository) Delete(ctx context.Context, userID int64, categoryID int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM budget_categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*models.BudgetCategory, error) {
	var cat models.BudgetCategory
	err := row.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.MonthlyLimit, &cat.IsEssential,
		&cat.CreatedAt, &cat.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}
