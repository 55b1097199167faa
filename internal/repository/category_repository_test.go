package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/budget-health/internal/database"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

func createTestCategory(
	ctx context.Context,
	t *testing.T,
	repo *CategoryRepository,
	userID int64,
	name string,
	limit string,
	essential bool,
) *models.BudgetCategory {
	t.Helper()
	cat := &models.BudgetCategory{
		UserID:       userID,
		Name:         name,
		MonthlyLimit: decimal.RequireFromString(limit),
		IsEssential:  essential,
	}
	require.NoError(t, repo.Create(ctx, cat))
	return cat
}

func TestCategoryRepository_CRUD(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()
	createTestUser(ctx, t, tx, 2001)
	repo := NewCategoryRepository(tx)

	t.Run("creates and finds category", func(t *testing.T) {
		cat := createTestCategory(ctx, t, repo, 2001, "Groceries", "400.00", true)
		require.NotZero(t, cat.ID)
		require.False(t, cat.CreatedAt.IsZero())

		fetched, err := repo.FindCategory(ctx, 2001, cat.ID)
		require.NoError(t, err)
		require.Equal(t, "Groceries", fetched.Name)
		require.True(t, fetched.IsEssential)
		require.Equal(t, "400.00", fetched.MonthlyLimit.StringFixed(2))
	})

	t.Run("finds category by name case-insensitive", func(t *testing.T) {
		cat := createTestCategory(ctx, t, repo, 2001, "Dining Out", "150", false)

		fetched, err := repo.FindCategoryByName(ctx, 2001, "dining out")
		require.NoError(t, err)
		require.Equal(t, cat.ID, fetched.ID)
	})

	t.Run("updates category", func(t *testing.T) {
		cat := createTestCategory(ctx, t, repo, 2001, "Streaming", "30", false)
		cat.Name = "Subscriptions"
		cat.MonthlyLimit = decimal.NewFromInt(45)
		cat.IsEssential = true

		require.NoError(t, repo.Update(ctx, cat))

		fetched, err := repo.FindCategory(ctx, 2001, cat.ID)
		require.NoError(t, err)
		require.Equal(t, "Subscriptions", fetched.Name)
		require.True(t, fetched.MonthlyLimit.Equal(decimal.NewFromInt(45)))
		require.True(t, fetched.IsEssential)
	})

	t.Run("deletes category", func(t *testing.T) {
		cat := createTestCategory(ctx, t, repo, 2001, "To Delete", "10", false)

		require.NoError(t, repo.Delete(ctx, 2001, cat.ID))

		_, err := repo.FindCategory(ctx, 2001, cat.ID)
		require.ErrorIs(t, err, models.ErrCategoryNotFound)
	})

	t.Run("lists categories ordered by name", func(t *testing.T) {
		cats, err := repo.ListCategories(ctx, 2001)
		require.NoError(t, err)
		require.Len(t, cats, 3)
		require.Equal(t, "Dining Out", cats[0].Name)
		require.Equal(t, "Groceries", cats[1].Name)
		require.Equal(t, "Subscriptions", cats[2].Name)
	})
}

func TestCategoryRepository_Ownership(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()
	createTestUser(ctx, t, tx, 2101)
	createTestUser(ctx, t, tx, 2102)
	repo := NewCategoryRepository(tx)

	cat := createTestCategory(ctx, t, repo, 2101, "Rent", "1200", true)

	t.Run("other user cannot find category", func(t *testing.T) {
		_, err := repo.FindCategory(ctx, 2102, cat.ID)
		require.ErrorIs(t, err, models.ErrCategoryNotFound)
	})

	t.Run("other user cannot update category", func(t *testing.T) {
		stolen := *cat
		stolen.UserID = 2102
		stolen.Name = "Hijacked"
		require.ErrorIs(t, repo.Update(ctx, &stolen), models.ErrCategoryNotFound)
	})

	t.Run("other user cannot delete category", func(t *testing.T) {
		require.ErrorIs(t, repo.Delete(ctx, 2102, cat.ID), models.ErrCategoryNotFound)
	})

	t.Run("other user lists nothing", func(t *testing.T) {
		cats, err := repo.ListCategories(ctx, 2102)
		require.NoError(t, err)
		require.Empty(t, cats)
	})
}

func TestCategoryRepository_NotFound(t *testing.T) {
	t.Parallel()
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewCategoryRepository(tx)

	_, err := repo.FindCategory(ctx, 1, 999999)
	require.ErrorIs(t, err, models.ErrCategoryNotFound)

	_, err = repo.FindCategoryByName(ctx, 1, "nonexistent")
	require.ErrorIs(t, err, models.ErrCategoryNotFound)
}
