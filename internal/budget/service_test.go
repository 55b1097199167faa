package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/budget-health/internal/models"
	"gitlab.com/yelinaung/budget-health/internal/repository/memstore"
	"pgregory.net/rapid"
)

var testNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memstore.Store
	svc   *Service
}

func newFixture(now time.Time) *fixture {
	store := memstore.New()
	return &fixture{
		store: store,
		svc:   NewService(store.Categories(), store.Expenses(), WithClock(FixedClock(now))),
	}
}

func (f *fixture) category(t *testing.T, userID int64, name, limit string, essential bool) models.BudgetCategory {
	t.Helper()
	cat := &models.BudgetCategory{
		UserID:       userID,
		Name:         name,
		MonthlyLimit: decimal.RequireFromString(limit),
		IsEssential:  essential,
	}
	require.NoError(t, f.store.Categories().Create(context.Background(), cat))
	return *cat
}

func (f *fixture) expense(t *testing.T, userID int64, categoryID int, amount string, on time.Time) *models.Expense {
	t.Helper()
	exp := &models.Expense{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      decimal.RequireFromString(amount),
		ExpenseDate: on,
	}
	require.NoError(t, f.store.Expenses().Create(context.Background(), exp))
	return exp
}

func march(day int) time.Time {
	return time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC)
}

func TestService_GetBudgetImpactPreview_Scenarios(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("small expense stays excellent", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)
		f.expense(t, 1, cat.ID, "100", march(3))

		preview, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(50), nil)
		require.NoError(t, err)
		require.Equal(t, "100.00", preview.CurrentSpent.StringFixed(2))
		require.Equal(t, "350.00", preview.RemainingAfterExpense.StringFixed(2))
		require.Equal(t, "30.00", preview.PercentageUsed.StringFixed(2))
		require.Equal(t, models.HealthExcellent, preview.HealthStatus)
		require.Equal(t, models.EncouragementCelebration, preview.EncouragementLevel)
		require.Equal(t, "Great choice! You're staying well within your essential budget!", preview.ImpactMessage)
		require.True(t, preview.IsEssential)
		require.Equal(t, "Groceries", preview.CategoryName)
	})

	t.Run("reaching half the limit is good", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)
		f.expense(t, 1, cat.ID, "100", march(3))

		preview, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(150), nil)
		require.NoError(t, err)
		require.Equal(t, "50.00", preview.PercentageUsed.StringFixed(2))
		require.Equal(t, models.HealthGood, preview.HealthStatus)
		require.Equal(t, models.EncouragementEncouragement, preview.EncouragementLevel)
	})

	t.Run("a cent under half stays excellent though displayed as 50", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)
		f.expense(t, 1, cat.ID, "200", march(3))

		preview, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.RequireFromString("49.99"), nil)
		require.NoError(t, err)
		require.Equal(t, "50.00", preview.PercentageUsed.StringFixed(2))
		require.Equal(t, models.HealthExcellent, preview.HealthStatus)
		require.Equal(t, models.EncouragementCelebration, preview.EncouragementLevel)
	})

	t.Run("going over a nice-to-have limit is concern", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Dining Out", "200", false)
		f.expense(t, 1, cat.ID, "150", march(10))

		preview, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(100), nil)
		require.NoError(t, err)
		require.Equal(t, "-50.00", preview.RemainingAfterExpense.StringFixed(2))
		require.Equal(t, "125.00", preview.PercentageUsed.StringFixed(2))
		require.Equal(t, models.HealthConcern, preview.HealthStatus)
		require.Equal(t, models.EncouragementSupport, preview.EncouragementLevel)
		require.Contains(t, preview.ImpactMessage, "over budget")
	})
}

func TestService_GetBudgetImpactPreview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("only counts the current month through today", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)
		f.expense(t, 1, cat.ID, "40", time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC))
		f.expense(t, 1, cat.ID, "10", march(1))
		f.expense(t, 1, cat.ID, "20", march(15))
		f.expense(t, 1, cat.ID, "80", march(16))

		spent, err := f.svc.GetCurrentSpend(ctx, 1, cat.ID)
		require.NoError(t, err)
		require.Equal(t, "30.00", spent.StringFixed(2))
	})

	t.Run("rejects invalid amounts as validation errors", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)

		for _, amount := range []string{"0", "-1", "1000000", "999999.991"} {
			_, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.RequireFromString(amount), nil)
			require.ErrorIs(t, err, ErrInvalidAmount, amount)
			require.ErrorIs(t, err, ErrValidation, amount)
		}
		require.Zero(t, f.store.SumCalls())
	})

	t.Run("accepts the maximum amount", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Rent", "1000", true)

		preview, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, MaxAmount, nil)
		require.NoError(t, err)
		require.Equal(t, models.HealthConcern, preview.HealthStatus)
	})

	t.Run("unknown category is not found, not a validation error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)

		_, err := f.svc.GetBudgetImpactPreview(ctx, 1, 404, decimal.NewFromInt(5), nil)
		require.ErrorIs(t, err, models.ErrCategoryNotFound)
		require.NotErrorIs(t, err, ErrValidation)
	})

	t.Run("another user's category is not found", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)
		f.expense(t, 1, cat.ID, "100", march(2))

		_, err := f.svc.GetBudgetImpactPreview(ctx, 2, cat.ID, decimal.NewFromInt(5), nil)
		require.ErrorIs(t, err, models.ErrCategoryNotFound)
	})

	t.Run("as-of date selects the previous month", func(t *testing.T) {
		t.Parallel()
		f := newFixture(time.Date(2025, time.April, 5, 9, 0, 0, 0, time.UTC))
		cat := f.category(t, 1, "Groceries", "500", true)
		f.expense(t, 1, cat.ID, "300", march(20))
		f.expense(t, 1, cat.ID, "10", time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC))

		asOf := march(25)
		preview, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(10), &asOf)
		require.NoError(t, err)
		require.Equal(t, "300.00", preview.CurrentSpent.StringFixed(2))

		current, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(10), nil)
		require.NoError(t, err)
		require.Equal(t, "10.00", current.CurrentSpent.StringFixed(2))
	})

	t.Run("rejects as-of dates outside the last 30 days", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)

		for _, asOf := range []time.Time{march(16), time.Date(2025, time.February, 12, 0, 0, 0, 0, time.UTC)} {
			_, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(5), &asOf)
			require.ErrorIs(t, err, ErrInvalidDate)
			require.ErrorIs(t, err, ErrValidation)
		}

		edge := time.Date(2025, time.February, 13, 0, 0, 0, 0, time.UTC)
		_, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(5), &edge)
		require.NoError(t, err)
	})

	t.Run("essential and nice-to-have share status but not message", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		essential := f.category(t, 1, "Utilities", "300", true)
		nice := f.category(t, 1, "Games", "300", false)
		f.expense(t, 1, essential.ID, "120", march(4))
		f.expense(t, 1, nice.ID, "120", march(4))

		a, err := f.svc.GetBudgetImpactPreview(ctx, 1, essential.ID, decimal.NewFromInt(60), nil)
		require.NoError(t, err)
		b, err := f.svc.GetBudgetImpactPreview(ctx, 1, nice.ID, decimal.NewFromInt(60), nil)
		require.NoError(t, err)

		require.Equal(t, a.HealthStatus, b.HealthStatus)
		require.NotEqual(t, a.ImpactMessage, b.ImpactMessage)
	})
}

func TestService_Cache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("repeated previews read spend once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)
		f.expense(t, 1, cat.ID, "100", march(3))

		first, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(25), nil)
		require.NoError(t, err)
		second, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(25), nil)
		require.NoError(t, err)

		require.Equal(t, *first, *second)
		require.Equal(t, 1, f.store.SumCalls())
	})

	t.Run("invalidation forces a recompute", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)
		f.expense(t, 1, cat.ID, "100", march(3))

		_, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(25), nil)
		require.NoError(t, err)

		f.expense(t, 1, cat.ID, "200", march(4))
		stale, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(25), nil)
		require.NoError(t, err)
		require.Equal(t, "100.00", stale.CurrentSpent.StringFixed(2))

		f.svc.InvalidateBudgetCache(ctx, 1, cat.ID)

		fresh, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(25), nil)
		require.NoError(t, err)
		require.Equal(t, "300.00", fresh.CurrentSpent.StringFixed(2))
		require.Equal(t, 2, f.store.SumCalls())
	})

	t.Run("invalidating one category keeps the others", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		a := f.category(t, 1, "A", "100", true)
		b := f.category(t, 1, "B", "100", false)

		for _, id := range []int{a.ID, b.ID} {
			_, err := f.svc.GetBudgetImpactPreview(ctx, 1, id, decimal.NewFromInt(1), nil)
			require.NoError(t, err)
		}
		f.svc.InvalidateBudgetCache(ctx, 1, a.ID)

		_, err := f.svc.GetBudgetImpactPreview(ctx, 1, b.ID, decimal.NewFromInt(1), nil)
		require.NoError(t, err)
		require.Equal(t, 2, f.store.SumCalls())
	})

	t.Run("failed reads are not cached", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		cat := f.category(t, 1, "Groceries", "500", true)
		boom := errors.New("connection reset")

		f.store.FailSums(boom)
		_, err := f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(5), nil)
		require.ErrorIs(t, err, boom)

		f.store.FailSums(nil)
		_, err = f.svc.GetBudgetImpactPreview(ctx, 1, cat.ID, decimal.NewFromInt(5), nil)
		require.NoError(t, err)
		require.Equal(t, 2, f.store.SumCalls())
	})

	t.Run("shared cache serves two services", func(t *testing.T) {
		t.Parallel()
		store := memstore.New()
		shared := NewSnapshotCache()
		cat := &models.BudgetCategory{UserID: 1, Name: "Rent", MonthlyLimit: decimal.NewFromInt(1000), IsEssential: true}
		require.NoError(t, store.Categories().Create(ctx, cat))

		a := NewService(store.Categories(), store.Expenses(), WithClock(FixedClock(testNow)), WithCache(shared))
		b := NewService(store.Categories(), store.Expenses(), WithClock(FixedClock(testNow)), WithCache(shared))

		_, err := a.GetCurrentSpend(ctx, 1, cat.ID)
		require.NoError(t, err)
		_, err = b.GetCurrentSpend(ctx, 1, cat.ID)
		require.NoError(t, err)
		require.Equal(t, 1, store.SumCalls())
		require.Equal(t, 1, shared.Len())
	})
}

func TestService_PreviewIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.Int64Range(1, 1_000_000).Draw(t, "limitCents")
		spent := rapid.Int64Range(0, 2_000_000).Draw(t, "spentCents")
		amount := rapid.Int64Range(1, 99_999_999).Draw(t, "amountCents")
		essential := rapid.Bool().Draw(t, "essential")

		store := memstore.New()
		svc := NewService(store.Categories(), store.Expenses(), WithClock(FixedClock(testNow)))
		ctx := context.Background()
		cat := &models.BudgetCategory{UserID: 7, Name: "Cat", MonthlyLimit: decimal.New(limit, -2), IsEssential: essential}
		if err := store.Categories().Create(ctx, cat); err != nil {
			t.Fatal(err)
		}
		if spent > 0 {
			if err := store.Expenses().Create(ctx, &models.Expense{
				UserID: 7, CategoryID: cat.ID, Amount: decimal.New(spent, -2), ExpenseDate: march(1),
			}); err != nil {
				t.Fatal(err)
			}
		}

		first, err := svc.GetBudgetImpactPreview(ctx, 7, cat.ID, decimal.New(amount, -2), nil)
		if err != nil {
			t.Fatal(err)
		}
		second, err := svc.GetBudgetImpactPreview(ctx, 7, cat.ID, decimal.New(amount, -2), nil)
		if err != nil {
			t.Fatal(err)
		}

		if first.ImpactMessage != second.ImpactMessage ||
			first.HealthStatus != second.HealthStatus ||
			!first.PercentageUsed.Equal(second.PercentageUsed) ||
			!first.RemainingAfterExpense.Equal(second.RemainingAfterExpense) {
			t.Fatalf("previews differ: %+v vs %+v", first, second)
		}

		projected := decimal.New(spent+amount, -2)
		if projected.GreaterThan(cat.MonthlyLimit) && first.HealthStatus != models.HealthConcern {
			t.Fatalf("over-limit preview classified as %s", first.HealthStatus)
		}
		if !first.RemainingAfterExpense.Equal(cat.MonthlyLimit.Sub(projected)) {
			t.Fatalf("remaining %s, want %s", first.RemainingAfterExpense, cat.MonthlyLimit.Sub(projected))
		}
	})
}

func TestService_GetOverallBudgetHealth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("three categories", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		rent := f.category(t, 1, "Rent", "500", true)
		food := f.category(t, 1, "Groceries", "250", true)
		fun := f.category(t, 1, "Fun", "100", false)
		f.expense(t, 1, rent.ID, "200", march(1))
		f.expense(t, 1, food.ID, "100", march(5))
		f.expense(t, 1, fun.ID, "70", march(9))

		overall, err := f.svc.GetOverallBudgetHealth(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "850.00", overall.TotalBudgeted.StringFixed(2))
		require.Equal(t, "370.00", overall.TotalSpent.StringFixed(2))
		require.Equal(t, "480.00", overall.TotalRemaining.StringFixed(2))
		require.Equal(t, "43.53", overall.PercentageUsed.StringFixed(2))
		require.Equal(t, models.HealthExcellent, overall.OverallStatus)
		require.Equal(t, models.HealthExcellent, overall.EssentialCategoriesHealth)
		require.Equal(t, models.HealthGood, overall.NonEssentialCategoriesHealth)
		require.Equal(t, 3, overall.CategoryCount)

		health, encouragement := OverallMessages(models.HealthExcellent)
		require.Equal(t, health, overall.HealthMessage)
		require.Equal(t, encouragement, overall.EncouragementMessage)
	})

	t.Run("no categories", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)

		overall, err := f.svc.GetOverallBudgetHealth(ctx, 1)
		require.NoError(t, err)
		require.Zero(t, overall.CategoryCount)
		require.True(t, overall.TotalBudgeted.IsZero())
		require.True(t, overall.PercentageUsed.IsZero())
		require.Equal(t, models.HealthExcellent, overall.OverallStatus)
		require.Equal(t, models.HealthExcellent, overall.EssentialCategoriesHealth)
		require.Equal(t, models.HealthExcellent, overall.NonEssentialCategoriesHealth)
	})

	t.Run("only counts the user's own categories", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		mine := f.category(t, 1, "Mine", "100", true)
		theirs := f.category(t, 2, "Theirs", "100", true)
		f.expense(t, 1, mine.ID, "10", march(2))
		f.expense(t, 2, theirs.ID, "95", march(2))

		overall, err := f.svc.GetOverallBudgetHealth(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, 1, overall.CategoryCount)
		require.Equal(t, "10.00", overall.TotalSpent.StringFixed(2))
	})

	t.Run("surfaces read failures", func(t *testing.T) {
		t.Parallel()
		f := newFixture(testNow)
		f.category(t, 1, "Rent", "500", true)
		boom := errors.New("timeout")
		f.store.FailSums(boom)

		_, err := f.svc.GetOverallBudgetHealth(ctx, 1)
		require.ErrorIs(t, err, boom)
	})
}

func TestService_GetMonthlyProgressData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(time.Date(2025, time.April, 10, 18, 0, 0, 0, time.UTC))
	groceries := f.category(t, 1, "Groceries", "300", true)
	fun := f.category(t, 1, "Fun", "100", false)
	f.expense(t, 1, groceries.ID, "50", time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC))
	f.expense(t, 1, fun.ID, "40", time.Date(2025, time.April, 8, 0, 0, 0, 0, time.UTC))

	progress, err := f.svc.GetMonthlyProgressData(ctx, 1)
	require.NoError(t, err)
	require.Len(t, progress, 2)

	byName := map[string]models.MonthlyProgressData{}
	for _, p := range progress {
		byName[p.CategoryName] = p
	}

	g := byName["Groceries"]
	require.Equal(t, 21, g.DaysRemainingInMonth)
	require.Equal(t, "150.00", g.ProjectedSpending.StringFixed(2))
	require.False(t, g.OnPaceToOverspend)
	require.Equal(t, "16.67", g.PercentageUsed.StringFixed(2))
	require.Equal(t, models.HealthExcellent, g.HealthStatus)
	require.True(t, g.IsEssential)

	fn := byName["Fun"]
	require.Equal(t, "120.00", fn.ProjectedSpending.StringFixed(2))
	require.True(t, fn.OnPaceToOverspend)
	require.Equal(t, models.HealthExcellent, fn.HealthStatus)
}

func TestService_CalculateCategoryHealthStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(testNow)
	ctx := context.Background()

	require.Equal(t, models.HealthAttention,
		f.svc.CalculateCategoryHealthStatus(ctx, 1, 1, decimal.NewFromInt(80), decimal.NewFromInt(100)))
	require.Equal(t, models.HealthExcellent,
		f.svc.CalculateCategoryHealthStatus(ctx, 1, 1, decimal.NewFromInt(80), decimal.Zero))
}
