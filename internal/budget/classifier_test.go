package budget

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/budget-health/internal/models"
	"pgregory.net/rapid"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		spent string
		limit string
		want  models.HealthStatus
	}{
		{"nothing spent", "0", "500", models.HealthExcellent},
		{"just under half", "249.99", "500", models.HealthExcellent},
		{"exactly half", "250", "500", models.HealthGood},
		{"just under three quarters", "374.99", "500", models.HealthGood},
		{"exactly three quarters", "375", "500", models.HealthAttention},
		{"just under ninety percent", "449.99", "500", models.HealthAttention},
		{"exactly ninety percent", "450", "500", models.HealthConcern},
		{"fully spent", "500", "500", models.HealthConcern},
		{"over budget", "750", "500", models.HealthConcern},
		{"fraction of a cent under half", "49.996", "100", models.HealthExcellent},
		{"fraction of a cent under ninety percent", "89.995", "100", models.HealthAttention},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(decimal.RequireFromString(tt.spent), decimal.RequireFromString(tt.limit))
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("zero limit falls back to excellent", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, models.HealthExcellent, Classify(decimal.NewFromInt(10), decimal.Zero))
	})

	t.Run("negative limit falls back to excellent", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, models.HealthExcellent, Classify(decimal.NewFromInt(10), decimal.NewFromInt(-5)))
	})
}

func TestPercentage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "30.00", Percentage(decimal.NewFromInt(150), decimal.NewFromInt(500)).StringFixed(2))
	require.Equal(t, "125.00", Percentage(decimal.NewFromInt(250), decimal.NewFromInt(200)).StringFixed(2))
	require.Equal(t, "43.53", Percentage(decimal.NewFromInt(370), decimal.NewFromInt(850)).StringFixed(2))
	require.True(t, Percentage(decimal.NewFromInt(1), decimal.Zero).IsZero())
}

func TestClassify_Monotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limitCents := rapid.Int64Range(1, 100_000_000).Draw(t, "limit")
		aCents := rapid.Int64Range(0, 200_000_000).Draw(t, "a")
		bCents := rapid.Int64Range(0, 200_000_000).Draw(t, "b")
		if aCents > bCents {
			aCents, bCents = bCents, aCents
		}

		limit := decimal.New(limitCents, -2)
		lower := Classify(decimal.New(aCents, -2), limit)
		higher := Classify(decimal.New(bCents, -2), limit)
		if lower > higher {
			t.Fatalf("classification not monotonic: %s at %d cents, %s at %d cents (limit %d)",
				lower, aCents, higher, bCents, limitCents)
		}
	})
}

func TestClassify_OverLimitIsConcern(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limitCents := rapid.Int64Range(1, 100_000_000).Draw(t, "limit")
		overCents := rapid.Int64Range(1, 100_000_000).Draw(t, "over")

		got := Classify(decimal.New(limitCents+overCents, -2), decimal.New(limitCents, -2))
		if got != models.HealthConcern {
			t.Fatalf("spend above limit classified as %s", got)
		}
	})
}

func TestHealthStatus_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "excellent", models.HealthExcellent.String())
	require.Equal(t, "good", models.HealthGood.String())
	require.Equal(t, "attention", models.HealthAttention.String())
	require.Equal(t, "concern", models.HealthConcern.String())
	require.Equal(t, "unknown", models.HealthStatus(42).String())
	require.Less(t, models.HealthExcellent, models.HealthConcern)
}
