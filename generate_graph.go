//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/bot"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

func snapshot(name string, limit, spent float64, essential bool) models.SpendSnapshot {
	return models.SpendSnapshot{
		Category: models.BudgetCategory{
			Name:         name,
			MonthlyLimit: decimal.NewFromFloat(limit),
			IsEssential:  essential,
		},
		Month:        "2026-01",
		CurrentSpent: decimal.NewFromFloat(spent),
	}
}

func main() {
	snapshots := []models.SpendSnapshot{
		snapshot("Rent", 1400, 1400, true),
		snapshot("Groceries", 400, 262.40, true),
		snapshot("Transport", 120, 64.50, true),
		snapshot("Dining Out", 150, 131.20, false),
		snapshot("Streaming", 30, 0, false),
	}

	chartData, err := bot.GenerateBudgetChart(snapshots, "January 2026")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example monthly spending chart")
}
