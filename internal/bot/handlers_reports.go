package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/budget"
	"gitlab.com/yelinaung/budget-health/internal/logger"
	appmodels "gitlab.com/yelinaung/budget-health/internal/models"
)

// handleChartCore sends a pie chart of the current month's spend per category.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := sender(update)
	if !ok {
		return
	}

	snapshots, err := b.deps.Budget.CurrentSnapshots(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to load snapshots for chart")
		reply(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	now := b.deps.Budget.Now()
	monthLabel := now.Format("January 2006")

	chartData, err := GenerateBudgetChart(snapshots, monthLabel)
	if errors.Is(err, ErrNothingToChart) {
		reply(ctx, tg, chatID, fmt.Sprintf("📊 No spending recorded for %s yet.", monthLabel))
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate chart")
		reply(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	spent := make([]decimal.Decimal, 0, len(snapshots))
	limits := make([]decimal.Decimal, 0, len(snapshots))
	for _, s := range snapshots {
		spent = append(spent, s.CurrentSpent)
		limits = append(limits, s.Category.MonthlyLimit)
	}

	caption := fmt.Sprintf("📊 <b>Spending · %s</b>\n\nTotal: %s of %s budgeted",
		monthLabel, budget.FormatAmount(sumAmounts(spent)), budget.FormatAmount(sumAmounts(limits)))

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: chartFilename(now.Format(appmodels.MonthKeyLayout)), Data: bytes.NewReader(chartData)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart document")
		reply(ctx, tg, chatID, "❌ Failed to send chart. Please try again.")
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Int("categories", len(snapshots)).
		Msg("Chart generated successfully")
}

// handleExportCore sends the current month's expenses as CSV.
func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := sender(update)
	if !ok {
		return
	}

	now := b.deps.Budget.Now()
	rows, err := b.monthExpenses(ctx, userID, now)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to load expenses for export")
		reply(ctx, tg, chatID, "❌ Failed to export expenses. Please try again.")
		return
	}

	if len(rows) == 0 {
		reply(ctx, tg, chatID, fmt.Sprintf("📄 No expenses recorded for %s yet.", now.Format("January 2006")))
		return
	}

	data, err := GenerateExpensesCSV(rows)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate CSV")
		reply(ctx, tg, chatID, "❌ Failed to export expenses. Please try again.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: exportFilename(now.Format(appmodels.MonthKeyLayout)), Data: bytes.NewReader(data)},
		Caption:   fmt.Sprintf("📄 %d expenses for %s", len(rows), now.Format("January 2006")),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send export document")
		reply(ctx, tg, chatID, "❌ Failed to send export. Please try again.")
	}
}

// monthExpenses lists every expense of the user from the first of now's month through today,
// oldest first.
func (b *Bot) monthExpenses(ctx context.Context, userID int64, now time.Time) ([]ExportRow, error) {
	categories, err := b.deps.Categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	window := appmodels.DateRange{
		From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		To:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}

	var rows []ExportRow
	for _, cat := range categories {
		expenses, err := b.deps.Expenses.ListByCategoryAndDateRange(ctx, userID, cat.ID, window)
		if err != nil {
			return nil, fmt.Errorf("failed to list expenses: %w", err)
		}
		for _, e := range expenses {
			rows = append(rows, ExportRow{Expense: e, Category: cat})
		}
	}

	slices.SortFunc(rows, func(a, b ExportRow) int {
		if c := a.Expense.ExpenseDate.Compare(b.Expense.ExpenseDate); c != 0 {
			return c
		}
		return a.Expense.ID - b.Expense.ID
	})
	return rows, nil
}
