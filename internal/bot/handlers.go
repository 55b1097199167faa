package bot

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/budget"
	"gitlab.com/yelinaung/budget-health/internal/ledger"
	"gitlab.com/yelinaung/budget-health/internal/logger"
	appmodels "gitlab.com/yelinaung/budget-health/internal/models"
)

const (
	addUsage         = "❌ Invalid format.\n\nUsage: <code>/add &lt;amount&gt; &lt;category&gt; [YYYY-MM-DD]</code>\nExample: <code>/add 12.50 Groceries</code>"
	previewUsage     = "❌ Invalid format.\n\nUsage: <code>/preview &lt;amount&gt; &lt;category&gt; [YYYY-MM-DD]</code>\nExample: <code>/preview 80 Dining Out</code>"
	addCategoryUsage = "❌ Invalid format.\n\nUsage: <code>/addcategory &lt;limit&gt; &lt;name&gt; [essential|nice]</code>\nExample: <code>/addcategory 400 Groceries essential</code>"
	deleteUsage      = "❌ Invalid format.\n\nUsage: <code>/delete &lt;expense id&gt;</code>"
)

const helpText = `📚 <b>Available Commands</b>

<b>Categories:</b>
• <code>/categories</code> - List your budget categories
• <code>/addcategory &lt;limit&gt; &lt;name&gt; [essential|nice]</code> - Create a category

<b>Expenses:</b>
• <code>/add &lt;amount&gt; &lt;category&gt; [YYYY-MM-DD]</code> - Record an expense
• <code>/delete &lt;id&gt;</code> - Delete an expense

<b>Budget health:</b>
• <code>/preview &lt;amount&gt; &lt;category&gt;</code> - See what a purchase would do before buying
• <code>/health</code> - Overall budget health this month
• <code>/progress</code> - Month-to-date progress per category
• <code>/chart</code> - Pie chart of this month's spending
• <code>/export</code> - CSV of this month's expenses

Dates may be up to 30 days in the past.`

// reply sends an HTML message and logs delivery failures.
func reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashUserID(chatID)).Msg("Failed to send message")
	}
}

// sender returns the chat and user of a command message, or ok=false for updates to ignore.
func sender(update *models.Update) (chatID, userID int64, ok bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, 0, false
	}
	return update.Message.Chat.ID, update.Message.From.ID, true
}

func (b *Bot) location() *time.Location {
	return b.deps.Budget.Now().Location()
}

func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, _, ok := sender(update)
	if !ok {
		return
	}

	text := fmt.Sprintf(`👋 Welcome%s!

I help you see how each purchase affects your monthly budget <b>before</b> you make it.

<b>Quick Start:</b>
1. Create a category: <code>/addcategory 400 Groceries essential</code>
2. Check a purchase: <code>/preview 45 Groceries</code>
3. Record it: <code>/add 45 Groceries</code>

Use /help to see all available commands.`,
		formatGreeting(update.Message.From.FirstName))

	reply(ctx, tg, chatID, text)
}

func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, _, ok := sender(update)
	if !ok {
		return
	}
	reply(ctx, tg, chatID, helpText)
}

func (b *Bot) handleCategoriesCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := sender(update)
	if !ok {
		return
	}

	categories, err := b.deps.Categories.ListCategories(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to list categories")
		reply(ctx, tg, chatID, "❌ Failed to fetch categories. Please try again.")
		return
	}

	if len(categories) == 0 {
		reply(ctx, tg, chatID, "You have no budget categories yet.\n\nCreate one with <code>/addcategory 400 Groceries essential</code>")
		return
	}

	var sb strings.Builder
	sb.WriteString("📁 <b>Your Budget Categories</b>\n\n")
	for _, cat := range categories {
		fmt.Fprintf(&sb, "• <b>%s</b> · %s/month · %s\n",
			escapeHTML(cat.Name), budget.FormatAmount(cat.MonthlyLimit), kindLabel(cat.IsEssential))
	}

	reply(ctx, tg, chatID, sb.String())
}

func (b *Bot) handleAddCategoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := sender(update)
	if !ok {
		return
	}

	parsed, err := ParseAddCategory(extractCommandArgs(update.Message.Text, "/addcategory"))
	if err != nil {
		reply(ctx, tg, chatID, addCategoryUsage)
		return
	}

	cat, err := b.deps.Catalog.Create(ctx, userID, parsed.Name, parsed.Limit, parsed.Essential)
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to create category")
		reply(ctx, tg, chatID, userFacingError(err, "❌ Failed to create category. Please try again."))
		return
	}

	text := fmt.Sprintf("✅ Category <b>%s</b> created\n\nMonthly limit: %s\nType: %s",
		escapeHTML(cat.Name), budget.FormatAmount(cat.MonthlyLimit), kindLabel(cat.IsEssential))
	if parsed.Essential == nil {
		text += "\n\n<i>Type was guessed from the name. Add <code>essential</code> or <code>nice</code> to choose it yourself.</i>"
	}
	reply(ctx, tg, chatID, text)
}

// resolveCategory looks up the named category and replies when it cannot be used.
func (b *Bot) resolveCategory(
	ctx context.Context,
	tg TelegramAPI,
	chatID, userID int64,
	name string,
) (*appmodels.BudgetCategory, bool) {
	cat, err := b.deps.Categories.FindCategoryByName(ctx, userID, name)
	if err != nil {
		if !isNotFound(err) {
			logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to find category")
		}
		reply(ctx, tg, chatID, userFacingError(err, "❌ Failed to find category. Please try again."))
		return nil, false
	}
	return cat, true
}

func (b *Bot) handleAddCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := sender(update)
	if !ok {
		return
	}

	entry, err := ParseEntry(extractCommandArgs(update.Message.Text, "/add"), b.location())
	if err != nil {
		reply(ctx, tg, chatID, addUsage)
		return
	}

	cat, ok := b.resolveCategory(ctx, tg, chatID, userID, entry.CategoryName)
	if !ok {
		return
	}

	req := ledger.RecordRequest{
		UserID:     userID,
		CategoryID: cat.ID,
		Amount:     entry.Amount,
	}
	if entry.Date != nil {
		req.Date = *entry.Date
	}

	expense, err := b.deps.Ledger.Record(ctx, req)
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to record expense")
		reply(ctx, tg, chatID, userFacingError(err, "❌ Failed to save expense. Please try again."))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ <b>Expense #%d added</b>\n\n%s in <b>%s</b> on %s",
		expense.ID, budget.FormatAmount(expense.Amount), escapeHTML(cat.Name), expense.ExpenseDate.Format(dateLayout))

	spent, err := b.deps.Budget.GetCurrentSpend(ctx, userID, cat.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to load spend after recording")
		reply(ctx, tg, chatID, sb.String())
		return
	}

	status := b.deps.Budget.CalculateCategoryHealthStatus(ctx, userID, cat.ID, spent, cat.MonthlyLimit)
	remaining := cat.MonthlyLimit.Sub(spent)
	fmt.Fprintf(&sb, "\n\n%s This month: %s of %s", statusLabel(status),
		budget.FormatAmount(spent), budget.FormatAmount(cat.MonthlyLimit))
	if remaining.IsNegative() {
		fmt.Fprintf(&sb, "\n⚠️ Over budget by %s", budget.FormatAmount(remaining.Neg()))
	} else {
		fmt.Fprintf(&sb, " (%s left)", budget.FormatAmount(remaining))
	}

	reply(ctx, tg, chatID, sb.String())
}

func (b *Bot) handleDeleteCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := sender(update)
	if !ok {
		return
	}

	id, err := ParseID(extractCommandArgs(update.Message.Text, "/delete"))
	if err != nil {
		reply(ctx, tg, chatID, deleteUsage)
		return
	}

	expense, err := b.deps.Ledger.Delete(ctx, userID, id)
	if err != nil {
		if !isNotFound(err) {
			logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to delete expense")
		}
		reply(ctx, tg, chatID, userFacingError(err, "❌ Failed to delete expense. Please try again."))
		return
	}

	reply(ctx, tg, chatID, fmt.Sprintf("🗑 Expense #%d deleted (%s on %s).",
		expense.ID, budget.FormatAmount(expense.Amount), expense.ExpenseDate.Format(dateLayout)))
}

func (b *Bot) handlePreviewCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := sender(update)
	if !ok {
		return
	}

	entry, err := ParseEntry(extractCommandArgs(update.Message.Text, "/preview"), b.location())
	if err != nil {
		reply(ctx, tg, chatID, previewUsage)
		return
	}

	cat, ok := b.resolveCategory(ctx, tg, chatID, userID, entry.CategoryName)
	if !ok {
		return
	}

	preview, err := b.deps.Budget.GetBudgetImpactPreview(ctx, userID, cat.ID, entry.Amount, entry.Date)
	if err != nil {
		if !isValidation(err) && !isNotFound(err) {
			logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to preview expense")
		}
		reply(ctx, tg, chatID, userFacingError(err, "❌ Failed to calculate preview. Please try again."))
		return
	}

	reply(ctx, tg, chatID, formatPreview(preview))
}

func formatPreview(p *appmodels.BudgetImpactPreview) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔮 <b>Preview: %s</b> (%s)\n\n", escapeHTML(p.CategoryName), kindLabel(p.IsEssential))
	fmt.Fprintf(&sb, "Spent so far: %s of %s\n", budget.FormatAmount(p.CurrentSpent), budget.FormatAmount(p.MonthlyLimit))
	if p.RemainingAfterExpense.IsNegative() {
		fmt.Fprintf(&sb, "After %s: over by %s (%s%% used)\n",
			budget.FormatAmount(p.HypotheticalAmount), budget.FormatAmount(p.RemainingAfterExpense.Neg()), p.PercentageUsed.StringFixed(2))
	} else {
		fmt.Fprintf(&sb, "After %s: %s left (%s%% used)\n",
			budget.FormatAmount(p.HypotheticalAmount), budget.FormatAmount(p.RemainingAfterExpense), p.PercentageUsed.StringFixed(2))
	}
	fmt.Fprintf(&sb, "Status: %s\n\n%s\n\n<i>Nothing was recorded.</i>", statusLabel(p.HealthStatus), escapeHTML(p.ImpactMessage))
	return sb.String()
}

func (b *Bot) handleHealthCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := sender(update)
	if !ok {
		return
	}

	health, err := b.deps.Budget.GetOverallBudgetHealth(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to compute overall health")
		reply(ctx, tg, chatID, "❌ Failed to calculate budget health. Please try again.")
		return
	}

	if health.CategoryCount == 0 {
		reply(ctx, tg, chatID, "You have no budget categories yet.\n\nCreate one with <code>/addcategory 400 Groceries essential</code>")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Budget Health · %s</b>\n\n", b.deps.Budget.Now().Format("January 2006"))
	fmt.Fprintf(&sb, "Overall: %s\n", statusLabel(health.OverallStatus))
	fmt.Fprintf(&sb, "Spent %s of %s (%s%% used)\n", budget.FormatAmount(health.TotalSpent),
		budget.FormatAmount(health.TotalBudgeted), health.PercentageUsed.StringFixed(2))
	if health.TotalRemaining.IsNegative() {
		fmt.Fprintf(&sb, "Over budget by %s\n", budget.FormatAmount(health.TotalRemaining.Neg()))
	} else {
		fmt.Fprintf(&sb, "Remaining: %s\n", budget.FormatAmount(health.TotalRemaining))
	}
	fmt.Fprintf(&sb, "\nEssentials: %s\nNice-to-haves: %s\n", statusLabel(health.EssentialCategoriesHealth),
		statusLabel(health.NonEssentialCategoriesHealth))
	fmt.Fprintf(&sb, "\n%s\n%s", health.HealthMessage, health.EncouragementMessage)

	reply(ctx, tg, chatID, sb.String())
}

func (b *Bot) handleProgressCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := sender(update)
	if !ok {
		return
	}

	progress, err := b.deps.Budget.GetMonthlyProgressData(ctx, userID)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to compute monthly progress")
		reply(ctx, tg, chatID, "❌ Failed to calculate progress. Please try again.")
		return
	}

	if len(progress) == 0 {
		reply(ctx, tg, chatID, "You have no budget categories yet.\n\nCreate one with <code>/addcategory 400 Groceries essential</code>")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 <b>Monthly Progress</b> · %d days left\n", progress[0].DaysRemainingInMonth)
	for _, p := range progress {
		fmt.Fprintf(&sb, "\n%s <b>%s</b> (%s)\n", p.HealthStatus.Emoji(), escapeHTML(p.CategoryName), kindLabel(p.IsEssential))
		fmt.Fprintf(&sb, "%s of %s (%s%%), projected %s\n", budget.FormatAmount(p.CurrentSpent),
			budget.FormatAmount(p.MonthlyLimit), p.PercentageUsed.StringFixed(2), budget.FormatAmount(p.ProjectedSpending))
		if p.OnPaceToOverspend {
			sb.WriteString("⚠️ On pace to overspend\n")
		}
	}

	reply(ctx, tg, chatID, sb.String())
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

func kindLabel(essential bool) string {
	if essential {
		return "essential"
	}
	return "nice-to-have"
}

func statusLabel(s appmodels.HealthStatus) string {
	return s.Emoji() + " " + upperFirst(s.String())
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// escapeHTML escapes text for Telegram's HTML parse mode.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func sumAmounts(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
