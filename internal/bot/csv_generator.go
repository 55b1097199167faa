package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"gitlab.com/yelinaung/budget-health/internal/models"
)

// ExportRow is one expense with the category it was booked against.
type ExportRow struct {
	Expense  models.Expense
	Category models.BudgetCategory
}

// GenerateExpensesCSV generates a CSV file from a list of expenses.
func GenerateExpensesCSV(rows []ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "Date", "Category", "Type", "Amount", "Description"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range rows {
		row := []string{
			strconv.Itoa(rows[i].Expense.ID),
			rows[i].Expense.ExpenseDate.Format(dateLayout),
			rows[i].Category.Name,
			kindLabel(rows[i].Category.IsEssential),
			rows[i].Expense.Amount.StringFixed(2),
			rows[i].Expense.Description,
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// exportFilename creates filename like "expenses_2026-03.csv".
func exportFilename(month string) string {
	return fmt.Sprintf("expenses_%s.csv", month)
}
