// Package models defines the domain entities for the budget tracker.
package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MaxCategoryNameLength is the maximum allowed length for category names.
const MaxCategoryNameLength = 50

// MonthKeyLayout formats a calendar month as used in cache keys and snapshots.
const MonthKeyLayout = "2006-01"

var (
	// ErrCategoryNotFound is returned when a category does not exist or belongs to another user.
	ErrCategoryNotFound = errors.New("budget category not found")
	// ErrExpenseNotFound is returned when an expense does not exist or belongs to another user.
	ErrExpenseNotFound = errors.New("expense not found")
)

// User represents a Telegram user who owns budget categories.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BudgetCategory is a user-owned spending category with a monthly limit.
type BudgetCategory struct {
	ID           int
	UserID       int64
	Name         string
	MonthlyLimit decimal.Decimal
	IsEssential  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expense represents a single committed expense entry.
type Expense struct {
	ID          int
	UserID      int64
	CategoryID  int
	Amount      decimal.Decimal
	Description string
	ExpenseDate time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether the calendar date of t falls inside the range.
// Only year, month and day are compared, each in the value's own location.
func (r DateRange) Contains(t time.Time) bool {
	d := dayNumber(t)
	return d >= dayNumber(r.From) && d <= dayNumber(r.To)
}

func dayNumber(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// SpendSnapshot is the committed spend of one category within one calendar month.
type SpendSnapshot struct {
	Category     BudgetCategory
	Month        string
	Window       DateRange
	CurrentSpent decimal.Decimal
}
