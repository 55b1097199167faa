// Package memstore is an in-memory implementation of the repositories, used by tests
// and local runs that have no Postgres available.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// Store holds users, categories and expenses behind a single lock.
type Store struct {
	mu         sync.Mutex
	users      map[int64]models.User
	categories map[int]models.BudgetCategory
	expenses   map[int]models.Expense
	nextCatID  int
	nextExpID  int
	sumCalls   int
	sumErr     error
	now        func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:      make(map[int64]models.User),
		categories: make(map[int]models.BudgetCategory),
		expenses:   make(map[int]models.Expense),
		nextCatID:  1,
		nextExpID:  1,
		now:        time.Now,
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *Users { return &Users{s: s} }

// Categories returns the category repository view of the store.
func (s *Store) Categories() *Categories { return &Categories{s: s} }

// Expenses returns the expense repository view of the store.
func (s *Store) Expenses() *Expenses { return &Expenses{s: s} }

// SumCalls reports how many times SumExpenses has been called.
func (s *Store) SumCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sumCalls
}

// FailSums makes every SumExpenses call return err until called again with nil.
func (s *Store) FailSums(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sumErr = err
}

// Users is the in-memory user repository.
type Users struct{ s *Store }

// UpsertUser creates or updates a user.
func (u *Users) UpsertUser(_ context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	now := u.s.now()
	existing, ok := u.s.users[user.ID]
	if ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.UpdatedAt = now
		u.s.users[user.ID] = existing
		return nil
	}
	stored := *user
	stored.CreatedAt, stored.UpdatedAt = now, now
	u.s.users[user.ID] = stored
	return nil
}

// GetUserByID retrieves a user by ID.
func (u *Users) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user: %d not found", id)
	}
	return &user, nil
}

// Categories is the in-memory category repository.
type Categories struct{ s *Store }

// FindCategory retrieves a category owned by userID.
func (c *Categories) FindCategory(_ context.Context, userID int64, categoryID int) (*models.BudgetCategory, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cat, ok := c.s.categories[categoryID]
	if !ok || cat.UserID != userID {
		return nil, models.ErrCategoryNotFound
	}
	return &cat, nil
}

// FindCategoryByName retrieves a category owned by userID by name (case-insensitive).
func (c *Categories) FindCategoryByName(_ context.Context, userID int64, name string) (*models.BudgetCategory, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, cat := range c.s.categories {
		if cat.UserID == userID && strings.EqualFold(cat.Name, name) {
			return &cat, nil
		}
	}
	return nil, models.ErrCategoryNotFound
}

// ListCategories retrieves all categories owned by userID ordered by name.
func (c *Categories) ListCategories(_ context.Context, userID int64) ([]models.BudgetCategory, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var out []models.BudgetCategory
	for _, cat := range c.s.categories {
		if cat.UserID == userID {
			out = append(out, cat)
		}
	}
	slices.SortFunc(out, func(a, b models.BudgetCategory) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return a.ID - b.ID
	})
	return out, nil
}

// Create adds a new category. Names are unique per user, case-insensitively.
func (c *Categories) Create(_ context.Context, cat *models.BudgetCategory) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.nameTaken(cat.UserID, cat.Name, 0) {
		return fmt.Errorf("failed to create category: %q already exists", cat.Name)
	}
	now := c.s.now()
	cat.ID = c.s.nextCatID
	c.s.nextCatID++
	cat.CreatedAt, cat.UpdatedAt = now, now
	c.s.categories[cat.ID] = *cat
	return nil
}

// Update modifies a category owned by cat.UserID.
func (c *Categories) Update(_ context.Context, cat *models.BudgetCategory) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	existing, ok := c.s.categories[cat.ID]
	if !ok || existing.UserID != cat.UserID {
		return models.ErrCategoryNotFound
	}
	if c.s.nameTaken(cat.UserID, cat.Name, cat.ID) {
		return fmt.Errorf("failed to update category: %q already exists", cat.Name)
	}
	existing.Name = cat.Name
	existing.MonthlyLimit = cat.MonthlyLimit
	existing.IsEssential = cat.IsEssential
	existing.UpdatedAt = c.s.now()
	c.s.categories[cat.ID] = existing
	cat.UpdatedAt = existing.UpdatedAt
	return nil
}

// Delete removes a category owned by userID together with its expenses.
func (c *Categories) Delete(_ context.Context, userID int64, categoryID int) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cat, ok := c.s.categories[categoryID]
	if !ok || cat.UserID != userID {
		return models.ErrCategoryNotFound
	}
	delete(c.s.categories, categoryID)
	for id, exp := range c.s.expenses {
		if exp.CategoryID == categoryID {
			delete(c.s.expenses, id)
		}
	}
	return nil
}

func (s *Store) nameTaken(userID int64, name string, exceptID int) bool {
	for _, cat := range s.categories {
		if cat.ID != exceptID && cat.UserID == userID && strings.EqualFold(cat.Name, name) {
			return true
		}
	}
	return false
}

// Expenses is the in-memory expense repository.
type Expenses struct{ s *Store }

// Create adds a new expense.
func (e *Expenses) Create(_ context.Context, expense *models.Expense) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if cat, ok := e.s.categories[expense.CategoryID]; !ok || cat.UserID != expense.UserID {
		return fmt.Errorf("failed to create expense: %w", models.ErrCategoryNotFound)
	}
	now := e.s.now()
	expense.ID = e.s.nextExpID
	e.s.nextExpID++
	expense.CreatedAt, expense.UpdatedAt = now, now
	e.s.expenses[expense.ID] = *expense
	return nil
}

// GetByID retrieves an expense owned by userID.
func (e *Expenses) GetByID(_ context.Context, userID int64, id int) (*models.Expense, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	exp, ok := e.s.expenses[id]
	if !ok || exp.UserID != userID {
		return nil, models.ErrExpenseNotFound
	}
	return &exp, nil
}

// Update modifies an expense owned by expense.UserID.
func (e *Expenses) Update(_ context.Context, expense *models.Expense) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	existing, ok := e.s.expenses[expense.ID]
	if !ok || existing.UserID != expense.UserID {
		return models.ErrExpenseNotFound
	}
	existing.CategoryID = expense.CategoryID
	existing.Amount = expense.Amount
	existing.Description = expense.Description
	existing.ExpenseDate = expense.ExpenseDate
	existing.UpdatedAt = e.s.now()
	e.s.expenses[expense.ID] = existing
	return nil
}

// Delete removes an expense owned by userID.
func (e *Expenses) Delete(_ context.Context, userID int64, id int) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	exp, ok := e.s.expenses[id]
	if !ok || exp.UserID != userID {
		return models.ErrExpenseNotFound
	}
	delete(e.s.expenses, id)
	return nil
}

// SumExpenses totals a user's expenses in one category within the inclusive date range.
func (e *Expenses) SumExpenses(
	_ context.Context,
	userID int64,
	categoryID int,
	dateRange models.DateRange,
) (decimal.Decimal, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.sumCalls++
	if e.s.sumErr != nil {
		return decimal.Zero, fmt.Errorf("failed to sum expenses: %w", e.s.sumErr)
	}
	total := decimal.Zero
	for _, exp := range e.s.expenses {
		if exp.UserID == userID && exp.CategoryID == categoryID && dateRange.Contains(exp.ExpenseDate) {
			total = total.Add(exp.Amount)
		}
	}
	return total, nil
}

// ListByCategoryAndDateRange retrieves a user's expenses in one category, newest first.
func (e *Expenses) ListByCategoryAndDateRange(
	_ context.Context,
	userID int64,
	categoryID int,
	dateRange models.DateRange,
) ([]models.Expense, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	var out []models.Expense
	for _, exp := range e.s.expenses {
		if exp.UserID == userID && exp.CategoryID == categoryID && dateRange.Contains(exp.ExpenseDate) {
			out = append(out, exp)
		}
	}
	slices.SortFunc(out, func(a, b models.Expense) int {
		if c := b.ExpenseDate.Compare(a.ExpenseDate); c != 0 {
			return c
		}
		return b.ID - a.ID
	})
	return out, nil
}
