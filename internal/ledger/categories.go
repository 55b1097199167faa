package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/logger"
	"gitlab.com/yelinaung/budget-health/internal/models"
)

// EssentialSuggester guesses whether a category name covers needs.
type EssentialSuggester interface {
	SuggestEssential(ctx context.Context, categoryName string) (bool, error)
}

// essentialKeywords back the heuristic used when no suggester answers.
var essentialKeywords = []string{
	"rent", "mortgage", "housing", "grocer", "utilit", "electric", "water", "gas",
	"power", "internet", "phone", "insurance", "health", "medical", "doctor", "pharmacy",
	"transport", "commute", "fuel", "train", "childcare", "school", "tuition", "loan", "debt",
}

// CategoryService creates, edits and removes budget categories.
type CategoryService struct {
	categories  CategoryStore
	invalidator CacheInvalidator
	suggester   EssentialSuggester
}

// CategoryOption configures a CategoryService.
type CategoryOption func(*CategoryService)

// WithSuggester consults s for the essential flag when the caller leaves it unset.
func WithSuggester(s EssentialSuggester) CategoryOption {
	return func(c *CategoryService) { c.suggester = s }
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(categories CategoryStore, invalidator CacheInvalidator, opts ...CategoryOption) *CategoryService {
	s := &CategoryService{categories: categories, invalidator: invalidator}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a category. When essential is nil the flag is suggested from the name.
func (s *CategoryService) Create(
	ctx context.Context,
	userID int64,
	name string,
	limit decimal.Decimal,
	essential *bool,
) (*models.BudgetCategory, error) {
	name, err := validateCategory(name, limit)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, userID, name, 0); err != nil {
		return nil, err
	}

	cat := &models.BudgetCategory{
		UserID:       userID,
		Name:         name,
		MonthlyLimit: limit,
		IsEssential:  s.resolveEssential(ctx, name, essential),
	}
	if err := s.categories.Create(ctx, cat); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Int("category_id", cat.ID).
		Bool("essential", cat.IsEssential).
		Msg("Category created")
	return cat, nil
}

// Update changes a category's name, limit and essential flag, then invalidates it.
func (s *CategoryService) Update(ctx context.Context, cat *models.BudgetCategory) error {
	name, err := validateCategory(cat.Name, cat.MonthlyLimit)
	if err != nil {
		return err
	}
	cat.Name = name

	if _, err := findOwnedCategory(ctx, s.categories, cat.UserID, cat.ID); err != nil {
		return err
	}
	if err := s.ensureNameFree(ctx, cat.UserID, name, cat.ID); err != nil {
		return err
	}

	if err := s.categories.Update(ctx, cat); err != nil {
		return err
	}
	s.invalidator.InvalidateBudgetCache(ctx, cat.UserID, cat.ID)
	return nil
}

// Delete removes a category and its expenses, then invalidates it.
func (s *CategoryService) Delete(ctx context.Context, userID int64, categoryID int) error {
	if err := s.categories.Delete(ctx, userID, categoryID); err != nil {
		return err
	}
	s.invalidator.InvalidateBudgetCache(ctx, userID, categoryID)

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Int("category_id", categoryID).
		Msg("Category deleted")
	return nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, userID int64, name string, exceptID int) error {
	existing, err := s.categories.FindCategoryByName(ctx, userID, name)
	switch {
	case errors.Is(err, models.ErrCategoryNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check category name: %w", err)
	case existing.ID != exceptID:
		return ErrDuplicateCategory
	default:
		return nil
	}
}

func (s *CategoryService) resolveEssential(ctx context.Context, name string, essential *bool) bool {
	if essential != nil {
		return *essential
	}
	if s.suggester != nil {
		suggested, err := s.suggester.SuggestEssential(ctx, name)
		if err == nil {
			return suggested
		}
		logger.Log.Warn().Err(err).Msg("Essential suggestion failed, using keyword heuristic")
	}
	return GuessEssential(name)
}

// GuessEssential reports whether name contains a keyword typical of needs spending.
func GuessEssential(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range essentialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func validateCategory(name string, limit decimal.Decimal) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || len([]rune(name)) > models.MaxCategoryNameLength {
		return "", ErrInvalidName
	}
	if !limit.IsPositive() || limit.GreaterThan(MaxMonthlyLimit) {
		return "", ErrInvalidLimit
	}
	return name, nil
}
