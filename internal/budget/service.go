package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/budget-health/internal/cache"
	"gitlab.com/yelinaung/budget-health/internal/logger"
	"gitlab.com/yelinaung/budget-health/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "gitlab.com/yelinaung/budget-health/internal/budget"

// maxConcurrentSnapshots bounds the per-category fan-out of the overall summaries.
const maxConcurrentSnapshots = 4

// SnapshotCache memoizes spend snapshots per user, category and month.
type SnapshotCache = cache.MonthCache[models.SpendSnapshot]

// NewSnapshotCache creates the process-wide snapshot cache.
func NewSnapshotCache() *SnapshotCache {
	return cache.New[models.SpendSnapshot]("spend_snapshots")
}

// Service is the entry point of the budget health engine.
type Service struct {
	categories CategoryReader
	aggregator *SpendAggregator
	clock      Clock
	snapshots  *SnapshotCache
	tracer     trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source. Defaults to SystemClock in time.Local.
func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithCache shares a snapshot cache. Defaults to a private cache.
func WithCache(c *SnapshotCache) Option {
	return func(s *Service) { s.snapshots = c }
}

// NewService creates a Service reading categories and expenses from the given stores.
func NewService(categories CategoryReader, expenses ExpenseSummer, opts ...Option) *Service {
	s := &Service{
		categories: categories,
		clock:      SystemClock{},
		tracer:     otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.snapshots == nil {
		s.snapshots = NewSnapshotCache()
	}
	s.aggregator = NewSpendAggregator(categories, expenses, s.clock)
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

func (s *Service) startSpan(ctx context.Context, name string, userID int64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("user.hash", logger.HashUserID(userID)))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// snapshot returns the cached spend snapshot for the month containing asOf.
func (s *Service) snapshot(ctx context.Context, userID int64, categoryID int, asOf time.Time) (models.SpendSnapshot, error) {
	key := cache.Key{UserID: userID, CategoryID: categoryID, Month: monthKey(asOf)}
	return s.snapshots.GetOrCompute(ctx, key, func(ctx context.Context) (models.SpendSnapshot, error) {
		return s.aggregator.Snapshot(ctx, userID, categoryID, asOf)
	})
}

func (s *Service) categorySnapshot(ctx context.Context, category models.BudgetCategory, asOf time.Time) (models.SpendSnapshot, error) {
	key := cache.Key{UserID: category.UserID, CategoryID: category.ID, Month: monthKey(asOf)}
	return s.snapshots.GetOrCompute(ctx, key, func(ctx context.Context) (models.SpendSnapshot, error) {
		return s.aggregator.SnapshotCategory(ctx, category, asOf)
	})
}

// GetCurrentSpend returns the user's spend in the category for the current month.
func (s *Service) GetCurrentSpend(ctx context.Context, userID int64, categoryID int) (decimal.Decimal, error) {
	snapshot, err := s.snapshot(ctx, userID, categoryID, s.clock.Now())
	if err != nil {
		return decimal.Zero, err
	}
	return snapshot.CurrentSpent, nil
}

// GetBudgetImpactPreview shows what adding amount to the category would do to its health.
// asOf, when set, selects the month to preview and must lie within the last MaxBackdateDays days.
func (s *Service) GetBudgetImpactPreview(
	ctx context.Context,
	userID int64,
	categoryID int,
	amount decimal.Decimal,
	asOf *time.Time,
) (_ *models.BudgetImpactPreview, err error) {
	ctx, span := s.startSpan(ctx, "budget.GetBudgetImpactPreview", userID, attribute.Int("category.id", categoryID))
	defer func() { endSpan(span, err) }()

	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	month := now
	if asOf != nil {
		if err := ValidateDate(*asOf, now); err != nil {
			return nil, err
		}
		month = calendarDay(*asOf, now.Location())
	}

	snapshot, err := s.snapshot(ctx, userID, categoryID, month)
	if err != nil {
		return nil, err
	}

	preview := BuildPreview(snapshot, amount)
	span.SetAttributes(attribute.String("budget.health", preview.HealthStatus.String()))

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Int("category_id", categoryID).
		Str("health", preview.HealthStatus.String()).
		Str("percentage_used", preview.PercentageUsed.String()).
		Msg("Budget impact preview computed")

	return &preview, nil
}

// InvalidateBudgetCache evicts every cached month of the (user, category) pair.
// The expense and category write paths call it before acknowledging a write.
func (s *Service) InvalidateBudgetCache(ctx context.Context, userID int64, categoryID int) {
	s.snapshots.Invalidate(ctx, userID, categoryID)
	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Int("category_id", categoryID).
		Msg("Budget cache invalidated")
}

// GetOverallBudgetHealth summarizes the user's current month across all categories.
func (s *Service) GetOverallBudgetHealth(ctx context.Context, userID int64) (_ *models.OverallBudgetHealth, err error) {
	ctx, span := s.startSpan(ctx, "budget.GetOverallBudgetHealth", userID)
	defer func() { endSpan(span, err) }()

	snapshots, err := s.currentSnapshots(ctx, userID)
	if err != nil {
		return nil, err
	}

	overall := BuildOverallHealth(snapshots)
	span.SetAttributes(
		attribute.Int("budget.categories", overall.CategoryCount),
		attribute.String("budget.health", overall.OverallStatus.String()),
	)
	return &overall, nil
}

// GetMonthlyProgressData reports month-to-date progress of each of the user's categories.
func (s *Service) GetMonthlyProgressData(ctx context.Context, userID int64) (_ []models.MonthlyProgressData, err error) {
	ctx, span := s.startSpan(ctx, "budget.GetMonthlyProgressData", userID)
	defer func() { endSpan(span, err) }()

	snapshots, err := s.currentSnapshots(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Now()
	progress := make([]models.MonthlyProgressData, 0, len(snapshots))
	for _, snapshot := range snapshots {
		progress = append(progress, BuildMonthlyProgress(snapshot, today))
	}
	return progress, nil
}

// CurrentSnapshots returns the current-month snapshot of every category the user owns,
// in the order the category store lists them.
func (s *Service) CurrentSnapshots(ctx context.Context, userID int64) ([]models.SpendSnapshot, error) {
	return s.currentSnapshots(ctx, userID)
}

func (s *Service) currentSnapshots(ctx context.Context, userID int64) ([]models.SpendSnapshot, error) {
	categories, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	now := s.clock.Now()
	snapshots := make([]models.SpendSnapshot, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSnapshots)
	for i, category := range categories {
		g.Go(func() error {
			snapshot, err := s.categorySnapshot(gctx, category, now)
			if err != nil {
				return err
			}
			snapshots[i] = snapshot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// CalculateCategoryHealthStatus classifies spent against limit. The ids only label logs and traces.
func (s *Service) CalculateCategoryHealthStatus(
	ctx context.Context,
	userID int64,
	categoryID int,
	spent, limit decimal.Decimal,
) models.HealthStatus {
	_, span := s.startSpan(ctx, "budget.CalculateCategoryHealthStatus", userID, attribute.Int("category.id", categoryID))
	defer span.End()

	status := Classify(spent, limit)
	span.SetAttributes(attribute.String("budget.health", status.String()))
	return status
}
