// Package cache memoizes per-user, per-category, per-month derived values.
package cache

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/yelinaung/budget-health/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/singleflight"
)

const instrumentationName = "gitlab.com/yelinaung/budget-health/internal/cache"

// Key identifies one cached value.
type Key struct {
	UserID     int64
	CategoryID int
	// Month is formatted with models.MonthKeyLayout.
	Month string
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%s", k.UserID, k.CategoryID, k.Month)
}

type scope struct {
	userID     int64
	categoryID int
}

// flights tracks the callers of a scope that may still store a computed value.
// gen advances on every invalidation while callers remain.
type flights struct {
	gen     uint64
	callers int
}

// MonthCache holds values with no expiry. An entry lives until its (user, category)
// pair is invalidated. Concurrent misses on the same key share one computation.
type MonthCache[T any] struct {
	attrs metric.MeasurementOption

	mu      sync.RWMutex
	entries map[scope]map[string]T
	// pending holds only scopes with callers in flight, so it stays bounded by concurrency.
	pending map[scope]*flights
	group   singleflight.Group

	hits          metric.Int64Counter
	misses        metric.Int64Counter
	invalidations metric.Int64Counter
}

// New creates an empty cache. name is attached to the exported metrics.
func New[T any](name string) *MonthCache[T] {
	meter := otel.Meter(instrumentationName)
	return &MonthCache[T]{
		attrs:         metric.WithAttributes(attribute.String("cache.name", name)),
		entries:       make(map[scope]map[string]T),
		pending:       make(map[scope]*flights),
		hits:          counter(meter, "budget.cache.hits", "Cache lookups served from memory"),
		misses:        counter(meter, "budget.cache.misses", "Cache lookups that required a computation"),
		invalidations: counter(meter, "budget.cache.invalidations", "Category scopes evicted after a write"),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		logger.Log.Warn().Err(err).Str("metric", name).Msg("Failed to create cache counter")
		return noop.Int64Counter{}
	}
	return c
}

// GetOrCompute returns the cached value for key, computing and storing it on a miss.
//
// A failed computation stores nothing. A computation that was already running when
// the key's scope got invalidated returns its result to its callers but does not store it.
// Waiting callers return early when their own ctx is done; the shared computation keeps
// running with cancellation detached so it cannot be failed by one caller's deadline.
func (c *MonthCache[T]) GetOrCompute(ctx context.Context, key Key, compute func(context.Context) (T, error)) (T, error) {
	sc := scope{userID: key.UserID, categoryID: key.CategoryID}

	if v, ok := c.Get(key); ok {
		c.hits.Add(ctx, 1, c.attrs)
		return v, nil
	}

	c.mu.Lock()
	if v, ok := c.entries[sc][key.Month]; ok {
		c.mu.Unlock()
		c.hits.Add(ctx, 1, c.attrs)
		return v, nil
	}
	f, ok := c.pending[sc]
	if !ok {
		f = &flights{}
		c.pending[sc] = f
	}
	f.callers++
	gen := f.gen
	c.mu.Unlock()

	c.misses.Add(ctx, 1, c.attrs)

	flightKey := fmt.Sprintf("%s@%d", key, gen)
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		v, err := compute(detached)
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		if c.pending[sc].gen == gen {
			months, ok := c.entries[sc]
			if !ok {
				months = make(map[string]T)
				c.entries[sc] = months
			}
			months[key.Month] = v
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		go func() {
			<-ch
			c.release(sc)
		}()
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		c.release(sc)
		v, _ := res.Val.(T)
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return v, nil
	}
}

// Invalidate evicts every month cached for the (userID, categoryID) pair. Entries of
// other pairs are untouched. In-flight computations for the pair will not be stored.
func (c *MonthCache[T]) Invalidate(ctx context.Context, userID int64, categoryID int) {
	sc := scope{userID: userID, categoryID: categoryID}

	c.mu.Lock()
	delete(c.entries, sc)
	if f, ok := c.pending[sc]; ok {
		f.gen++
	}
	c.mu.Unlock()

	c.invalidations.Add(ctx, 1, c.attrs)
}

// release drops one caller of sc once its flight has finished storing.
func (c *MonthCache[T]) release(sc scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.pending[sc]
	f.callers--
	if f.callers == 0 {
		delete(c.pending, sc)
	}
}

// Get returns the cached value for key without computing it.
func (c *MonthCache[T]) Get(key Key) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[scope{userID: key.UserID, categoryID: key.CategoryID}][key.Month]
	return v, ok
}

// Len returns the number of cached values.
func (c *MonthCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, months := range c.entries {
		n += len(months)
	}
	return n
}
