package budget

import (
	"time"

	"gitlab.com/yelinaung/budget-health/internal/models"
)

// Clock supplies "now" for month windows and run-rate projections.
type Clock interface {
	Now() time.Time
}

// SystemClock reads wall-clock time in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// FixedClock returns a Clock frozen at t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func daysInMonth(t time.Time) int {
	return startOfMonth(t).AddDate(0, 1, -1).Day()
}

func monthKey(t time.Time) string {
	return t.Format(models.MonthKeyLayout)
}

// calendarDay keeps t's year, month and day but places midnight in loc.
// Dates parsed from user input or read from DATE columns carry UTC and must not shift.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// monthWindow is the inclusive range from the first day of asOf's month up to the
// earlier of that month's last day and today.
func monthWindow(asOf, today time.Time) models.DateRange {
	asOf = calendarDay(asOf, today.Location())
	from := startOfMonth(asOf)
	to := startOfDay(from.AddDate(0, 1, -1))
	if t := startOfDay(today); t.Before(to) {
		to = t
	}
	return models.DateRange{From: from, To: to}
}
