package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxBackdateDays is how far in the past an expense or preview date may lie.
const MaxBackdateDays = 30

// MaxAmount is the largest amount accepted for an expense or preview.
var MaxAmount = decimal.RequireFromString("999999.99")

var (
	// ErrValidation is the umbrella for caller input errors. Test with errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidAmount is returned for amounts outside (0, MaxAmount].
	ErrInvalidAmount = fmt.Errorf("%w: amount must be greater than 0 and at most %s", ErrValidation, MaxAmount.StringFixed(2))
	// ErrInvalidDate is returned for dates in the future or older than MaxBackdateDays.
	ErrInvalidDate = fmt.Errorf("%w: date must be within the last %d days and not in the future", ErrValidation, MaxBackdateDays)
)

// ValidateAmount checks 0 < amount <= MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateDate checks that date's calendar day lies in [today-MaxBackdateDays, today].
func ValidateDate(date, today time.Time) error {
	d := calendarDay(date, today.Location())
	t := startOfDay(today)
	if d.After(t) || d.Before(t.AddDate(0, 0, -MaxBackdateDays)) {
		return ErrInvalidDate
	}
	return nil
}
