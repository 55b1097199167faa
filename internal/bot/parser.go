package bot

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayout is the optional trailing date accepted by /add and /preview.
const dateLayout = "2006-01-02"

// ErrInvalidFormat is returned when command arguments cannot be parsed.
var ErrInvalidFormat = errors.New("invalid command format")

// amountRegex matches amounts like "5", "5.50", "5,50".
var amountRegex = regexp.MustCompile(`^\d+(?:[.,]\d{1,2})?$`)

// ParsedEntry is an amount against a named category, optionally dated.
type ParsedEntry struct {
	Amount       decimal.Decimal
	CategoryName string
	Date         *time.Time
}

// ParsedCategory holds /addcategory arguments. Essential is nil when not given.
type ParsedCategory struct {
	Limit     decimal.Decimal
	Name      string
	Essential *bool
}

// extractCommandArgs strips the command and an optional @botname suffix.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// parseAmount accepts a positive amount with up to two decimals.
// Range checks are left to the budget validators.
func parseAmount(s string) (decimal.Decimal, error) {
	if !amountRegex.MatchString(s) {
		return decimal.Zero, ErrInvalidFormat
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, ErrInvalidFormat
	}
	return amount, nil
}

// ParseEntry parses "<amount> <category name> [YYYY-MM-DD]".
// The date, when present, is read as a calendar day in loc.
func ParseEntry(args string, loc *time.Location) (*ParsedEntry, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return nil, ErrInvalidFormat
	}

	amount, err := parseAmount(fields[0])
	if err != nil {
		return nil, err
	}

	entry := &ParsedEntry{Amount: amount}
	rest := fields[1:]
	if len(rest) > 1 {
		if d, err := time.ParseInLocation(dateLayout, rest[len(rest)-1], loc); err == nil {
			entry.Date = &d
			rest = rest[:len(rest)-1]
		}
	}

	entry.CategoryName = strings.Join(rest, " ")
	return entry, nil
}

// ParseAddCategory parses "<limit> <name> [essential|nice]".
func ParseAddCategory(args string) (*ParsedCategory, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return nil, ErrInvalidFormat
	}

	limit, err := parseAmount(fields[0])
	if err != nil {
		return nil, err
	}

	parsed := &ParsedCategory{Limit: limit}
	rest := fields[1:]
	if len(rest) > 1 {
		switch strings.ToLower(rest[len(rest)-1]) {
		case "essential", "need":
			essential := true
			parsed.Essential = &essential
			rest = rest[:len(rest)-1]
		case "nice", "want":
			essential := false
			parsed.Essential = &essential
			rest = rest[:len(rest)-1]
		}
	}

	parsed.Name = strings.Join(rest, " ")
	return parsed, nil
}

// ParseID parses a positive integer id such as an expense number.
func ParseID(args string) (int, error) {
	args = strings.TrimPrefix(strings.TrimSpace(args), "#")
	id, err := strconv.Atoi(args)
	if err != nil || id <= 0 {
		return 0, ErrInvalidFormat
	}
	return id, nil
}
