// Package period handles the "YYYY-MM" month keys that tie expenses,
// derived debts and payment history to a budget month.
package period

import (
	"fmt"
	"regexp"
	"time"
)

var monthKeyPattern = regexp.MustCompile(`^([0-9]{4})-([0-9]{2})$`)

// Month identifies a single budget month.
type Month struct {
	Year  int
	Month int
}

// Key renders the month as its "YYYY-MM" key.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// AddMonths walks the month forward (or backward for negative n).
func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Month{Year: t.Year(), Month: int(t.Month())}
}

// Before reports whether m is strictly earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}

	return m.Month < other.Month
}

// FromDate extracts the UTC budget month a payment timestamp belongs to.
func FromDate(t time.Time) Month {
	u := t.UTC()
	return Month{Year: u.Year(), Month: int(u.Month())}
}

// Parse reads a "YYYY-MM" key. Malformed or out-of-range input returns an error.
func Parse(key string) (Month, error) {
	match := monthKeyPattern.FindStringSubmatch(key)
	if match == nil {
		return Month{}, fmt.Errorf("invalid month key %q", key)
	}

	var m Month

	fmt.Sscanf(match[1], "%d", &m.Year)
	fmt.Sscanf(match[2], "%d", &m.Month)

	if m.Month < 1 || m.Month > 12 {
		return Month{}, fmt.Errorf("invalid month key %q", key)
	}

	return m, nil
}

// Truncate drops the time-of-day component, keeping the UTC calendar date.
// Due-date comparisons work on whole days.
func Truncate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
