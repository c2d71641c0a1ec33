package schema

import (
	"fmt"
	"time"
)

// DateLayout is the natural key format of the date dimension.
const DateLayout = "2006-01-02"

// Day truncates t to a civil date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a civil date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DateKey is the natural key of the date dimension row for t.
func DateKey(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// DateAttributes derives the date dimension attributes for t.
// Month and day are zero-padded so lexical order matches calendar order.
func DateAttributes(t time.Time) map[string]string {
	t = Day(t)
	return map[string]string{
		"year":    fmt.Sprintf("%04d", t.Year()),
		"quarter": fmt.Sprintf("Q%d", (int(t.Month())-1)/3+1),
		"month":   fmt.Sprintf("%02d", int(t.Month())),
		"day":     fmt.Sprintf("%02d", t.Day()),
		"weekday": t.Weekday().String(),
	}
}
