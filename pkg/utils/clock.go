package utils

import "time"

// Clock abstracts the current time so daily-stat keying is testable.
type Clock interface {
	Now() time.Time
}

// RealClock returns the wall-clock time in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Used in tests.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Time
}

// DateKey formats t as a calendar-date key (YYYY-MM-DD) in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// BeginningOfDay truncates t to midnight UTC.
func BeginningOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
