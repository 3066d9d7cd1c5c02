// Package recurrence implements the recurring-transaction schedule: the pure
// date arithmetic for each cadence, and the processor that realizes due
// occurrences against the store.
package recurrence

import (
	"time"

	"finguide/internal/models"
)

// NextOccurrence computes the occurrence that follows current for the given
// pattern. It is total over valid patterns and always returns a date strictly
// after current (given Frequency > 0).
func NextOccurrence(current time.Time, p models.RecurrencePattern) time.Time {
	switch p.Type {
	case models.Daily:
		return current.AddDate(0, 0, p.Frequency)

	case models.Weekly:
		if p.DayOfWeek == nil {
			return current.AddDate(0, 0, 7*p.Frequency)
		}
		// Land on the next occurrence of the target weekday, then skip the
		// remaining whole weeks. frequency=1 therefore means "the next such
		// weekday", not "a full cycle later".
		next := current.AddDate(0, 0, 1)
		for int(next.Weekday()) != *p.DayOfWeek {
			next = next.AddDate(0, 0, 1)
		}
		return next.AddDate(0, 0, 7*(p.Frequency-1))

	case models.Monthly:
		year, month := current.Year(), int(current.Month())+p.Frequency
		day := current.Day()
		if p.DayOfMonth != nil {
			day = *p.DayOfMonth
		}
		return dateClamped(year, month, day, current)

	case models.Yearly:
		if p.MonthOfYear != nil && p.DayOfMonth != nil {
			return dateClamped(current.Year()+p.Frequency, *p.MonthOfYear, *p.DayOfMonth, current)
		}
		return current.AddDate(p.Frequency, 0, 0)
	}

	return current
}

// IsDue reports whether a definition with the given next occurrence should be
// processed now. Comparison is at calendar-day granularity: a definition is
// due any time during the day of its next occurrence. A passed end date makes
// the definition permanently not due.
func IsDue(next time.Time, end *time.Time, now time.Time) bool {
	today := truncateDay(now)
	if end != nil && today.After(truncateDay(*end)) {
		return false
	}
	return !truncateDay(next).After(today)
}

// dateClamped builds a date from a possibly overflowing month and a day that
// is clamped to the length of the resulting month (day 31 in February becomes
// the 28th or 29th). Time-of-day and location carry over from ref.
func dateClamped(year, month, day int, ref time.Time) time.Time {
	// Normalize the month first, with the day pinned to 1 so month overflow
	// behaves predictably.
	first := time.Date(year, time.Month(month), 1,
		ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())

	if max := daysInMonth(first.Year(), first.Month()); day > max {
		day = max
	}
	return time.Date(first.Year(), first.Month(), day,
		ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
}

// daysInMonth returns the number of days in the given month
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// truncateDay strips time-of-day
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
