package core

import "time"

// Midnight strips the time-of-day, returning the calendar date at
// 00:00:00 UTC. All schedule comparisons go through this so same-day
// checks are exact.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Midnight(a).Equal(Midnight(b))
}

// NextDate returns the occurrence that follows last for the given
// frequency. An unrecognized frequency falls back to the monthly rule
// rather than failing.
//
// Monthly and yearly steps clamp to the last day of the target month
// when the source day does not exist there: Jan 31 + 1 month is Feb 28
// (or 29), Feb 29 + 1 year is Feb 28. time.AddDate would roll such
// dates into the following month instead, silently shifting the series.
func NextDate(last time.Time, freq Frequency) time.Time {
	last = Midnight(last)
	switch freq {
	case Daily:
		return last.AddDate(0, 0, 1)
	case Weekly:
		return last.AddDate(0, 0, 7)
	case Yearly:
		return addMonthsClamped(last, 12)
	case Monthly:
		return addMonthsClamped(last, 1)
	default:
		return addMonthsClamped(last, 1)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1
	if last := daysIn(year, time.Month(m)); day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
