package timeline

import "time"

// Calendar boundaries are computed in the location of the argument. The end
// of a period is its last representable instant.

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	y, m, d := t.Date()
	back := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return time.Date(y, m, d-back, 0, 0, 0, 0, t.Location())
}

func EndOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	start := StartOfWeek(t, weekStart)
	y, m, d := start.Date()
	return endOfDay(y, m, d+6, t.Location())
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	// day 0 of the next month is the last day of this one
	return endOfDay(y, m+1, 0, t.Location())
}

// AddDays moves t by n calendar days keeping the wall clock time.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// wallClock reinterprets t's local date and time in UTC so that calendar
// arithmetic is not skewed by DST transitions.
func wallClock(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func calendarDays(a, b time.Time) int {
	return int(StartOfDay(a).Sub(StartOfDay(b)) / (24 * time.Hour))
}

// DaysBetween returns the number of full days from b to a, truncated toward
// zero. Both instants are read in a's location.
func DaysBetween(a, b time.Time) int {
	loc := a.Location()
	wa, wb := wallClock(a, loc), wallClock(b, loc)
	sign := wa.Compare(wb)
	if sign == 0 {
		return 0
	}
	diff := calendarDays(wa, wb)
	if diff < 0 {
		diff = -diff
	}
	// the last day is not full when stepping back the calendar difference
	// overshoots b
	if wa.AddDate(0, 0, -sign*diff).Compare(wb) == -sign {
		diff--
	}
	return sign * diff
}
