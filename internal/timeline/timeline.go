// Package timeline maps task date spans onto Gantt chart geometry: the
// visible window, its columns and the pixel position of each bar.
package timeline

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidRange is returned when a window ends before it starts.
var ErrInvalidRange = errors.New("timeline: range end is before start")

// EmptyHorizon is how far past today the window reaches when there are no
// tasks.
const EmptyHorizon = 30

// Padding is added on both sides of the task dates before rounding.
const Padding = 7

type Span struct {
	Start time.Time
	End   time.Time
}

// Range is an inclusive timeline window.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Position struct {
	Left  int `json:"left"`
	Width int `json:"width"`
}

// Resolve computes the visible window for spans. All dates are read in now's
// location.
func Resolve(spans []Span, mode ViewMode, now time.Time, weekStart time.Weekday) Range {
	loc := now.Location()
	if len(spans) == 0 {
		return Range{
			Start: StartOfWeek(now, weekStart),
			End:   EndOfWeek(AddDays(now, EmptyHorizon), weekStart),
		}
	}

	minDate, maxDate := spans[0].Start, spans[0].Start
	for _, s := range spans {
		for _, d := range []time.Time{s.Start, s.End} {
			if d.Before(minDate) {
				minDate = d
			}
			if d.After(maxDate) {
				maxDate = d
			}
		}
	}
	paddedStart := AddDays(minDate.In(loc), -Padding)
	paddedEnd := AddDays(maxDate.In(loc), Padding)

	if mode == ViewModeMonth {
		return Range{Start: StartOfMonth(paddedStart), End: EndOfMonth(paddedEnd)}
	}
	return Range{Start: StartOfWeek(paddedStart, weekStart), End: EndOfWeek(paddedEnd, weekStart)}
}

// Columns returns one anchor per day, week or month overlapping r, in
// ascending order. Week anchors fall on weekStart and the first one may
// precede r.Start.
func Columns(r Range, mode ViewMode, weekStart time.Weekday) ([]time.Time, error) {
	if r.End.Before(r.Start) {
		return nil, ErrInvalidRange
	}
	end := r.End.In(r.Start.Location())

	var (
		cur  time.Time
		next func(time.Time) time.Time
	)
	switch mode {
	case ViewModeDay:
		cur = StartOfDay(r.Start)
		next = func(t time.Time) time.Time { return AddDays(t, 1) }
	case ViewModeWeek:
		cur = StartOfWeek(r.Start, weekStart)
		next = func(t time.Time) time.Time { return AddDays(t, 7) }
	case ViewModeMonth:
		cur = StartOfMonth(r.Start)
		next = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	default:
		return nil, errors.New("timeline: unknown view mode " + string(mode))
	}

	var cols []time.Time
	for !cur.After(end) {
		cols = append(cols, cur)
		cur = next(cur)
	}
	return cols, nil
}

// CalculatePosition places a bar for [taskStart, taskEnd] on a timeline
// starting at timelineStart. Offsets are whole days in every view mode and
// the duration includes both ends. Left is negative when the task starts
// before the window.
func CalculatePosition(taskStart, taskEnd, timelineStart time.Time, columnWidth int) Position {
	startOffset := DaysBetween(taskStart, timelineStart)
	duration := DaysBetween(taskEnd, taskStart) + 1
	return Position{
		Left:  startOffset * columnWidth,
		Width: duration * columnWidth,
	}
}

// DragDays converts a horizontal drag of deltaPx pixels into a day shift,
// rounded to the nearest whole day.
func DragDays(deltaPx float64, columnWidth int) int {
	if columnWidth <= 0 {
		return 0
	}
	return int(math.Round(deltaPx / float64(columnWidth)))
}

// TotalWidth is the pixel width of n columns in mode.
func TotalWidth(n int, mode ViewMode) int {
	return n * ColumnWidth(mode)
}
