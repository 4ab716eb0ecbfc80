package timeline

import (
	"fmt"
	"strings"
	"time"
)

type ViewMode string

const (
	ViewModeDay   ViewMode = "day"
	ViewModeWeek  ViewMode = "week"
	ViewModeMonth ViewMode = "month"
)

var ViewModes = []ViewMode{ViewModeDay, ViewModeWeek, ViewModeMonth}

func (m ViewMode) Valid() bool {
	switch m {
	case ViewModeDay, ViewModeWeek, ViewModeMonth:
		return true
	}
	return false
}

func (m ViewMode) String() string {
	return string(m)
}

func ParseViewMode(s string) (ViewMode, error) {
	m := ViewMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown view mode %q (want day, week or month)", s)
	}
	return m, nil
}

// ColumnWidth is the pixel width of one column in mode. Unknown modes have
// no width.
func ColumnWidth(mode ViewMode) int {
	switch mode {
	case ViewModeDay:
		return 40
	case ViewModeWeek:
		return 80
	case ViewModeMonth:
		return 120
	}
	return 0
}

// FormatColumnHeader renders a column anchor as "Jan 15" for day and week
// columns and "Jan 2025" for month columns.
func FormatColumnHeader(t time.Time, mode ViewMode) string {
	switch mode {
	case ViewModeDay, ViewModeWeek:
		return t.Format("Jan 2")
	case ViewModeMonth:
		return t.Format("Jan 2006")
	}
	return ""
}
