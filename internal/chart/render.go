package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/pkg/color"
)

const (
	// pxPerCell scales layout pixels down to terminal cells: a day column is
	// four cells wide.
	pxPerCell  = 10
	labelWidth = 24
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	labelStyle    = lipgloss.NewStyle().Width(labelWidth).MaxWidth(labelWidth)
	selectedStyle = labelStyle.Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "27", Dark: "62"})
	todayStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(color.TodayHex))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
)

type renderOptions struct {
	selected string
	width    int
	scroll   int
}

type RenderOption func(*renderOptions)

// WithSelected highlights the row of taskID.
func WithSelected(taskID string) RenderOption {
	return func(o *renderOptions) {
		o.selected = taskID
	}
}

// WithWidth clips the output to width terminal cells.
func WithWidth(width int) RenderOption {
	return func(o *renderOptions) {
		o.width = width
	}
}

// WithScroll skips the first cells of the timeline area.
func WithScroll(cells int) RenderOption {
	return func(o *renderOptions) {
		o.scroll = cells
	}
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellToday
	cellDone
	cellTodo
)

var cellRune = map[cellKind]string{
	cellEmpty: " ",
	cellToday: "│",
	cellDone:  "█",
	cellTodo:  "░",
}

// Cells is the width of the timeline area of l in terminal cells.
func (l *Layout) Cells() int {
	return l.TotalWidth / pxPerCell
}

// TodayCell is the terminal column of the today marker.
func (l *Layout) TodayCell() int {
	return floorDiv(l.Today.Left, pxPerCell)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Render draws l as text: a header line with the column labels, then one
// line per bar.
func Render(l *Layout, opts ...RenderOption) string {
	var o renderOptions
	for _, opt := range opts {
		opt(&o)
	}

	cells := l.Cells()
	from := min(max(o.scroll, 0), cells)
	to := cells
	if o.width > 0 {
		if n := o.width - labelWidth - 1; n > 0 && from+n < to {
			to = from + n
		}
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(""))
	b.WriteString(" ")
	b.WriteString(headerStyle.Render(headerLine(l, from, to)))
	b.WriteString("\n")

	today := l.TodayCell()
	for _, bar := range l.Bars {
		if bar.TaskID == o.selected {
			b.WriteString(selectedStyle.Render(truncate("> "+bar.Title, labelWidth)))
		} else {
			b.WriteString(labelStyle.Render(truncate("  "+bar.Title, labelWidth)))
		}
		b.WriteString(" ")
		b.WriteString(barLine(bar, today, from, to))
		b.WriteString("\n")
	}
	if len(l.Bars) == 0 {
		b.WriteString(mutedStyle.Render("  no tasks"))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s  %s view",
		task.FormatDateRange(l.Range.Start, l.Range.End), l.ViewMode)))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func headerLine(l *Layout, from, to int) string {
	line := []rune(strings.Repeat(" ", l.Cells()))
	colCells := l.ColumnWidth / pxPerCell
	for i, c := range l.Columns {
		start := i * colCells
		for j, r := range []rune(c.Header) {
			if j >= colCells-1 || start+j >= len(line) {
				break
			}
			line[start+j] = r
		}
	}
	return string(line[from:to])
}

func barLine(bar Bar, today, from, to int) string {
	start := floorDiv(bar.Position.Left, pxPerCell)
	n := bar.Position.Width / pxPerCell
	done := n * bar.Progress / 100

	kinds := make([]cellKind, to-from)
	for c := from; c < to; c++ {
		switch {
		case c >= start && c < start+n && c-start < done:
			kinds[c-from] = cellDone
		case c >= start && c < start+n:
			kinds[c-from] = cellTodo
		case c == today:
			kinds[c-from] = cellToday
		}
	}

	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(bar.Color))
	var b strings.Builder
	for i := 0; i < len(kinds); {
		j := i
		for j < len(kinds) && kinds[j] == kinds[i] {
			j++
		}
		run := strings.Repeat(cellRune[kinds[i]], j-i)
		switch kinds[i] {
		case cellDone, cellTodo:
			run = barStyle.Render(run)
		case cellToday:
			run = todayStyle.Render(run)
		}
		b.WriteString(run)
		i = j
	}
	return b.String()
}
