package chart

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskgantt/internal/project"
	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/internal/timeline"
	"github.com/kazz187/taskgantt/pkg/color"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newProject(now time.Time) *project.Project {
	p := project.Default("p1", "", now)
	p.Tasks = append(p.Tasks,
		task.New("t1", task.CreateRequest{Title: "Design", StartDate: date(2025, 1, 5), EndDate: date(2025, 1, 10), Progress: 50}, now),
		task.New("t2", task.CreateRequest{Title: "Build", StartDate: date(2025, 1, 8), EndDate: date(2025, 1, 8)}, now),
	)
	return p
}

func TestBuild_Week(t *testing.T) {
	now := date(2025, 1, 1)
	l, err := Build(newProject(now), "", now, time.Sunday)
	require.NoError(t, err)

	assert.Equal(t, timeline.ViewModeWeek, l.ViewMode)
	assert.Equal(t, date(2024, 12, 29), l.Range.Start)
	assert.Equal(t, 80, l.ColumnWidth)
	require.Len(t, l.Columns, 3)
	assert.Equal(t, []string{"Dec 29", "Jan 5", "Jan 12"},
		[]string{l.Columns[0].Header, l.Columns[1].Header, l.Columns[2].Header})
	assert.Equal(t, 240, l.TotalWidth)
	assert.Equal(t, timeline.Position{Left: 240, Width: 80}, l.Today)

	require.Len(t, l.Bars, 2)
	assert.Equal(t, timeline.Position{Left: 560, Width: 480}, l.Bars[0].Position)
	assert.Equal(t, 0, l.Bars[0].YOffset)
	assert.Equal(t, task.StatusInProgress, l.Bars[0].Status)
	assert.Equal(t, color.InProgressHex, l.Bars[0].Color)
	assert.Equal(t, "Jan 5 - Jan 10, 2025", l.Bars[0].DateRange)

	assert.Equal(t, timeline.Position{Left: 800, Width: 80}, l.Bars[1].Position)
	assert.Equal(t, RowHeight, l.Bars[1].YOffset)
	assert.Equal(t, color.NotStartedHex, l.Bars[1].Color)
}

func TestBuild_ModeOverride(t *testing.T) {
	now := date(2025, 1, 1)
	l, err := Build(newProject(now), timeline.ViewModeMonth, now, time.Sunday)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 12, 1), l.Range.Start)
	require.Len(t, l.Columns, 2)
	assert.Equal(t, "Jan 2025", l.Columns[1].Header)
	assert.Equal(t, 240, l.TotalWidth)

	_, err = Build(newProject(now), "year", now, time.Sunday)
	assert.Error(t, err)
}

func TestBuild_Empty(t *testing.T) {
	now := date(2025, 1, 15) // Wednesday
	l, err := Build(project.Default("p", "", now), timeline.ViewModeDay, now, time.Sunday)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 12), l.Range.Start)
	assert.GreaterOrEqual(t, len(l.Columns), 30)
	assert.Empty(t, l.Bars)
	assert.Contains(t, Render(l), "no tasks")
}

func TestRender(t *testing.T) {
	now := date(2025, 1, 1)
	l, err := Build(newProject(now), timeline.ViewModeDay, now, time.Sunday)
	require.NoError(t, err)

	out := Render(l, WithSelected("t2"))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Dec 29")
	assert.Contains(t, lines[1], "Design")
	assert.Contains(t, lines[1], "█")
	assert.Contains(t, lines[1], "░")
	assert.Contains(t, lines[2], "> Build")
	assert.Contains(t, lines[3], "day view")

	clipped := Render(l, WithWidth(labelWidth+1+8))
	for _, line := range strings.Split(clipped, "\n")[:3] {
		assert.LessOrEqual(t, lipgloss.Width(line), labelWidth+1+8)
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, -1, floorDiv(-5, 10))
	assert.Equal(t, 0, floorDiv(5, 10))
	assert.Equal(t, -2, floorDiv(-20, 10))
}
