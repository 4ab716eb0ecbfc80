// Package chart lays a project out as a Gantt chart: columns, bars and the
// today marker, in the pixel units the web UI draws with. Render turns the
// same layout into terminal output.
package chart

import (
	"time"

	"github.com/kazz187/taskgantt/internal/project"
	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/internal/timeline"
	"github.com/kazz187/taskgantt/pkg/color"
)

// RowHeight is the vertical distance between two bars.
const RowHeight = 60

type Column struct {
	Start  time.Time `json:"start"`
	Header string    `json:"header"`
}

type Bar struct {
	TaskID    string            `json:"taskId"`
	Title     string            `json:"title"`
	Position  timeline.Position `json:"position"`
	YOffset   int               `json:"yOffset"`
	Status    task.Status       `json:"status"`
	Color     string            `json:"color"`
	TaskColor string            `json:"taskColor"`
	Progress  int               `json:"progress"`
	DateRange string            `json:"dateRange"`
	Span      timeline.Span     `json:"-"`
}

type Layout struct {
	ViewMode    timeline.ViewMode `json:"viewMode"`
	Range       timeline.Range    `json:"range"`
	ColumnWidth int               `json:"columnWidth"`
	TotalWidth  int               `json:"totalWidth"`
	Columns     []Column          `json:"columns"`
	Today       timeline.Position `json:"today"`
	Bars        []Bar             `json:"bars"`
}

// Build computes the chart for p. An empty mode uses the project's own view
// mode.
func Build(p *project.Project, mode timeline.ViewMode, now time.Time, weekStart time.Weekday) (*Layout, error) {
	if mode == "" {
		mode = p.ViewMode
	}
	if _, err := timeline.ParseViewMode(string(mode)); err != nil {
		return nil, err
	}
	now = now.UTC()

	r := timeline.Resolve(p.Spans(), mode, now, weekStart)
	anchors, err := timeline.Columns(r, mode, weekStart)
	if err != nil {
		return nil, err
	}
	w := timeline.ColumnWidth(mode)

	l := &Layout{
		ViewMode:    mode,
		Range:       r,
		ColumnWidth: w,
		TotalWidth:  timeline.TotalWidth(len(anchors), mode),
		Columns:     make([]Column, len(anchors)),
		Today:       timeline.CalculatePosition(now, now, r.Start, w),
		Bars:        make([]Bar, len(p.Tasks)),
	}
	for i, a := range anchors {
		l.Columns[i] = Column{Start: a, Header: timeline.FormatColumnHeader(a, mode)}
	}
	for i, t := range p.Tasks {
		status := t.Status()
		l.Bars[i] = Bar{
			TaskID:    t.ID,
			Title:     t.Title,
			Position:  timeline.CalculatePosition(t.StartDate, t.EndDate, r.Start, w),
			YOffset:   i * RowHeight,
			Status:    status,
			Color:     color.StatusHex(string(status)),
			TaskColor: color.TaskHex(t.ID, t.Color),
			Progress:  t.Progress,
			DateRange: task.FormatDateRange(t.StartDate, t.EndDate),
			Span:      t.Span(),
		}
	}
	return l, nil
}
