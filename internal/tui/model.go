// Package tui is an interactive terminal Gantt chart over a Store.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kazz187/taskgantt/internal/chart"
	"github.com/kazz187/taskgantt/internal/eventbus"
	"github.com/kazz187/taskgantt/internal/store"
	"github.com/kazz187/taskgantt/internal/timeline"
	"github.com/kazz187/taskgantt/pkg/color"
)

const scrollStep = 8

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(color.DelayedHex))
)

const helpText = "d/w/m view  j/k select  h/l move  H/L scroll  t today  esc deselect  q quit"

type storeEventMsg eventbus.Event

type model struct {
	ctx       context.Context
	store     *store.Store
	weekStart time.Weekday

	subID  string
	events <-chan eventbus.Event

	state  store.State
	layout *chart.Layout
	width  int
	scroll int
	err    error
}

// New returns the bubbletea model. It subscribes to s; the subscription is
// released when the model quits.
func New(ctx context.Context, s *store.Store, weekStart time.Weekday) tea.Model {
	subID, events := s.Subscribe(64)
	m := model{
		ctx:       ctx,
		store:     s,
		weekStart: weekStart,
		subID:     subID,
		events:    events,
	}
	m.refresh()
	return m
}

func waitForEvent(events <-chan eventbus.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return storeEventMsg(e)
	}
}

func (m *model) refresh() {
	m.state = m.store.Snapshot()
	layout, err := chart.Build(m.state.Project, "", m.store.Now(), m.weekStart)
	if err != nil {
		m.err = err
		return
	}
	m.layout = layout
	m.scroll = min(m.scroll, max(layout.Cells()-1, 0))
}

func (m model) Init() tea.Cmd { return waitForEvent(m.events) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case storeEventMsg:
		m.refresh()
		return m, waitForEvent(m.events)

	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "ctrl+c", "q":
			m.store.Unsubscribe(m.subID)
			return m, tea.Quit
		case "d":
			m.err = m.store.SetViewMode(m.ctx, timeline.ViewModeDay)
		case "w":
			m.err = m.store.SetViewMode(m.ctx, timeline.ViewModeWeek)
		case "m":
			m.err = m.store.SetViewMode(m.ctx, timeline.ViewModeMonth)
		case "j", "down":
			m.err = m.moveSelection(1)
		case "k", "up":
			m.err = m.moveSelection(-1)
		case "h", "left":
			m.err = m.shiftSelected(-1)
		case "l", "right":
			m.err = m.shiftSelected(1)
		case "H":
			m.scroll = max(m.scroll-scrollStep, 0)
		case "L":
			if m.layout != nil {
				m.scroll = min(m.scroll+scrollStep, max(m.layout.Cells()-1, 0))
			}
		case "t":
			if m.layout != nil {
				m.scroll = max(m.layout.TodayCell()-scrollStep, 0)
			}
		case "esc":
			m.store.ClearSelection(m.ctx)
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m *model) moveSelection(delta int) error {
	tasks := m.state.Project.Tasks
	if len(tasks) == 0 {
		return nil
	}
	i := m.state.Project.FindTask(m.state.SelectedTaskID)
	switch {
	case i < 0 && delta > 0:
		i = 0
	case i < 0:
		i = len(tasks) - 1
	default:
		i = min(max(i+delta, 0), len(tasks)-1)
	}
	return m.store.SelectTask(m.ctx, tasks[i].ID)
}

func (m *model) shiftSelected(days int) error {
	if m.state.SelectedTaskID == "" {
		return nil
	}
	_, err := m.store.MoveTask(m.ctx, m.state.SelectedTaskID, days)
	return err
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.state.Project.Name))
	b.WriteString("\n\n")
	if m.layout != nil {
		b.WriteString(chart.Render(m.layout,
			chart.WithSelected(m.state.SelectedTaskID),
			chart.WithWidth(m.width),
			chart.WithScroll(m.scroll),
		))
	}
	b.WriteString("\n\n")
	if i := m.state.Project.FindTask(m.state.SelectedTaskID); i >= 0 && m.layout != nil {
		t := m.state.Project.Tasks[i]
		fmt.Fprintf(&b, "%s %s  %s  %d%%\n", color.StatusLabel(string(t.Status())), t.Title,
			m.layout.Bars[i].DateRange, t.Progress)
	}
	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(helpText))
	return b.String()
}
