package project

import (
	"time"

	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/internal/timeline"
)

const DefaultName = "My Gantt Project"

// Project is the single live aggregate. Task order is display order.
type Project struct {
	ID        string
	Name      string
	Tasks     []*task.Task
	ViewMode  timeline.ViewMode
	CreatedAt time.Time
	UpdatedAt time.Time
}

func Default(id, name string, now time.Time) *Project {
	if name == "" {
		name = DefaultName
	}
	return &Project{
		ID:        id,
		Name:      name,
		Tasks:     []*task.Task{},
		ViewMode:  timeline.ViewModeWeek,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Project) Clone() *Project {
	c := *p
	c.Tasks = make([]*task.Task, len(p.Tasks))
	for i, t := range p.Tasks {
		c.Tasks[i] = t.Clone()
	}
	return &c
}

// FindTask returns the index of the task with id, or -1.
func (p *Project) FindTask(id string) int {
	for i, t := range p.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (p *Project) Spans() []timeline.Span {
	spans := make([]timeline.Span, len(p.Tasks))
	for i, t := range p.Tasks {
		spans[i] = t.Span()
	}
	return spans
}

// Refresh re-derives every task status against now.
func (p *Project) Refresh(now time.Time) {
	for _, t := range p.Tasks {
		t.Refresh(now)
	}
}
