package task

import (
	"slices"
	"time"

	"github.com/kazz187/taskgantt/internal/timeline"
)

type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusDelayed    Status = "delayed"
)

// Task is a scheduled unit of work. Status is derived from Progress, EndDate
// and the clock and is only refreshed through the methods below.
type Task struct {
	ID           string
	Title        string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	Progress     int
	Dependencies []string // stored only, never scheduled against
	Color        string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	status Status
}

// DeriveStatus classifies a task. Completed and not-started win over delayed;
// only partially done tasks past their end date are delayed.
func DeriveStatus(progress int, end, now time.Time) Status {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress <= 0:
		return StatusNotStarted
	case now.After(end):
		return StatusDelayed
	default:
		return StatusInProgress
	}
}

func (t *Task) Status() Status {
	return t.status
}

// Refresh re-derives the status against now without touching UpdatedAt.
func (t *Task) Refresh(now time.Time) {
	t.status = DeriveStatus(t.Progress, t.EndDate, now)
}

func (t *Task) Span() timeline.Span {
	return timeline.Span{Start: t.StartDate, End: t.EndDate}
}

func (t *Task) Clone() *Task {
	c := *t
	c.Dependencies = slices.Clone(t.Dependencies)
	return &c
}

type CreateRequest struct {
	Title        string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	Progress     int
	Dependencies []string
	Color        string
}

// DefaultCreateRequest returns the values a new task form starts with: a
// week long span starting today and no progress.
func DefaultCreateRequest(now time.Time) CreateRequest {
	today := timeline.StartOfDay(now.UTC())
	return CreateRequest{
		StartDate: today,
		EndDate:   timeline.AddDays(today, 7),
	}
}

func New(id string, req CreateRequest, now time.Time) *Task {
	t := &Task{
		ID:           id,
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Progress:     req.Progress,
		Dependencies: slices.Clone(req.Dependencies),
		Color:        req.Color,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
	t.Refresh(now)
	return t
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Title        *string
	Description  *string
	StartDate    *time.Time
	EndDate      *time.Time
	Progress     *int
	Dependencies *[]string
	Color        *string
}

func (r UpdateRequest) Empty() bool {
	return r == UpdateRequest{}
}

// Apply merges req into t, re-derives the status and bumps UpdatedAt.
func (t *Task) Apply(req UpdateRequest, now time.Time) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.StartDate != nil {
		t.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		t.EndDate = *req.EndDate
	}
	if req.Progress != nil {
		t.Progress = *req.Progress
	}
	if req.Dependencies != nil {
		t.Dependencies = slices.Clone(*req.Dependencies)
	}
	if req.Color != nil {
		t.Color = *req.Color
	}
	t.UpdatedAt = now
	t.Refresh(now)
}

// Shift moves both dates by days calendar days.
func (t *Task) Shift(days int, now time.Time) {
	t.StartDate = timeline.AddDays(t.StartDate, days)
	t.EndDate = timeline.AddDays(t.EndDate, days)
	t.UpdatedAt = now
	t.Refresh(now)
}

// FormatDateRange renders a span the way the task list shows it,
// e.g. "Jan 5 - Jan 10, 2025".
func FormatDateRange(start, end time.Time) string {
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}
