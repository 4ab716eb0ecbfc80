package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"

	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/internal/timeline"
	"github.com/kazz187/taskgantt/pkg/cerr"
)

// ErrInvalidImport marks data that is not a well formed project document.
var ErrInvalidImport = errors.New("invalid project data")

// DateLayout is the wire form of every date field: UTC with milliseconds.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// Date is a time that encodes as an ISO-8601 UTC millisecond string. Only
// fields declared as Date are ever parsed as dates.
type Date time.Time

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).UTC().Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*d = Date(t.UTC())
	return nil
}

type wireProject struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Tasks     []wireTask `json:"tasks"`
	ViewMode  string     `json:"viewMode"`
	CreatedAt Date       `json:"createdAt"`
	UpdatedAt Date       `json:"updatedAt"`
}

type wireTask struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	StartDate    Date     `json:"startDate"`
	EndDate      Date     `json:"endDate"`
	Progress     int      `json:"progress"`
	Status       string   `json:"status"`
	Dependencies []string `json:"dependencies"`
	Color        string   `json:"color,omitempty"`
	CreatedAt    Date     `json:"createdAt"`
	UpdatedAt    Date     `json:"updatedAt"`
}

func toWire(p *Project) wireProject {
	w := wireProject{
		ID:        p.ID,
		Name:      p.Name,
		Tasks:     make([]wireTask, len(p.Tasks)),
		ViewMode:  string(p.ViewMode),
		CreatedAt: Date(p.CreatedAt),
		UpdatedAt: Date(p.UpdatedAt),
	}
	for i, t := range p.Tasks {
		w.Tasks[i] = toWireTask(t)
	}
	return w
}

func toWireTask(t *task.Task) wireTask {
	deps := t.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return wireTask{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		StartDate:    Date(t.StartDate),
		EndDate:      Date(t.EndDate),
		Progress:     t.Progress,
		Status:       string(t.Status()),
		Dependencies: deps,
		Color:        t.Color,
		CreatedAt:    Date(t.CreatedAt),
		UpdatedAt:    Date(t.UpdatedAt),
	}
}

func fromWire(w wireProject, now time.Time) *Project {
	p := &Project{
		ID:        w.ID,
		Name:      w.Name,
		Tasks:     make([]*task.Task, len(w.Tasks)),
		ViewMode:  timeline.ViewMode(w.ViewMode),
		CreatedAt: time.Time(w.CreatedAt),
		UpdatedAt: time.Time(w.UpdatedAt),
	}
	for i, wt := range w.Tasks {
		deps := wt.Dependencies
		if deps == nil {
			deps = []string{}
		}
		// the encoded status is informational; it is derived again here
		p.Tasks[i] = &task.Task{
			ID:           wt.ID,
			Title:        wt.Title,
			Description:  wt.Description,
			StartDate:    time.Time(wt.StartDate),
			EndDate:      time.Time(wt.EndDate),
			Progress:     wt.Progress,
			Dependencies: deps,
			Color:        wt.Color,
			CreatedAt:    time.Time(wt.CreatedAt),
			UpdatedAt:    time.Time(wt.UpdatedAt),
		}
	}
	p.Refresh(now)
	return p
}

// Encode returns the compact form written to the storage slot.
func Encode(p *Project) ([]byte, error) {
	return json.Marshal(toWire(p))
}

// EncodeTask encodes one task the way it appears inside a project document.
func EncodeTask(t *task.Task) ([]byte, error) {
	return json.Marshal(toWireTask(t))
}

// EncodeIndent returns the two-space indented export form.
func EncodeIndent(p *Project) ([]byte, error) {
	return json.MarshalIndent(toWire(p), "", "  ")
}

// Decode parses a project document. Malformed JSON and schema violations
// both return an InvalidArgument error wrapping ErrInvalidImport. Task
// statuses are derived against now.
func Decode(data []byte, now time.Time) (*Project, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, invalidImport(fmt.Errorf("parse json: %w", err), nil)
	}
	violations, err := validateDocument(doc)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", err)
	}
	if len(violations) > 0 {
		return nil, invalidImport(errors.New("schema validation failed"), violations)
	}

	var w wireProject
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, invalidImport(err, nil)
	}
	if vs := duplicateTaskIDs(w.Tasks); len(vs) > 0 {
		return nil, invalidImport(errors.New("duplicate task ids"), vs)
	}
	return fromWire(w, now), nil
}

// duplicateTaskIDs reports every task whose id was already used by an
// earlier task.
func duplicateTaskIDs(tasks []wireTask) []*validate.Violation {
	seen := make(map[string]bool, len(tasks))
	var vs []*validate.Violation
	for i, t := range tasks {
		if seen[t.ID] {
			vs = append(vs, cerr.Violation(fmt.Sprintf("/tasks/%d/id", i), fmt.Sprintf("duplicate task id %q", t.ID)))
			continue
		}
		seen[t.ID] = true
	}
	return vs
}

func invalidImport(err error, details []*validate.Violation) error {
	e := cerr.NewValidationError(ErrInvalidImport.Error(), details)
	e.Err = fmt.Errorf("%w: %w", ErrInvalidImport, err)
	return e
}
