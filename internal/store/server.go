package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"github.com/go-chi/chi/v5"

	"github.com/kazz187/taskgantt/internal/chart"
	"github.com/kazz187/taskgantt/internal/project"
	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/internal/timeline"
	"github.com/kazz187/taskgantt/pkg/cerr"
)

// MaxImportSize bounds the body of an import request.
const MaxImportSize = 10 << 20

// Server exposes a Store over JSON HTTP.
type Server struct {
	store     *Store
	weekStart time.Weekday
}

func NewServer(store *Store, weekStart time.Weekday) *Server {
	return &Server{
		store:     store,
		weekStart: weekStart,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/project", s.GetProject)
	r.Delete("/project", s.ClearProject)
	r.Get("/timeline", s.GetTimeline)
	r.Get("/export", s.ExportProject)
	r.Post("/import", s.ImportProject)

	r.Post("/tasks", s.CreateTask)
	r.Patch("/tasks/{id}", s.UpdateTask)
	r.Delete("/tasks/{id}", s.DeleteTask)
	r.Post("/tasks/{id}/move", s.MoveTask)

	r.Put("/view-mode", s.SetViewMode)
	r.Put("/selection", s.SelectTask)
	r.Delete("/selection", s.ClearSelection)
}

type projectResponse struct {
	Project        json.RawMessage `json:"project"`
	SelectedTaskID string          `json:"selectedTaskId,omitempty"`
	Version        uint64          `json:"version"`
}

type timelineResponse struct {
	*chart.Layout
	SelectedTaskID string `json:"selectedTaskId,omitempty"`
	Version        uint64 `json:"version"`
}

type taskRequest struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	StartDate    *string   `json:"startDate"`
	EndDate      *string   `json:"endDate"`
	Progress     *int      `json:"progress"`
	Dependencies *[]string `json:"dependencies"`
	Color        *string   `json:"color"`
}

type moveTaskRequest struct {
	Days    *int     `json:"days"`
	DeltaPx *float64 `json:"deltaPx"`
}

type viewModeRequest struct {
	ViewMode string `json:"viewMode"`
}

type selectionRequest struct {
	TaskID string `json:"taskId"`
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

func parseDateField(ruleID string, s *string, vs *[]*validate.Violation) *time.Time {
	if s == nil {
		return nil
	}
	t, err := task.ParseDate(*s)
	if err != nil {
		*vs = append(*vs, cerr.Violation(ruleID, err.Error()))
		return nil
	}
	return &t
}

func (req taskRequest) toUpdate() (task.UpdateRequest, error) {
	var vs []*validate.Violation
	u := task.UpdateRequest{
		Title:        req.Title,
		Description:  req.Description,
		StartDate:    parseDateField("start_date.format", req.StartDate, &vs),
		EndDate:      parseDateField("end_date.format", req.EndDate, &vs),
		Progress:     req.Progress,
		Dependencies: req.Dependencies,
		Color:        req.Color,
	}
	if len(vs) > 0 {
		return task.UpdateRequest{}, cerr.NewValidationError("invalid task", vs)
	}
	return u, nil
}

// toCreate fills the fields req leaves out with the new task form defaults.
func (req taskRequest) toCreate(now time.Time) (task.CreateRequest, error) {
	u, err := req.toUpdate()
	if err != nil {
		return task.CreateRequest{}, err
	}
	c := task.DefaultCreateRequest(now)
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.StartDate != nil {
		c.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		c.EndDate = *u.EndDate
	}
	if u.Progress != nil {
		c.Progress = *u.Progress
	}
	if u.Dependencies != nil {
		c.Dependencies = *u.Dependencies
	}
	if u.Color != nil {
		c.Color = *u.Color
	}
	return c, nil
}

func taskResponse(t *task.Task) (json.RawMessage, error) {
	data, err := project.EncodeTask(t)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", err)
	}
	return data, nil
}

func (s *Server) setTaskResponse(r *http.Request, status int, t *task.Task) {
	data, err := taskResponse(t)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponseWithStatus(r.Context(), status, data)
}

func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	state := s.store.Snapshot()
	data, err := project.Encode(state.Project)
	if err != nil {
		cerr.SetNewJSONError(r.Context(), cerr.Internal, "server error", err)
		return
	}
	cerr.SetJSONResponse(r.Context(), &projectResponse{
		Project:        data,
		SelectedTaskID: state.SelectedTaskID,
		Version:        state.Version,
	})
}

func (s *Server) GetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var mode timeline.ViewMode
	if q := r.URL.Query().Get("mode"); q != "" {
		m, err := timeline.ParseViewMode(q)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid view mode", err)
			return
		}
		mode = m
	}
	state := s.store.Snapshot()
	layout, err := chart.Build(state.Project, mode, s.store.Now(), s.weekStart)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}
	cerr.SetJSONResponse(ctx, &timelineResponse{
		Layout:         layout,
		SelectedTaskID: state.SelectedTaskID,
		Version:        state.Version,
	})
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req taskRequest
	if err := decodeBody(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	c, err := req.toCreate(s.store.Now())
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := task.ValidateCreate(c); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.store.CreateTask(ctx, c)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.setTaskResponse(r, http.StatusCreated, t)
}

func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	var req taskRequest
	if err := decodeBody(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	u, err := req.toUpdate()
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	current, err := s.store.Task(id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := task.ValidateUpdate(current, u); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.store.UpdateTask(ctx, id, u)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.setTaskResponse(r, http.StatusOK, t)
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.store.DeleteTask(ctx, chi.URLParam(r, "id")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct{}{})
}

// MoveTask shifts a task either by whole days or by a drag distance in
// pixels of the current view mode.
func (s *Server) MoveTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req moveTaskRequest
	if err := decodeBody(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var days int
	switch {
	case req.Days != nil:
		days = *req.Days
	case req.DeltaPx != nil:
		mode := s.store.Snapshot().Project.ViewMode
		days = timeline.DragDays(*req.DeltaPx, timeline.ColumnWidth(mode))
	default:
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "days or deltaPx is required", nil)
		return
	}
	t, err := s.store.MoveTask(ctx, chi.URLParam(r, "id"), days)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.setTaskResponse(r, http.StatusOK, t)
}

func (s *Server) SetViewMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req viewModeRequest
	if err := decodeBody(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	mode, err := timeline.ParseViewMode(req.ViewMode)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid view mode", err)
		return
	}
	if err := s.store.SetViewMode(ctx, mode); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &viewModeRequest{ViewMode: string(mode)})
}

func (s *Server) SelectTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req selectionRequest
	if err := decodeBody(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if req.TaskID == "" {
		s.store.ClearSelection(ctx)
		cerr.SetJSONResponse(ctx, &selectionRequest{})
		return
	}
	if err := s.store.SelectTask(ctx, req.TaskID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &req)
}

func (s *Server) ClearSelection(w http.ResponseWriter, r *http.Request) {
	s.store.ClearSelection(r.Context())
	cerr.SetJSONResponse(r.Context(), &selectionRequest{})
}

// ExportProject writes the indented project document as a download.
func (s *Server) ExportProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := s.store.Export(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	name := fmt.Sprintf("gantt-project-%s.json", s.store.Now().UTC().Format(time.DateOnly))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) ImportProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImportSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "import is too large", err)
			return
		}
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if _, err := s.store.Import(ctx, data); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.GetProject(w, r)
}

func (s *Server) ClearProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	s.GetProject(w, r)
}
