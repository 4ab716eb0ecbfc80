package store

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskgantt/pkg/cerr"
)

type apiClient struct {
	t *testing.T
	h http.Handler
}

func newAPIClient(t *testing.T, s *Store) *apiClient {
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	NewServer(s, time.Sunday).Routes(r)
	return &apiClient{t: t, h: r}
}

func (c *apiClient) do(method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type taskBody struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Progress  int    `json:"progress"`
	Status    string `json:"status"`
}

type projectBody struct {
	Project struct {
		ID       string     `json:"id"`
		ViewMode string     `json:"viewMode"`
		Tasks    []taskBody `json:"tasks"`
	} `json:"project"`
	SelectedTaskID string `json:"selectedTaskId"`
	Version        uint64 `json:"version"`
}

type errorBody struct {
	Code    string `json:"code"`
	Details []struct {
		RuleID string `json:"ruleId"`
	} `json:"details"`
}

func (e errorBody) ruleIDs() []string {
	var ids []string
	for _, d := range e.Details {
		ids = append(ids, d.RuleID)
	}
	return ids
}

func TestServer_TaskLifecycle(t *testing.T) {
	s, _ := newTestStore(t, &memRepo{}, time.Hour)
	c := newAPIClient(t, s)

	rec := c.do(http.MethodPost, "/tasks", `{"title":"Design","startDate":"2025-01-05","endDate":"2025-01-10","progress":50}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[taskBody](t, rec)
	assert.Equal(t, "Design", created.Title)
	assert.Equal(t, "2025-01-05T00:00:00.000Z", created.StartDate)
	assert.Equal(t, "in-progress", created.Status)

	rec = c.do(http.MethodPatch, "/tasks/"+created.ID, `{"progress":100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completed", decode[taskBody](t, rec).Status)

	rec = c.do(http.MethodPatch, "/tasks/"+created.ID, `{"endDate":"2025-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"end_date.after_start"}, decode[errorBody](t, rec).ruleIDs())

	// 100px in week view is 1.25 columns, rounded to one day
	rec = c.do(http.MethodPost, "/tasks/"+created.ID+"/move", `{"deltaPx":100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[taskBody](t, rec)
	assert.Equal(t, "2025-01-06T00:00:00.000Z", moved.StartDate)
	assert.Equal(t, "2025-01-11T00:00:00.000Z", moved.EndDate)

	rec = c.do(http.MethodPost, "/tasks/"+created.ID+"/move", `{"days":-2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-01-04T00:00:00.000Z", decode[taskBody](t, rec).StartDate)

	rec = c.do(http.MethodPost, "/tasks/"+created.ID+"/move", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodDelete, "/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodDelete, "/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_CreateDefaultsAndValidation(t *testing.T) {
	s, _ := newTestStore(t, &memRepo{}, time.Hour)
	c := newAPIClient(t, s)

	rec := c.do(http.MethodPost, "/tasks", `{"title":"Defaults"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[taskBody](t, rec)
	assert.Equal(t, "2025-01-07T00:00:00.000Z", got.StartDate)
	assert.Equal(t, "2025-01-14T00:00:00.000Z", got.EndDate)
	assert.Equal(t, "not-started", got.Status)

	rec = c.do(http.MethodPost, "/tasks", `{"title":"","startDate":"2025-01-10","endDate":"2025-01-05","progress":120}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decode[errorBody](t, rec)
	assert.Equal(t, "invalid_argument", e.Code)
	assert.ElementsMatch(t, []string{"title.required", "end_date.after_start", "progress.range"}, e.ruleIDs())

	rec = c.do(http.MethodPost, "/tasks", `{"title":"x","startDate":"tomorrow"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"start_date.format"}, decode[errorBody](t, rec).ruleIDs())

	rec = c.do(http.MethodPost, "/tasks", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, s.Snapshot().Project.Tasks, 1)
}

func TestServer_ViewModeSelectionAndTimeline(t *testing.T) {
	s, _ := newTestStore(t, &memRepo{}, time.Hour)
	c := newAPIClient(t, s)
	created, err := s.CreateTask(t.Context(), createReq("a", 10))
	require.NoError(t, err)

	rec := c.do(http.MethodPut, "/view-mode", `{"viewMode":"month"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodPut, "/view-mode", `{"viewMode":"year"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPut, "/selection", `{"taskId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = c.do(http.MethodPut, "/selection", `{"taskId":"`+created.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/project", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[projectBody](t, rec)
	assert.Equal(t, "month", p.Project.ViewMode)
	assert.Equal(t, created.ID, p.SelectedTaskID)

	rec = c.do(http.MethodGet, "/timeline", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var layout struct {
		ViewMode       string `json:"viewMode"`
		ColumnWidth    int    `json:"columnWidth"`
		SelectedTaskID string `json:"selectedTaskId"`
		Bars           []struct {
			TaskID   string `json:"taskId"`
			Position struct {
				Left  int `json:"left"`
				Width int `json:"width"`
			} `json:"position"`
		} `json:"bars"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layout))
	assert.Equal(t, "month", layout.ViewMode)
	assert.Equal(t, 120, layout.ColumnWidth)
	assert.Equal(t, created.ID, layout.SelectedTaskID)
	require.Len(t, layout.Bars, 1)
	assert.Equal(t, 6*120, layout.Bars[0].Position.Width)

	rec = c.do(http.MethodGet, "/timeline?mode=day", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"columnWidth":40`)
	rec = c.do(http.MethodGet, "/timeline?mode=year", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodDelete, "/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.Selected())
}

func TestServer_ExportImportClear(t *testing.T) {
	repo := &memRepo{}
	s, _ := newTestStore(t, repo, time.Hour)
	c := newAPIClient(t, s)
	_, err := s.CreateTask(t.Context(), createReq("keep me", 30))
	require.NoError(t, err)

	rec := c.do(http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="gantt-project-2025-01-07.json"`, rec.Header().Get("Content-Disposition"))
	exported := rec.Body.String()
	assert.Contains(t, exported, "\n  \"name\"")

	rec = c.do(http.MethodPost, "/import", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, s.Snapshot().Project.Tasks, 1)

	rec = c.do(http.MethodDelete, "/project", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[projectBody](t, rec).Project.Tasks)

	rec = c.do(http.MethodPost, "/import", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[projectBody](t, rec)
	require.Len(t, p.Project.Tasks, 1)
	assert.Equal(t, "keep me", p.Project.Tasks[0].Title)

	data, _ := repo.snapshot()
	assert.Contains(t, string(data), "keep me")
}
