package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskgantt/internal/config"
	"github.com/kazz187/taskgantt/internal/event"
	"github.com/kazz187/taskgantt/internal/eventbus"
	"github.com/kazz187/taskgantt/internal/project/repositoryimpl"
	"github.com/kazz187/taskgantt/internal/store"
	"github.com/kazz187/taskgantt/pkg/storage"
)

func newTestServer(t *testing.T, apiKey string) http.Handler {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	st := store.New(repositoryimpl.NewJSONRepository(local, ""), eventbus.New())
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	env := &config.BaseEnv{HTTPHost: "127.0.0.1", HTTPPort: "0", APIKey: apiKey}
	return NewServer(env, store.NewServer(st, time.Sunday), event.NewServer(st), nil).Handler()
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t, "")

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/project", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"My Gantt Project"`)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":"not_found","message":"not found"}`, rec.Body.String())

	// push routes are only mounted when configured
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/push/vapid-public-key", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_APIKey(t *testing.T) {
	h := newTestServer(t, "secret")

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/project", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/project", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/project", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/project", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)
}
