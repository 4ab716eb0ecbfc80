package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttributes(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, "task_id", "01J")
	AddAttributes(ctx, map[string]any{"req": map[string]any{"a": 1}})
	AddAttributes(ctx, map[string]any{"req": map[string]any{"b": 2}})
	boom := errors.New("boom")
	AddError(ctx, boom)
	AddStack(ctx, "main.go:1")

	assert.Equal(t, map[string]any{
		"task_id":         "01J",
		"req":             map[string]any{"a": 1, "b": 2},
		ErrorAttributeKey: boom,
		StackAttributeKey: "main.go:1",
	}, GetAttributes(ctx))

	// no bag installed
	AddAttribute(context.Background(), "x", 1)
	assert.Nil(t, GetAttributes(context.Background()))
}

func TestContextAttributes_ScalarReplacesMap(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{"req": map[string]any{"a": 1}})
	AddAttribute(ctx, "req", "flat")
	assert.Equal(t, "flat", GetAttributes(ctx)["req"])

	got := GetAttributes(ctx)
	got["req"] = "changed"
	assert.Equal(t, "flat", GetAttributes(ctx)["req"])
}

func TestConnectCodeToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, ConnectCodeToLevel(connect.CodeNotFound))
	assert.Equal(t, LevelInfo, ConnectCodeToLevel(connect.CodeInvalidArgument))
	assert.Equal(t, LevelError, ConnectCodeToLevel(connect.CodeInternal))
	assert.Equal(t, LevelError, ConnectCodeToLevel(connect.Code(99)))
}

func TestHTTPStatusToLevel(t *testing.T) {
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(http.StatusOK))
	assert.Equal(t, LevelWarn, HTTPStatusToLevel(http.StatusNotFound))
	assert.Equal(t, LevelInfo, HTTPStatusToLevel(499))
	assert.Equal(t, LevelError, HTTPStatusToLevel(http.StatusInternalServerError))
}

func TestTextHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewAttributesHandler(NewTextHandler(buf, WithColor(false), WithLevel(slog.LevelInfo))))

	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, "method", "GET")
	AddError(ctx, errors.New("boom"))
	logger.DebugContext(ctx, "hidden")
	logger.With("component", "saver").InfoContext(ctx, "saved", "version", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "INFO GET saved boom")
	assert.Equal(t, "    component=saver", lines[1])
	assert.Equal(t, "    version=3", lines[2])
}

func TestSlogChiMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(NewAttributesHandler(slog.NewJSONHandler(buf, nil))))
	t.Cleanup(func() { slog.SetDefault(prev) })

	r := chi.NewRouter()
	r.Use(SlogChiMiddleware(WithChiFilter(func(r *http.Request) bool {
		return r.URL.Path != "/health"
	})))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"path":"/missing"`)
}
