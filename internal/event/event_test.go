package event

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskgantt/internal/eventbus"
)

func TestLogger_LogAndRead(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir)
	require.NoError(t, err)

	day := time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC)
	events := []eventbus.Event{
		{ID: "e1", Type: eventbus.EventTaskCreated, ResourceID: "t1", Version: 1, CreatedAt: day},
		{ID: "e2", Type: eventbus.EventTaskUpdated, ResourceID: "t1", Version: 2, CreatedAt: day},
		{ID: "e3", Type: eventbus.EventTaskCreated, ResourceID: "t2", Version: 3, CreatedAt: day.AddDate(0, 0, 1)},
	}
	for _, e := range events {
		require.NoError(t, l.LogEvent(e))
	}

	assert.FileExists(t, filepath.Join(dir, "events_2025-01-07.ndjson"))

	got, err := l.ReadEvents(day)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, uint64(2), got[1].Version)

	created, err := l.ReadEventsByType(day, eventbus.EventTaskCreated)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "t1", created[0].ResourceID)

	none, err := l.ReadEvents(day.AddDate(0, 0, -5))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLogger_SkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir)
	require.NoError(t, err)
	day := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(dir, logFileName(day)), []byte("{broken\n"), 0o644))
	require.NoError(t, l.LogEvent(eventbus.Event{ID: "ok", Type: eventbus.EventTaskDeleted, CreatedAt: day}))

	got, err := l.ReadEvents(day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
}

func TestLogger_Run(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	require.NoError(t, err)
	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, bus) }()

	var e eventbus.Event
	require.Eventually(t, func() bool {
		e = bus.PublishNew(eventbus.EventProjectSaved, "", 1)
		got, _ := l.ReadEvents(e.CreatedAt)
		return len(got) > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestServer_StreamsFilteredEvents(t *testing.T) {
	bus := eventbus.New()
	r := chi.NewRouter()
	NewServer(bus).Routes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?types=task.created", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	// the subscription is registered before headers are flushed
	bus.PublishNew(eventbus.EventTaskUpdated, "skip", 1)
	created := bus.PublishNew(eventbus.EventTaskCreated, "t1", 2)

	var got []string
	for line := range lines {
		if line == "" {
			break
		}
		got = append(got, line)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "id: "+created.ID, got[0])
	assert.Equal(t, "event: task.created", got[1])
	assert.True(t, strings.HasPrefix(got[2], "data: {"))
	assert.Contains(t, got[2], `"resourceId":"t1"`)
}
