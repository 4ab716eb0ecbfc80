package event

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kazz187/taskgantt/internal/eventbus"
)

// Logger appends events to one NDJSON file per day.
type Logger struct {
	logDir string
	now    func() time.Time
	mu     sync.Mutex
}

type logEntry struct {
	eventbus.Event
	LoggedAt time.Time `json:"loggedAt"`
}

func NewLogger(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create event log directory: %w", err)
	}
	return &Logger{logDir: logDir, now: time.Now}, nil
}

func logFileName(day time.Time) string {
	return fmt.Sprintf("events_%s.ndjson", day.UTC().Format(time.DateOnly))
}

func (l *Logger) LogEvent(event eventbus.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(logEntry{Event: event, LoggedAt: l.now()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(l.logDir, logFileName(event.CreatedAt)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event log: %w", err)
	}
	return nil
}

// Run logs every event from source until ctx is done.
func (l *Logger) Run(ctx context.Context, source Source) error {
	subID, ch := source.Subscribe(256)
	defer source.Unsubscribe(subID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if err := l.LogEvent(event); err != nil {
				slog.ErrorContext(ctx, "failed to log event", "event_id", event.ID, "error", err)
			}
		}
	}
}

// ReadEvents returns the events logged for day, oldest first. Lines that do
// not parse are skipped.
func (l *Logger) ReadEvents(day time.Time) ([]eventbus.Event, error) {
	data, err := os.ReadFile(filepath.Join(l.logDir, logFileName(day)))
	if err != nil {
		if os.IsNotExist(err) {
			return []eventbus.Event{}, nil
		}
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}

	events := []eventbus.Event{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e logEntry
		if err := json.Unmarshal(line, &e); err != nil {
			slog.Warn("skipping unreadable event log line", "error", err)
			continue
		}
		events = append(events, e.Event)
	}
	return events, sc.Err()
}

func (l *Logger) ReadEventsByType(day time.Time, eventType eventbus.EventType) ([]eventbus.Event, error) {
	all, err := l.ReadEvents(day)
	if err != nil {
		return nil, err
	}
	filtered := []eventbus.Event{}
	for _, e := range all {
		if e.Type == eventType {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
