package pushnotification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kazz187/taskgantt/internal/eventbus"
	"github.com/kazz187/taskgantt/internal/store"
	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/pkg/panicerr"
)

// Dispatcher notifies subscribers once when a task becomes delayed. Tasks
// can become delayed through an edit or simply because time passed, so it
// both follows store events and re-derives statuses on a ticker.
type Dispatcher struct {
	store    *store.Store
	notifier Notifier
	interval time.Duration

	notified map[string]bool
}

func NewDispatcher(s *store.Store, notifier Notifier, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Dispatcher{
		store:    s,
		notifier: notifier,
		interval: interval,
		notified: make(map[string]bool),
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	subID, ch := d.store.Subscribe(256)
	defer d.store.Unsubscribe(subID)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "push notification dispatcher started", "interval", d.interval)
	d.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "push notification dispatcher stopped")
			return nil
		case <-ticker.C:
			d.store.RefreshStatuses(ctx)
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			d.handle(ctx, event)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, event eventbus.Event) {
	switch event.Type {
	case eventbus.EventTaskCreated, eventbus.EventTaskUpdated, eventbus.EventTaskDelayed:
		d.scan(ctx)
	case eventbus.EventTaskDeleted:
		delete(d.notified, event.ResourceID)
	case eventbus.EventProjectLoaded, eventbus.EventProjectImported, eventbus.EventProjectCleared:
		d.notified = make(map[string]bool)
		d.scan(ctx)
	}
}

// scan sends one notification per task that is delayed and was not yet
// reported, and forgets tasks that are no longer delayed.
func (d *Dispatcher) scan(ctx context.Context) {
	state := d.store.Snapshot()
	for _, t := range state.Project.Tasks {
		if t.Status() != task.StatusDelayed {
			delete(d.notified, t.ID)
			continue
		}
		if d.notified[t.ID] {
			continue
		}
		d.notified[t.ID] = true
		payload := &NotificationPayload{
			Title: "Task delayed",
			Body:  fmt.Sprintf("%s (%d%%) was due %s", t.Title, t.Progress, t.EndDate.Format("Jan 2, 2006")),
			URL:   "/tasks/" + t.ID,
			Tag:   t.ID,
		}
		panicerr.Go(func() { d.notifier.SendToAll(ctx, payload) }, func(err error) {
			slog.ErrorContext(ctx, "push notification: sender panicked", "task_id", payload.Tag, "error", err)
		})
	}
}
