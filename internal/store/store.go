// Package store owns the live project. All mutations go through one Store,
// which versions them, publishes an event per change and hands snapshots to
// a coalescing Saver.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskgantt/internal/eventbus"
	"github.com/kazz187/taskgantt/internal/project"
	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/internal/timeline"
	"github.com/kazz187/taskgantt/pkg/cerr"
)

type Store struct {
	repo  project.Repository
	bus   *eventbus.Bus
	saver *Saver

	now         func() time.Time
	newID       func() string
	projectName string
	saveDelay   time.Duration

	mu       sync.Mutex
	project  *project.Project
	selected string
	version  uint64
}

// State is a deep copy of the store contents at Version.
type State struct {
	Project        *project.Project
	SelectedTaskID string
	Version        uint64
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

func WithProjectName(name string) Option {
	return func(s *Store) {
		s.projectName = name
	}
}

func WithSaveDelay(d time.Duration) Option {
	return func(s *Store) {
		s.saveDelay = d
	}
}

// New returns a store holding a default project. Call Load to replace it
// with the persisted one.
func New(repo project.Repository, bus *eventbus.Bus, opts ...Option) *Store {
	s := &Store{
		repo:      repo,
		bus:       bus,
		now:       time.Now,
		newID:     func() string { return ulid.Make().String() },
		saveDelay: DefaultSaveDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.saver = NewSaver(repo, s.saveDelay, func(version uint64) {
		s.bus.PublishNew(eventbus.EventProjectSaved, "", version)
	})
	s.project = project.Default(s.newID(), s.projectName, s.now())
	return s
}

func errTaskNotFound(id string) error {
	return cerr.NewError(cerr.NotFound, "task not found", fmt.Errorf("no task with id %q", id))
}

// commit bumps the version, publishes and schedules a save. Callers hold mu.
func (s *Store) commit(eventType eventbus.EventType, resourceID string) {
	s.version++
	s.bus.PublishNew(eventType, resourceID, s.version)
	s.saver.Request(s.version, s.project.Clone())
}

func (s *Store) CreateTask(_ context.Context, req task.CreateRequest) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	t := task.New(s.newID(), req, now)
	s.project.Tasks = append(s.project.Tasks, t)
	s.project.UpdatedAt = now
	s.commit(eventbus.EventTaskCreated, t.ID)
	return t.Clone(), nil
}

func (s *Store) UpdateTask(_ context.Context, id string, req task.UpdateRequest) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.project.FindTask(id)
	if i < 0 {
		return nil, errTaskNotFound(id)
	}
	now := s.now()
	t := s.project.Tasks[i]
	t.Apply(req, now)
	s.project.UpdatedAt = now
	s.commit(eventbus.EventTaskUpdated, id)
	return t.Clone(), nil
}

// MoveTask shifts a task by days, keeping its duration.
func (s *Store) MoveTask(_ context.Context, id string, days int) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.project.FindTask(id)
	if i < 0 {
		return nil, errTaskNotFound(id)
	}
	now := s.now()
	t := s.project.Tasks[i]
	t.Shift(days, now)
	s.project.UpdatedAt = now
	s.commit(eventbus.EventTaskUpdated, id)
	return t.Clone(), nil
}

// DeleteTask removes a task and clears the selection if it pointed at it.
func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.project.FindTask(id)
	if i < 0 {
		return errTaskNotFound(id)
	}
	s.project.Tasks = append(s.project.Tasks[:i], s.project.Tasks[i+1:]...)
	s.project.UpdatedAt = s.now()
	if s.selected == id {
		s.selected = ""
		s.bus.PublishNew(eventbus.EventSelectionChanged, "", s.version)
	}
	s.commit(eventbus.EventTaskDeleted, id)
	return nil
}

// SetViewMode switches the granularity. Task statuses are left alone.
func (s *Store) SetViewMode(_ context.Context, mode timeline.ViewMode) error {
	if !mode.Valid() {
		return cerr.NewError(cerr.InvalidArgument, "unknown view mode", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project.ViewMode = mode
	s.project.UpdatedAt = s.now()
	s.commit(eventbus.EventViewModeChanged, s.project.ID)
	return nil
}

// SelectTask marks a task as selected. Selection is never persisted.
func (s *Store) SelectTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project.FindTask(id) < 0 {
		return errTaskNotFound(id)
	}
	s.selected = id
	s.bus.PublishNew(eventbus.EventSelectionChanged, id, s.version)
	return nil
}

func (s *Store) ClearSelection(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return
	}
	s.selected = ""
	s.bus.PublishNew(eventbus.EventSelectionChanged, "", s.version)
}

func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Task returns a copy of the task with id.
func (s *Store) Task(id string) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.project.FindTask(id)
	if i < 0 {
		return nil, errTaskNotFound(id)
	}
	return s.project.Tasks[i].Clone(), nil
}

// Now reads the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Project:        s.project.Clone(),
		SelectedTaskID: s.selected,
		Version:        s.version,
	}
}

// Subscribe returns a channel of state change events. Release it with
// Unsubscribe.
func (s *Store) Subscribe(bufSize int) (string, <-chan eventbus.Event) {
	return s.bus.Subscribe(bufSize)
}

func (s *Store) Unsubscribe(id string) {
	s.bus.Unsubscribe(id)
}

// Load replaces the live project with the persisted one. A missing or
// unreadable slot is logged and reported as false; the live project is
// kept in that case.
func (s *Store) Load(ctx context.Context) bool {
	return s.load(ctx, false)
}

// Reload is Load for a slot that changed outside this store, e.g. another
// process. Content this store wrote itself is ignored.
func (s *Store) Reload(ctx context.Context) bool {
	return s.load(ctx, true)
}

func (s *Store) load(ctx context.Context, skipOwn bool) bool {
	data, err := s.repo.Load(ctx)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			slog.InfoContext(ctx, "no saved project")
		} else {
			slog.WarnContext(ctx, "failed to read saved project", "error", err)
		}
		return false
	}
	if skipOwn && s.saver.IsOwnWrite(data) {
		return false
	}
	p, err := project.Decode(data, s.now())
	if err != nil {
		slog.WarnContext(ctx, "saved project is unreadable, ignoring it", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = p
	if s.selected != "" && p.FindTask(s.selected) < 0 {
		s.selected = ""
	}
	s.version++
	s.saver.MarkWritten(s.version, data)
	s.bus.PublishNew(eventbus.EventProjectLoaded, p.ID, s.version)
	return true
}

// Save writes the live project synchronously.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	version, p := s.version, s.project.Clone()
	s.mu.Unlock()
	return s.saver.WriteNow(ctx, version, p)
}

// Flush writes any pending save.
func (s *Store) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// Clear empties the slot and resets to a default project.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	version := s.version + 1
	if err := s.saver.Clear(ctx, version); err != nil {
		return err
	}
	s.project = project.Default(s.newID(), s.projectName, s.now())
	s.selected = ""
	s.version = version
	s.bus.PublishNew(eventbus.EventProjectCleared, s.project.ID, s.version)
	return nil
}

// Export returns the indented JSON form of the live project.
func (s *Store) Export(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	p := s.project.Clone()
	s.mu.Unlock()
	data, err := project.EncodeIndent(p)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", err)
	}
	return data, nil
}

// Import replaces the live project with data and persists it right away.
// Nothing changes when data does not decode. When the write fails the new
// project stays live and the error is returned.
func (s *Store) Import(ctx context.Context, data []byte) (*project.Project, error) {
	p, err := project.Decode(data, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.project = p
	s.selected = ""
	s.version++
	version, snap := s.version, p.Clone()
	s.bus.PublishNew(eventbus.EventProjectImported, p.ID, version)
	s.mu.Unlock()

	if err := s.saver.WriteNow(ctx, version, snap); err != nil {
		return nil, err
	}
	return snap.Clone(), nil
}

// RefreshStatuses re-derives every status against the clock and returns the
// tasks that became delayed. Statuses are not persisted state, so nothing is
// saved.
func (s *Store) RefreshStatuses(_ context.Context) []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var delayed []*task.Task
	for _, t := range s.project.Tasks {
		before := t.Status()
		t.Refresh(now)
		if t.Status() == task.StatusDelayed && before != task.StatusDelayed {
			delayed = append(delayed, t.Clone())
			s.bus.PublishNew(eventbus.EventTaskDelayed, t.ID, s.version)
		}
	}
	return delayed
}

// Close flushes the pending save and stops accepting new ones.
func (s *Store) Close(ctx context.Context) error {
	return s.saver.Close(ctx)
}
