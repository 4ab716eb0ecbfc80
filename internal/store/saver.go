package store

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"
	"time"

	"github.com/kazz187/taskgantt/internal/project"
	"github.com/kazz187/taskgantt/pkg/panicerr"
)

const (
	DefaultSaveDelay = 100 * time.Millisecond
	saveTimeout      = 30 * time.Second
)

type snapshot struct {
	version uint64
	project *project.Project
}

// Saver coalesces save requests. The first request opens a window of delay;
// requests inside the window replace the pending snapshot and one write with
// the newest snapshot happens when it closes. Writes are serialized and a
// snapshot older than the last written one is dropped.
type Saver struct {
	repo    project.Repository
	delay   time.Duration
	onSaved func(version uint64)

	mu      sync.Mutex
	pending *snapshot
	timer   *time.Timer
	closed  bool

	writeMu  sync.Mutex
	written  uint64
	contents [sha256.Size]byte // of the slot as last written or loaded
	known    bool
}

func NewSaver(repo project.Repository, delay time.Duration, onSaved func(version uint64)) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Saver{repo: repo, delay: delay, onSaved: onSaved}
}

// Request schedules p to be written. p must not be mutated afterwards.
func (s *Saver) Request(version uint64, p *project.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		slog.Debug("saver closed, dropping save request", "version", version)
		return
	}
	if s.pending == nil || version >= s.pending.version {
		s.pending = &snapshot{version: version, project: p}
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.fire)
	}
}

func (s *Saver) takePending() *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return p
}

func (s *Saver) fire() {
	snap := s.takePending()
	if snap == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	err := panicerr.Safe(func() error { return s.write(ctx, snap) })()
	if err != nil {
		slog.ErrorContext(ctx, "failed to save project", "version", snap.version, "error", err)
	}
}

func (s *Saver) write(ctx context.Context, snap *snapshot) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if snap.version < s.written {
		slog.DebugContext(ctx, "skipping stale save", "version", snap.version, "written", s.written)
		return nil
	}
	data, err := project.Encode(snap.project)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, data); err != nil {
		return err
	}
	s.written = snap.version
	s.contents, s.known = sha256.Sum256(data), true
	if s.onSaved != nil {
		s.onSaved(snap.version)
	}
	return nil
}

// WriteNow writes p synchronously and drops any pending snapshot that is not
// newer.
func (s *Saver) WriteNow(ctx context.Context, version uint64, p *project.Project) error {
	s.mu.Lock()
	if s.pending != nil && s.pending.version <= version {
		s.pending = nil
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
	s.mu.Unlock()
	return s.write(ctx, &snapshot{version: version, project: p})
}

// MarkWritten records that the slot already holds state at version, so
// nothing older is written over it. data is the slot content, or nil when
// the slot is empty.
func (s *Saver) MarkWritten(version uint64, data []byte) {
	s.mu.Lock()
	if s.pending != nil && s.pending.version <= version {
		s.pending = nil
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	if version > s.written {
		s.written = version
	}
	if data != nil {
		s.contents, s.known = sha256.Sum256(data), true
	} else {
		s.known = false
	}
	s.writeMu.Unlock()
}

// Clear empties the slot once any in-flight write has finished and records
// version as written, so no snapshot taken before the clear can restore the
// old project.
func (s *Saver) Clear(ctx context.Context, version uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	if version > s.written {
		s.written = version
	}
	s.known = false

	s.mu.Lock()
	if s.pending != nil && s.pending.version <= version {
		s.pending = nil
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
	s.mu.Unlock()
	return nil
}

// IsOwnWrite reports whether data is what the slot held after the last write
// or load through this saver. It waits for an in-flight write.
func (s *Saver) IsOwnWrite(data []byte) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.known && sha256.Sum256(data) == s.contents
}

// Flush writes the pending snapshot, if any, before returning.
func (s *Saver) Flush(ctx context.Context) error {
	snap := s.takePending()
	if snap == nil {
		return nil
	}
	return s.write(ctx, snap)
}

// Written returns the version of the last successful write.
func (s *Saver) Written() uint64 {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.written
}

// Close flushes and rejects further requests.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}
