// Package filewatch reports content changes of a single file that may be
// replaced atomically (write temp file, rename).
package filewatch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before the file
// is hashed.
const DefaultDebounce = 100 * time.Millisecond

type Watcher struct {
	path     string
	debounce time.Duration
	lastHash [sha256.Size]byte
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func New(path string, opts ...Option) *Watcher {
	w := &Watcher{path: path, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done, calling onChange from the Run goroutine
// each time the file content differs from the last observed content.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	var err error
	w.lastHash, err = HashFile(w.path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// The parent directory is watched so renames onto the path are seen.
	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	slog.DebugContext(ctx, "watching file", "path", w.path)

	var (
		timer  *time.Timer
		settle <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			settle = timer.C

		case <-settle:
			settle = nil
			h, err := HashFile(w.path)
			if err != nil {
				slog.WarnContext(ctx, "failed to hash watched file", "path", w.path, "error", err)
				continue
			}
			if h == w.lastHash {
				continue
			}
			w.lastHash = h
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "fsnotify error", "error", err)
		}
	}
}

// HashFile returns the sha256 of the file at path. A missing file hashes to
// the zero value.
func HashFile(path string) ([sha256.Size]byte, error) {
	var result [sha256.Size]byte
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return result, fmt.Errorf("hash %s: %w", path, err)
	}
	copy(result[:], h.Sum(nil))
	return result, nil
}
