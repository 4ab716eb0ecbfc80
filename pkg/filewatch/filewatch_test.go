package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slot.json")

	missing, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, missing)

	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))
	a, err := HashFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, missing, a)
}

func TestWatcher_ReportsContentChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	done := make(chan error, 1)
	w := New(path, WithDebounce(20*time.Millisecond))
	go func() {
		done <- w.Run(ctx, func() { changes.Add(1) })
	}()
	// give the watcher time to register
	time.Sleep(50 * time.Millisecond)

	// unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0o644))

	// atomic replace
	tmp := filepath.Join(dir, "slot.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"v":2}`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool { return changes.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// same content again does not count
	require.NoError(t, os.WriteFile(path, []byte(`{"v":2}`), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), changes.Load())

	cancel()
	assert.NoError(t, <-done)
}
