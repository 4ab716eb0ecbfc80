// Package storage provides key-addressed blob stores. The project state lives
// in a single key, so implementations only need whole-object reads and writes.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage is a key-value blob store.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// FileBacked is implemented by stores that keep each key in a local file,
// which lets callers watch the file for out-of-process changes.
type FileBacked interface {
	FilePath(key string) string
}
