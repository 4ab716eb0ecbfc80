package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kazz187/taskgantt/internal/config"
	"github.com/kazz187/taskgantt/pkg/storage"
)

// openStorage returns the backend selected by STORAGE_TYPE and a func that
// releases it.
func openStorage(ctx context.Context, env *config.StorageEnv) (storage.Storage, func(), error) {
	switch env.Type {
	case "s3":
		s, err := storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:   env.S3Bucket,
			Prefix:   env.S3Prefix,
			Region:   env.S3Region,
			Endpoint: env.S3Endpoint,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return s, func() {}, nil
	case "sqlite":
		s, err := storage.NewSQLiteStorage(ctx, env.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sqlite storage: %w", err)
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Error("failed to close sqlite storage", "error", err)
			}
		}, nil
	case "local", "":
		s, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_TYPE %q (want local, s3 or sqlite)", env.Type)
	}
}

// slotFile returns the local file that holds key, or "" when the backend
// keeps no files.
func slotFile(s storage.Storage, key string) string {
	fb, ok := s.(storage.FileBacked)
	if !ok {
		return ""
	}
	return fb.FilePath(key)
}
