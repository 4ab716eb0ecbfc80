package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskgantt/internal/config"
	"github.com/kazz187/taskgantt/pkg/cerr"
)

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, closeFn, err := openStorage(ctx, &config.StorageEnv{Type: "local", BaseDir: dir})
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, filepath.Join(dir, "gantt-project.json"), slotFile(s, "gantt-project.json"))

	db, closeDB, err := openStorage(ctx, &config.StorageEnv{Type: "sqlite", SQLitePath: filepath.Join(dir, "db", "t.db")})
	require.NoError(t, err)
	defer closeDB()
	assert.Empty(t, slotFile(db, "gantt-project.json"))

	_, _, err = openStorage(ctx, &config.StorageEnv{Type: "ftp"})
	assert.ErrorContains(t, err, `unknown STORAGE_TYPE "ftp"`)
}

func TestDescribe(t *testing.T) {
	err := describe(cerr.NewValidationError("invalid task", nil))
	assert.EqualError(t, err, "invalid task")

	err = describe(cerr.NewValidationError("invalid task", []*validate.Violation{
		cerr.Violation("title.required", "title is required"),
		cerr.Violation("progress.range", "progress must be between 0 and 100"),
	}))
	assert.EqualError(t, err, "invalid task\n  title.required: title is required\n  progress.range: progress must be between 0 and 100")

	err = describe(cerr.NewError(cerr.NotFound, "task not found", errors.New(`no task with id "x"`)))
	assert.EqualError(t, err, `task not found: no task with id "x"`)

	plain := errors.New("plain")
	assert.Same(t, plain, describe(plain))
}
