package cerr

import (
	"errors"
	"fmt"

	"github.com/kazz187/taskgantt/pkg/storage"
)

// storageError maps a backend failure while doing op on target. A missing
// key becomes NotFound unless the operation creates it.
func storageError(op, target string, err error, missingIsNotFound bool) error {
	if missingIsNotFound && errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, target+" not found", err)
	}
	return NewError(Internal, "storage error", fmt.Errorf("%s %s: %w", op, target, err))
}

func WrapStorageReadError(target string, err error) error {
	return storageError("read", target, err, true)
}

func WrapStorageWriteError(target string, err error) error {
	return storageError("write", target, err, false)
}

func WrapStorageDeleteError(target string, err error) error {
	return storageError("delete", target, err, true)
}
