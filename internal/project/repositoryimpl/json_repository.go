package repositoryimpl

import (
	"context"

	"github.com/kazz187/taskgantt/pkg/cerr"
	"github.com/kazz187/taskgantt/pkg/storage"
)

// DefaultKey is the storage key of the project slot.
const DefaultKey = "gantt-project.json"

type JSONRepository struct {
	storage storage.Storage
	key     string
}

func NewJSONRepository(s storage.Storage, key string) *JSONRepository {
	if key == "" {
		key = DefaultKey
	}
	return &JSONRepository{storage: s, key: key}
}

func (r *JSONRepository) Key() string {
	return r.key
}

func (r *JSONRepository) Load(ctx context.Context) ([]byte, error) {
	data, err := r.storage.Read(ctx, r.key)
	if err != nil {
		return nil, cerr.WrapStorageReadError("project", err)
	}
	return data, nil
}

func (r *JSONRepository) Save(ctx context.Context, data []byte) error {
	if err := r.storage.Write(ctx, r.key, data); err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	return nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (r *JSONRepository) Clear(ctx context.Context) error {
	exists, err := r.storage.Exists(ctx, r.key)
	if err != nil {
		return cerr.WrapStorageReadError("project", err)
	}
	if !exists {
		return nil
	}
	if err := r.storage.Delete(ctx, r.key); err != nil {
		return cerr.WrapStorageDeleteError("project", err)
	}
	return nil
}
