package project

import "context"

// Repository persists the single project slot.
type Repository interface {
	// Load returns a cerr NotFound error when the slot is empty.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}
