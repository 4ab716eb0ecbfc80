package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskgantt/internal/pushsubscription"
	"github.com/kazz187/taskgantt/pkg/cerr"
	"github.com/kazz187/taskgantt/pkg/storage"
)

func TestYAMLRepository(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewYAMLRepository(s)

	first, err := repo.Upsert(ctx, &pushsubscription.Subscription{
		ID: "01JA", Endpoint: "https://push.example/a", P256dhKey: "k1", AuthKey: "a1", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "01JA", first.ID)

	// same endpoint keeps the original id
	again, err := repo.Upsert(ctx, &pushsubscription.Subscription{
		ID: "01JB", Endpoint: "https://push.example/a", P256dhKey: "k2", AuthKey: "a2",
	})
	require.NoError(t, err)
	assert.Equal(t, "01JA", again.ID)

	_, err = repo.Upsert(ctx, &pushsubscription.Subscription{ID: "01JC", Endpoint: "https://push.example/c"})
	require.NoError(t, err)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "k2", all[0].P256dhKey)

	require.NoError(t, repo.DeleteByEndpoint(ctx, "https://push.example/a"))
	assert.True(t, cerr.IsCode(repo.DeleteByEndpoint(ctx, "https://push.example/a"), cerr.NotFound))
	require.NoError(t, repo.Delete(ctx, "01JC"))

	all, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
