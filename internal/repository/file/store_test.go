package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shopledger/internal/repository"
)

func TestStorePutGet(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "state")
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Get(ctx, repository.InventoryKey)
	require.ErrorIs(t, err, repository.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, repository.InventoryKey, []byte(`[1]`)))
	require.NoError(t, store.Put(ctx, repository.InventoryKey, []byte(`[1,2]`)))

	raw, err := store.Get(ctx, repository.InventoryKey)
	require.NoError(t, err)
	require.JSONEq(t, `[1,2]`, string(raw))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, repository.InventoryKey+".json", entries[0].Name())

	require.NoError(t, store.Close(ctx))
}

func TestStoreCanceledContext(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, store.Put(ctx, "k", []byte("v")), context.Canceled)
	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreRequiresDir(t *testing.T) {
	_, err := NewStore("")
	require.Error(t, err)
}
