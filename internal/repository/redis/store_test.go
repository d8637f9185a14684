package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shopledger/internal/repository"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := Dial(ctx, mr.Addr(), "", 0, "shop:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	_, err = store.Get(ctx, repository.TransactionsKey)
	require.ErrorIs(t, err, repository.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, repository.TransactionsKey, []byte(`[]`)))
	raw, err := store.Get(ctx, repository.TransactionsKey)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(raw))

	stored, err := mr.Get("shop:" + repository.TransactionsKey)
	require.NoError(t, err)
	require.Equal(t, `[]`, stored)
	require.Zero(t, mr.TTL("shop:"+repository.TransactionsKey))
}

func TestStoreBackendFailure(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewStore(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { _ = store.Close(ctx) })

	mr.SetError("ERR backend down")
	_, err := store.Get(ctx, "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, repository.ErrKeyNotFound)
	require.Error(t, store.Put(ctx, "k", []byte("v")))
}

func TestDialUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Dial(context.Background(), addr, "", 0, "")
	require.Error(t, err)
}
