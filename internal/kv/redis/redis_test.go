package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/photopoet/internal/kv"
)

func newTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := Open(context.Background(), Options{Addr: mr.Addr(), Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStorePutAndGet(t *testing.T) {
	store, mr := newTestStore(t, "photopoet:")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "savedPoems", []byte(`[]`)))

	got, err := store.Get(ctx, "savedPoems")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	raw, err := mr.Get("photopoet:savedPoems")
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
}

func TestRedisStoreNotFound(t *testing.T) {
	store, _ := newTestStore(t, "")

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestRedisStoreServerDown(t *testing.T) {
	store, mr := newTestStore(t, "")
	mr.Close()

	err := store.Put(context.Background(), "savedPoems", []byte(`[]`))
	assert.Error(t, err)
}

func TestRedisOpenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}
