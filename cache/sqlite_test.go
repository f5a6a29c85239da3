package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/acmeware/shopsync/commerce"
	"github.com/acmeware/shopsync/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T, dsn string) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), dsn)
	require.NoError(t, err)
	return store
}

func Test_SQLiteStore_ReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t, "file:"+filepath.Join(t.TempDir(), "cache.db"))
	defer func() { require.NoError(t, store.Close()) }()

	cart := commerce.Cart{{ProductRef: "p1", UnitPrice: 19.99, Quantity: 2}}
	require.NoError(t, PutCart(ctx, store, "user-a", cart))

	got, err := Cart(ctx, store, "user-a")
	require.NoError(t, err)
	assert.Equal(t, cart, got)
}

func Test_SQLiteStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "cache.db")
	scope := identity.Scope("user-a")

	store := newSQLite(t, dsn)
	require.NoError(t, PutCart(ctx, store, scope, commerce.Cart{{ProductRef: "p1", Quantity: 4}}))
	require.NoError(t, store.Close())

	// Simulated process restart: a fresh store on the same file.
	reopened := newSQLite(t, dsn)
	defer func() { require.NoError(t, reopened.Close()) }()

	got, err := Cart(ctx, reopened, scope)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int32(4), got[0].Quantity)
}

func Test_SQLiteStore_ClearedCartStaysEmptyAfterRestart(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "cache.db")
	scope := identity.Scope("user-a")

	store := newSQLite(t, dsn)
	require.NoError(t, PutCart(ctx, store, scope, commerce.Cart{{ProductRef: "p1", Quantity: 4}}))
	require.NoError(t, PutCart(ctx, store, scope, commerce.Cart{}))
	require.NoError(t, store.Close())

	reopened := newSQLite(t, dsn)
	defer func() { require.NoError(t, reopened.Close()) }()

	got, err := Cart(ctx, reopened, scope)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func Test_SQLiteStore_Upsert(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t, "file:"+filepath.Join(t.TempDir(), "cache.db"))
	defer func() { require.NoError(t, store.Close()) }()

	require.NoError(t, store.Put(ctx, "user-a", EntityCart, []byte(`[{"product_ref":"p1","quantity":1}]`)))
	require.NoError(t, store.Put(ctx, "user-a", EntityCart, []byte(`[{"product_ref":"p1","quantity":9}]`)))

	got, err := Cart(ctx, store, "user-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int32(9), got[0].Quantity)
}

func Test_SQLiteStore_ClosedStore(t *testing.T) {
	ctx := context.Background()
	store := newSQLite(t, "file:"+filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, store.Close())

	_, err := store.Get(ctx, "user-a", EntityCart)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Put(ctx, "user-a", EntityCart, []byte("[]")), ErrStoreClosed)
	assert.NoError(t, store.Close())
}
