package cache

import (
	"context"
	"testing"

	"github.com/acmeware/shopsync/commerce"
	"github.com/acmeware/shopsync/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MemoryStore_ReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	scope := identity.Scope("user-a")

	cart := commerce.Cart{{ProductRef: "p1", UnitPrice: 5, Quantity: 2}}
	require.NoError(t, PutCart(ctx, store, scope, cart))

	got, err := Cart(ctx, store, scope)
	require.NoError(t, err)
	assert.Equal(t, cart, got)
}

func Test_MemoryStore_MissingKeyIsEmptyCollection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	cart, err := Cart(ctx, store, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, cart)
	assert.Empty(t, cart)

	list, err := Wishlist(ctx, store, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)

	orders, err := Orders(ctx, store, "nobody")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func Test_MemoryStore_ScopeIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, PutCart(ctx, store, "user-a", commerce.Cart{{ProductRef: "p1", Quantity: 1}}))

	got, err := Cart(ctx, store, "user-b")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Cart(ctx, store, identity.GuestScope)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func Test_MemoryStore_EntityIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	scope := identity.Scope("user-a")

	require.NoError(t, PutWishlist(ctx, store, scope, commerce.Wishlist{{ProductRef: "p1"}}))

	cart, err := Cart(ctx, store, scope)
	require.NoError(t, err)
	assert.Empty(t, cart)
}
