package merge

import (
	"testing"

	"github.com/acmeware/shopsync/commerce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(ref string, qty int32) commerce.CartItem {
	return commerce.CartItem{ProductRef: ref, UnitPrice: 9.99, Quantity: qty}
}

func Test_AddCartItem(t *testing.T) {
	t.Run("appends a new product at the end", func(t *testing.T) {
		cart := commerce.Cart{item("p1", 1)}

		got := AddCartItem(cart, item("p2", 3))

		require.Len(t, got, 2)
		assert.Equal(t, "p1", got[0].ProductRef)
		assert.Equal(t, "p2", got[1].ProductRef)
		assert.Equal(t, int32(3), got[1].Quantity)
	})

	t.Run("sums quantities for an existing product", func(t *testing.T) {
		cart := commerce.Cart{item("p1", 2)}

		got := AddCartItem(cart, item("p1", 5))

		require.Len(t, got, 1)
		assert.Equal(t, int32(7), got[0].Quantity)
	})

	t.Run("updating an existing entry preserves its position", func(t *testing.T) {
		cart := commerce.Cart{item("p1", 1), item("p2", 1), item("p3", 1)}

		got := AddCartItem(cart, item("p2", 4))

		require.Len(t, got, 3)
		assert.Equal(t, "p2", got[1].ProductRef)
		assert.Equal(t, int32(5), got[1].Quantity)
	})

	t.Run("does not mutate the input cart", func(t *testing.T) {
		cart := commerce.Cart{item("p1", 2)}

		_ = AddCartItem(cart, item("p1", 5))

		assert.Equal(t, int32(2), cart[0].Quantity)
	})
}

func Test_SetCartItemQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int32
		wantLen  int
		wantQty  int32
	}{
		{name: "overwrites positive quantity", quantity: 9, wantLen: 2, wantQty: 9},
		{name: "zero removes the entry", quantity: 0, wantLen: 1},
		{name: "negative removes the entry", quantity: -3, wantLen: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := commerce.Cart{item("p1", 2), item("p2", 1)}

			got := SetCartItemQuantity(cart, "p1", tt.quantity)

			require.Len(t, got, tt.wantLen)
			if tt.wantQty > 0 {
				found, ok := got.Find("p1")
				require.True(t, ok)
				assert.Equal(t, tt.wantQty, found.Quantity)
			} else {
				_, ok := got.Find("p1")
				assert.False(t, ok)
			}
		})
	}
}

func Test_RemoveCartItem(t *testing.T) {
	t.Run("filters out the matching entry", func(t *testing.T) {
		cart := commerce.Cart{item("p1", 2), item("p2", 1)}

		got := RemoveCartItem(cart, "p1")

		require.Len(t, got, 1)
		assert.Equal(t, "p2", got[0].ProductRef)
	})

	t.Run("no-op when absent", func(t *testing.T) {
		cart := commerce.Cart{item("p1", 2)}

		got := RemoveCartItem(cart, "p9")

		assert.Equal(t, cart, got)
	})

	t.Run("re-adding after removal starts from scratch", func(t *testing.T) {
		cart := commerce.Cart{item("p1", 7)}

		got := AddCartItem(RemoveCartItem(cart, "p1"), item("p1", 2))

		require.Len(t, got, 1)
		assert.Equal(t, int32(2), got[0].Quantity)
	})
}

func Test_ClearCart(t *testing.T) {
	got := ClearCart()

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func Test_AddWishlistEntry(t *testing.T) {
	t.Run("appends a new entry", func(t *testing.T) {
		list := commerce.Wishlist{{ProductRef: "p1"}}

		got := AddWishlistEntry(list, commerce.WishlistEntry{ProductRef: "p2"})

		require.Len(t, got, 2)
		assert.Equal(t, "p2", got[1].ProductRef)
	})

	t.Run("idempotent for an existing product", func(t *testing.T) {
		list := commerce.Wishlist{{ProductRef: "p1"}}

		got := AddWishlistEntry(AddWishlistEntry(list, commerce.WishlistEntry{ProductRef: "p1"}), commerce.WishlistEntry{ProductRef: "p1"})

		assert.Len(t, got, 1)
	})
}

func Test_RemoveWishlistEntry(t *testing.T) {
	list := commerce.Wishlist{{ProductRef: "p1"}, {ProductRef: "p2"}}

	got := RemoveWishlistEntry(list, "p1")

	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ProductRef)

	assert.Equal(t, got, RemoveWishlistEntry(got, "p1"))
}
