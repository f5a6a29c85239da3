// Package merge implements the pure accumulation and idempotency rules that
// combine an incoming operation with previously cached state. Every function
// is deterministic, leaves its input untouched and returns a fresh collection.
package merge

import "github.com/acmeware/shopsync/commerce"

// AddCartItem merges a new line into a cart. If the product is already
// present its quantity is increased and its position preserved; otherwise the
// item is appended at the end.
func AddCartItem(existing commerce.Cart, newItem commerce.CartItem) commerce.Cart {
	out := make(commerce.Cart, len(existing))
	copy(out, existing)
	for i, item := range out {
		if item.ProductRef == newItem.ProductRef {
			item.Quantity += newItem.Quantity
			// Refresh display metadata from the newer call.
			item.UnitPrice = newItem.UnitPrice
			if newItem.Name != "" {
				item.Name = newItem.Name
			}
			if newItem.ImageURL != "" {
				item.ImageURL = newItem.ImageURL
			}
			if newItem.AvailableStock > 0 {
				item.AvailableStock = newItem.AvailableStock
			}
			out[i] = item
			return out
		}
	}
	return append(out, newItem)
}

// SetCartItemQuantity overwrites the quantity of a line. A quantity <= 0
// removes the line, keeping the invariant that a non-positive quantity is
// never persisted.
func SetCartItemQuantity(existing commerce.Cart, productRef string, quantity int32) commerce.Cart {
	if quantity <= 0 {
		return RemoveCartItem(existing, productRef)
	}
	out := make(commerce.Cart, len(existing))
	copy(out, existing)
	for i, item := range out {
		if item.ProductRef == productRef {
			item.Quantity = quantity
			out[i] = item
			break
		}
	}
	return out
}

// RemoveCartItem filters out the line with the given product reference.
// No-op if the line is absent.
func RemoveCartItem(existing commerce.Cart, productRef string) commerce.Cart {
	out := make(commerce.Cart, 0, len(existing))
	for _, item := range existing {
		if item.ProductRef != productRef {
			out = append(out, item)
		}
	}
	return out
}

// ClearCart returns an empty cart unconditionally.
func ClearCart() commerce.Cart {
	return commerce.Cart{}
}

// AddWishlistEntry appends an entry unless the product is already saved.
// Idempotent: re-adding an existing product leaves the wishlist unchanged.
func AddWishlistEntry(existing commerce.Wishlist, entry commerce.WishlistEntry) commerce.Wishlist {
	out := make(commerce.Wishlist, len(existing))
	copy(out, existing)
	if out.Contains(entry.ProductRef) {
		return out
	}
	return append(out, entry)
}

// RemoveWishlistEntry filters out the entry with the given product reference.
// No-op if the entry is absent.
func RemoveWishlistEntry(existing commerce.Wishlist, productRef string) commerce.Wishlist {
	out := make(commerce.Wishlist, 0, len(existing))
	for _, entry := range existing {
		if entry.ProductRef != productRef {
			out = append(out, entry)
		}
	}
	return out
}
