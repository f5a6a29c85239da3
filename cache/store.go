// Package cache provides the durable local key/value store that backs the
// fallback path. State is keyed by {entity}.{scope}; each scope owns its
// collections exclusively.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/acmeware/shopsync/commerce"
	"github.com/acmeware/shopsync/identity"
)

// Entity names the collections persisted per scope.
type Entity string

const (
	EntityCart     Entity = "cart"
	EntityWishlist Entity = "wishlist"
	EntityOrders   Entity = "orders"
)

// AllOrdersScope is the reserved scope of the privileged all-orders index
// read by admin and seller dashboards. Principal ids are UUIDs and cannot
// collide with it.
const AllOrdersScope identity.Scope = "__all__"

var ErrStoreClosed = errors.New("cache store is closed")

// Store is a durable key/value store surviving process restarts on the same
// device. A missing key yields a nil payload and nil error; implementations
// are safe for concurrent use.
type Store interface {
	// Get returns the payload stored under {entity}.{scope}, or nil if absent.
	Get(ctx context.Context, scope identity.Scope, entity Entity) ([]byte, error)

	// Put durably stores the payload under {entity}.{scope}. The write is
	// visible to subsequent Get calls in the same process.
	Put(ctx context.Context, scope identity.Scope, entity Entity, payload []byte) error

	// Close releases the underlying resources.
	Close() error
}

// ScopedOrder pairs an order with the scope that owns it, for the privileged
// all-orders index.
type ScopedOrder struct {
	Scope identity.Scope `json:"scope"`
	Order commerce.Order `json:"order"`
}

// Cart decodes the cached cart for a scope. A missing key is an empty cart.
func Cart(ctx context.Context, s Store, scope identity.Scope) (commerce.Cart, error) {
	var cart commerce.Cart
	if err := getJSON(ctx, s, scope, EntityCart, &cart); err != nil {
		return nil, err
	}
	if cart == nil {
		cart = commerce.Cart{}
	}
	return cart, nil
}

// PutCart writes the cart through to the store.
func PutCart(ctx context.Context, s Store, scope identity.Scope, cart commerce.Cart) error {
	return putJSON(ctx, s, scope, EntityCart, cart)
}

// Wishlist decodes the cached wishlist for a scope.
func Wishlist(ctx context.Context, s Store, scope identity.Scope) (commerce.Wishlist, error) {
	var list commerce.Wishlist
	if err := getJSON(ctx, s, scope, EntityWishlist, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = commerce.Wishlist{}
	}
	return list, nil
}

// PutWishlist writes the wishlist through to the store.
func PutWishlist(ctx context.Context, s Store, scope identity.Scope, list commerce.Wishlist) error {
	return putJSON(ctx, s, scope, EntityWishlist, list)
}

// Orders decodes the cached order history for a scope, most recent first.
func Orders(ctx context.Context, s Store, scope identity.Scope) ([]commerce.Order, error) {
	var orders []commerce.Order
	if err := getJSON(ctx, s, scope, EntityOrders, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []commerce.Order{}
	}
	return orders, nil
}

// PutOrders writes the order history through to the store.
func PutOrders(ctx context.Context, s Store, scope identity.Scope, orders []commerce.Order) error {
	return putJSON(ctx, s, scope, EntityOrders, orders)
}

// AllOrders reads the privileged all-orders index, most recent first.
func AllOrders(ctx context.Context, s Store) ([]ScopedOrder, error) {
	var orders []ScopedOrder
	if err := getJSON(ctx, s, AllOrdersScope, EntityOrders, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []ScopedOrder{}
	}
	return orders, nil
}

// PutAllOrders writes the privileged all-orders index.
func PutAllOrders(ctx context.Context, s Store, orders []ScopedOrder) error {
	return putJSON(ctx, s, AllOrdersScope, EntityOrders, orders)
}

func getJSON(ctx context.Context, s Store, scope identity.Scope, entity Entity, v any) error {
	payload, err := s.Get(ctx, scope, entity)
	if err != nil {
		return fmt.Errorf("failed to read %s.%s: %w", entity, scope, err)
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to decode %s.%s: %w", entity, scope, err)
	}
	return nil
}

func putJSON(ctx context.Context, s Store, scope identity.Scope, entity Entity, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s.%s: %w", entity, scope, err)
	}
	if err := s.Put(ctx, scope, entity, payload); err != nil {
		return fmt.Errorf("failed to write %s.%s: %w", entity, scope, err)
	}
	return nil
}
