// Package commerce defines the entity types shared by the cart, wishlist and
// order subsystems.
package commerce

import (
	"math"
	"time"
)

// CartItem is a single line in a shopper's cart. Items are unique per
// ProductRef within one cart; Quantity is never persisted as <= 0.
type CartItem struct {
	ProductRef     string  `json:"product_ref" validate:"required"`
	Name           string  `json:"name,omitempty"`
	ImageURL       string  `json:"image_url,omitempty"`
	UnitPrice      float64 `json:"unit_price" validate:"gte=0"`
	Quantity       int32   `json:"quantity" validate:"required,min=1"`
	AvailableStock int32   `json:"available_stock,omitempty"`
}

// Cart is an ordered collection of CartItems keyed by ProductRef.
type Cart []CartItem

// Find returns the item with the given product reference, if present.
func (c Cart) Find(productRef string) (CartItem, bool) {
	for _, item := range c {
		if item.ProductRef == productRef {
			return item, true
		}
	}
	return CartItem{}, false
}

// ItemsTotal sums unit price times quantity over all lines, rounded to cents.
func (c Cart) ItemsTotal() float64 {
	var total float64
	for _, item := range c {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return Round2(total)
}

// WishlistEntry is a saved product reference with display metadata.
type WishlistEntry struct {
	ProductRef string  `json:"product_ref" validate:"required"`
	Name       string  `json:"name,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
	UnitPrice  float64 `json:"unit_price,omitempty"`
}

// Wishlist has set semantics: no duplicate entries per ProductRef.
type Wishlist []WishlistEntry

// Contains reports whether the wishlist already holds the product reference.
func (w Wishlist) Contains(productRef string) bool {
	for _, entry := range w {
		if entry.ProductRef == productRef {
			return true
		}
	}
	return false
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// statusRank orders the forward-only lifecycle. Cancelled is outside the rank
// chain: it is reachable from any state and terminal.
var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from s to next. Transitions
// are monotonic (pending -> processing -> shipped -> delivered); cancelled is
// terminal from any state. Re-applying the current status is allowed and is a
// no-op for callers.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s == StatusCancelled {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Pricing is the monetary breakdown of an order, each value rounded to cents.
type Pricing struct {
	ItemsTotal float64 `json:"items_total"`
	Tax        float64 `json:"tax"`
	Shipping   float64 `json:"shipping"`
	GrandTotal float64 `json:"grand_total"`
}

// Order is an immutable aggregate materialized from a cart snapshot.
// SnapshotItems never change after creation; Status moves per CanTransition.
type Order struct {
	ID              string      `json:"id"`
	IdentityID      string      `json:"identity_id"`
	SnapshotItems   []CartItem  `json:"snapshot_items"`
	ShippingAddress string      `json:"shipping_address"`
	PaymentMethod   string      `json:"payment_method"`
	Pricing         Pricing     `json:"pricing"`
	Status          OrderStatus `json:"status"`
	IsPaid          bool        `json:"is_paid"`
	Synthetic       bool        `json:"synthetic,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	PaidAt          *time.Time  `json:"paid_at,omitempty"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty"`
}

// Round2 rounds a monetary value to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
