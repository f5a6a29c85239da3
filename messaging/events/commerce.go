// Package events defines the advisory event payloads.
package events

import (
	"encoding/json"
	"time"

	"github.com/acmeware/shopsync/messaging"
)

// SyncFallbackEvent is published when a mutating operation was recovered
// locally because the remote gateway failed.
type SyncFallbackEvent struct {
	Scope  string    `json:"scope"`
	Entity string    `json:"entity"`
	Op     string    `json:"op"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

func (e SyncFallbackEvent) Subject() string {
	return messaging.SyncFallbackSubject
}

func (e SyncFallbackEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// OrderCreatedEvent is published after an order aggregate is materialized,
// whichever path issued the id.
type OrderCreatedEvent struct {
	OrderID    string    `json:"order_id"`
	Scope      string    `json:"scope"`
	GrandTotal float64   `json:"grand_total"`
	Synthetic  bool      `json:"synthetic"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e OrderCreatedEvent) Subject() string {
	return messaging.OrdersCreatedSubject
}

func (e OrderCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
