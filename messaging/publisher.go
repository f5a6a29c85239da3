// Package messaging defines the advisory event contract. Sync fallbacks and
// order creation publish best-effort notices; publish failures are logged,
// never surfaced.
package messaging

import (
	"context"
)

// Subjects for advisory events.
const (
	SyncFallbackSubject  = "shopsync.sync.fallback"
	OrdersCreatedSubject = "shopsync.orders.created"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards every event. The default when no broker is
// configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error {
	return nil
}
