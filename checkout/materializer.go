// Package checkout materializes immutable order aggregates from cart
// snapshots: pricing, identifier assignment (remote-issued when reachable,
// locally synthesized otherwise) and the follow-up status lifecycle.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acmeware/shopsync/cache"
	"github.com/acmeware/shopsync/commerce"
	"github.com/acmeware/shopsync/config"
	"github.com/acmeware/shopsync/gateway"
	"github.com/acmeware/shopsync/identity"
	"github.com/acmeware/shopsync/merge"
	"github.com/acmeware/shopsync/messaging"
	"github.com/acmeware/shopsync/messaging/events"
	"github.com/acmeware/shopsync/syncer"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Deps are the materializer's collaborators. Credentials binds each identity
// to its own bearer token; when nil, authenticated identities use the
// gateway's configured credential (single-user embedding).
type Deps struct {
	Store       cache.Store
	Gateway     *gateway.Client
	Credentials gateway.Credentials
	Notifier    messaging.Publisher
	Logger      *slog.Logger
	Checkout    config.CheckoutConfig
}

// Materializer builds order aggregates and drives their status lifecycle.
type Materializer struct {
	store         cache.Store
	gw            *gateway.Client
	creds         gateway.Credentials
	notifier      messaging.Publisher
	logger        *slog.Logger
	cfg           config.CheckoutConfig
	ordersCounter metric.Int64Counter
}

// New creates a Materializer. Notifier defaults to a no-op publisher and
// Logger to slog.Default().
func New(deps Deps) *Materializer {
	if deps.Notifier == nil {
		deps.Notifier = messaging.NoopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	meter := otel.Meter("shopsync")
	ordersCounter, err := meter.Int64Counter("orders_created",
		metric.WithDescription("Total number of materialized orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_created counter: %v", err))
	}
	return &Materializer{
		store:         deps.Store,
		gw:            deps.Gateway,
		creds:         deps.Credentials,
		notifier:      deps.Notifier,
		logger:        deps.Logger.With("component", "checkout"),
		cfg:           deps.Checkout,
		ordersCounter: ordersCounter,
	}
}

// Checkout turns the identity's current cart into an immutable order.
// The remote system is attempted first; when it cannot be reached the order
// id is synthesized locally and the aggregate persisted anyway. On success of
// either path the source cart is cleared.
//
// A synthesized id is never reconciled with a remote id recorded later for
// the same attempt; a privileged dashboard can therefore see the checkout
// twice after an outage. Known gap, deliberately left open.
func (m *Materializer) Checkout(ctx context.Context, id identity.Identity, shippingAddress, paymentMethod string) (*commerce.Order, error) {
	if id.IsGuest() {
		return nil, ErrIdentityRequired
	}
	scope := id.Scope()

	cart, err := cache.Cart(ctx, m.store, scope)
	if err != nil {
		m.logger.WarnContext(ctx, "cache read failed during checkout", "scope", scope, "error", err)
		cart = commerce.Cart{}
	}
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	pricing := price(cart, m.cfg)
	snapshot := make([]commerce.CartItem, len(cart))
	copy(snapshot, cart)

	now := time.Now().UTC()
	order := commerce.Order{
		IdentityID:      id.ID,
		SnapshotItems:   snapshot,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		Pricing:         pricing,
		Status:          commerce.StatusPending,
		CreatedAt:       now,
	}

	draft := gateway.OrderDraft{
		Items:           snapshot,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		Pricing:         pricing,
	}
	gw, hasRemote := m.client(id)
	remoteCreated := false
	if hasRemote {
		remoteOrder, gerr := gw.CreateOrder(ctx, draft)
		switch {
		case gerr == nil:
			order.ID = remoteOrder.ID
			if !remoteOrder.CreatedAt.IsZero() {
				order.CreatedAt = remoteOrder.CreatedAt
			}
			if remoteOrder.Status.Valid() {
				order.Status = remoteOrder.Status
			}
			remoteCreated = true
		case !gerr.Recoverable():
			return nil, fmt.Errorf("%s: %w", gerr.Detail, syncer.ErrValidation)
		default:
			m.logger.InfoContext(ctx, "remote order creation unavailable, synthesizing local id",
				"scope", scope, "kind", gerr.Kind.String())
		}
	}
	if !remoteCreated {
		order.ID = syntheticOrderID(now)
		order.Synthetic = true
	}

	m.persistOrder(ctx, scope, order)

	// Materialization succeeded on one of the two paths: the source cart is
	// consumed.
	if err := cache.PutCart(ctx, m.store, scope, merge.ClearCart()); err != nil {
		m.logger.WarnContext(ctx, "failed to clear cart after checkout", "scope", scope, "error", err)
	}
	if remoteCreated {
		// The remote cart must agree, or the next read-through would
		// resurrect the consumed items into the scope.
		if _, gerr := gw.ClearCart(ctx); gerr != nil {
			m.logger.WarnContext(ctx, "failed to clear remote cart after checkout",
				"scope", scope, "order_id", order.ID, "kind", gerr.Kind.String())
		}
	}

	m.ordersCounter.Add(ctx, 1)
	event := events.OrderCreatedEvent{
		OrderID:    order.ID,
		Scope:      string(scope),
		GrandTotal: order.Pricing.GrandTotal,
		Synthetic:  order.Synthetic,
		CreatedAt:  order.CreatedAt,
	}
	if pubErr := m.notifier.Publish(ctx, event); pubErr != nil {
		m.logger.WarnContext(ctx, "failed to publish order created advisory", "order_id", order.ID, "error", pubErr)
	}

	return &order, nil
}

// UpdateStatus applies a status transition with the same remote-first,
// local-fallback pattern as cart mutations. Transitions are monotonic,
// cancelled is terminal, and re-applying the current status is a no-op.
func (m *Materializer) UpdateStatus(ctx context.Context, id identity.Identity, orderID string, status commerce.OrderStatus) (*commerce.Order, error) {
	scope := id.Scope()
	orders, err := cache.Orders(ctx, m.store, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	idx := findOrder(orders, orderID)
	if idx < 0 {
		return nil, ErrOrderNotFound
	}
	current := orders[idx]

	if current.Status == status {
		return &current, nil
	}
	if !current.Status.CanTransition(status) {
		return nil, fmt.Errorf("%s -> %s: %w", current.Status, status, ErrInvalidTransition)
	}

	if gw, ok := m.client(id); ok {
		if _, gerr := gw.UpdateOrderStatus(ctx, orderID, status); gerr != nil {
			if !gerr.Recoverable() {
				return nil, fmt.Errorf("%s: %w", gerr.Detail, syncer.ErrValidation)
			}
			m.logger.InfoContext(ctx, "remote status update unavailable, applied locally",
				"order_id", orderID, "status", status, "kind", gerr.Kind.String())
		}
	}

	current.Status = status
	if status == commerce.StatusDelivered {
		now := time.Now().UTC()
		current.DeliveredAt = &now
	}
	orders[idx] = current
	if err := cache.PutOrders(ctx, m.store, scope, orders); err != nil {
		m.logger.WarnContext(ctx, "order history write-through failed", "scope", scope, "error", err)
	}
	m.updateIndexed(ctx, current)

	return &current, nil
}

// MarkPaid stamps the order as paid. Idempotent; local-only, there is no
// remote payment endpoint at this boundary.
func (m *Materializer) MarkPaid(ctx context.Context, id identity.Identity, orderID string) (*commerce.Order, error) {
	scope := id.Scope()
	orders, err := cache.Orders(ctx, m.store, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	idx := findOrder(orders, orderID)
	if idx < 0 {
		return nil, ErrOrderNotFound
	}
	current := orders[idx]
	if current.IsPaid {
		return &current, nil
	}

	now := time.Now().UTC()
	current.IsPaid = true
	current.PaidAt = &now
	orders[idx] = current
	if err := cache.PutOrders(ctx, m.store, scope, orders); err != nil {
		m.logger.WarnContext(ctx, "order history write-through failed", "scope", scope, "error", err)
	}
	m.updateIndexed(ctx, current)

	return &current, nil
}

// Orders returns the identity's order history, most recent first. The remote
// list is written through when reachable; the cached history otherwise.
func (m *Materializer) Orders(ctx context.Context, id identity.Identity) ([]commerce.Order, error) {
	scope := id.Scope()
	if gw, ok := m.client(id); ok {
		remoteOrders, gerr := gw.Orders(ctx)
		if gerr == nil {
			if err := cache.PutOrders(ctx, m.store, scope, remoteOrders); err != nil {
				m.logger.WarnContext(ctx, "order history write-through failed", "scope", scope, "error", err)
			}
			return remoteOrders, nil
		}
		if !gerr.Recoverable() {
			return nil, fmt.Errorf("%s: %w", gerr.Detail, syncer.ErrValidation)
		}
	}
	return cache.Orders(ctx, m.store, scope)
}

// client resolves the gateway bound to the identity's own credential. Guests
// and identities without a token never reach the remote system.
func (m *Materializer) client(id identity.Identity) (*gateway.Client, bool) {
	if id.IsGuest() {
		return nil, false
	}
	if m.creds == nil {
		return m.gw, true
	}
	token := m.creds.Token(id)
	if token == "" {
		return nil, false
	}
	return m.gw.WithToken(token), true
}

// Order returns a single order from the identity's history.
func (m *Materializer) Order(ctx context.Context, id identity.Identity, orderID string) (*commerce.Order, error) {
	orders, err := cache.Orders(ctx, m.store, id.Scope())
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	if idx := findOrder(orders, orderID); idx >= 0 {
		return &orders[idx], nil
	}
	return nil, ErrOrderNotFound
}

// AllOrders returns the privileged all-orders index for admin and seller
// dashboards, most recent first, across every scope.
func (m *Materializer) AllOrders(ctx context.Context) ([]cache.ScopedOrder, error) {
	return cache.AllOrders(ctx, m.store)
}

// persistOrder prepends the aggregate to the scope's history and to the
// privileged all-orders index. Cache failures degrade to log lines.
func (m *Materializer) persistOrder(ctx context.Context, scope identity.Scope, order commerce.Order) {
	orders, err := cache.Orders(ctx, m.store, scope)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to load order history, rebuilding", "scope", scope, "error", err)
		orders = []commerce.Order{}
	}
	orders = append([]commerce.Order{order}, orders...)
	if err := cache.PutOrders(ctx, m.store, scope, orders); err != nil {
		m.logger.WarnContext(ctx, "order history write-through failed", "scope", scope, "error", err)
	}

	index, err := cache.AllOrders(ctx, m.store)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to load all-orders index, rebuilding", "error", err)
		index = []cache.ScopedOrder{}
	}
	index = append([]cache.ScopedOrder{{Scope: scope, Order: order}}, index...)
	if err := cache.PutAllOrders(ctx, m.store, index); err != nil {
		m.logger.WarnContext(ctx, "all-orders index write-through failed", "error", err)
	}
}

// updateIndexed refreshes the order's copy in the all-orders index.
func (m *Materializer) updateIndexed(ctx context.Context, order commerce.Order) {
	index, err := cache.AllOrders(ctx, m.store)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to load all-orders index", "error", err)
		return
	}
	for i, indexed := range index {
		if indexed.Order.ID == order.ID {
			index[i].Order = order
			if err := cache.PutAllOrders(ctx, m.store, index); err != nil {
				m.logger.WarnContext(ctx, "all-orders index write-through failed", "error", err)
			}
			return
		}
	}
}

func findOrder(orders []commerce.Order, orderID string) int {
	for i, order := range orders {
		if order.ID == orderID {
			return i
		}
	}
	return -1
}

// syntheticOrderID builds a locally issued identifier: timestamp for
// sortability, uuid fragment for process-wide uniqueness.
func syntheticOrderID(now time.Time) string {
	return fmt.Sprintf("local-%s-%s", now.Format("20060102T150405"), uuid.NewString()[:8])
}
