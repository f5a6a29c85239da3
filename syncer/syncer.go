package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acmeware/shopsync/cache"
	"github.com/acmeware/shopsync/commerce"
	"github.com/acmeware/shopsync/gateway"
	"github.com/acmeware/shopsync/identity"
	"github.com/acmeware/shopsync/merge"
	"github.com/acmeware/shopsync/messaging"
	"github.com/acmeware/shopsync/messaging/events"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// Source tags which path produced a result. It is resolved once here, at the
// orchestrator boundary, and never re-inferred downstream.
type Source int

const (
	SourceRemote Source = iota
	SourceLocal
)

func (s Source) String() string {
	if s == SourceLocal {
		return "local"
	}
	return "remote"
}

// CartResult is the canonical cart handed back to the caller, tagged with the
// path that produced it.
type CartResult struct {
	Items  commerce.Cart
	Source Source
}

// WishlistResult is the canonical wishlist handed back to the caller.
type WishlistResult struct {
	Entries commerce.Wishlist
	Source  Source
}

// Deps are the orchestrator's collaborators, constructed once and passed in
// explicitly. Credentials binds each identity to its own bearer token so that
// remote calls are always issued as the caller; when nil, every authenticated
// identity uses the gateway's configured credential (single-user embedding).
type Deps struct {
	Store       cache.Store
	Gateway     *gateway.Client
	Credentials gateway.Credentials
	Notifier    messaging.Publisher
	Logger      *slog.Logger
}

// Orchestrator executes commerce operations with the remote-first,
// local-fallback algorithm. It never fails the caller except for validation.
type Orchestrator struct {
	store      cache.Store
	gw         *gateway.Client
	creds      gateway.Credentials
	notifier   messaging.Publisher
	validate   *validator.Validate
	logger     *slog.Logger
	opsCounter metric.Int64Counter
	fbCounter  metric.Int64Counter
}

// New creates an Orchestrator. Notifier defaults to a no-op publisher and
// Logger to slog.Default().
func New(deps Deps) *Orchestrator {
	if deps.Notifier == nil {
		deps.Notifier = messaging.NoopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	meter := otel.Meter("shopsync")
	opsCounter, err := meter.Int64Counter("sync_operations",
		metric.WithDescription("Total number of executed sync operations"))
	if err != nil {
		panic(fmt.Sprintf("failed to create sync_operations counter: %v", err))
	}
	fbCounter, err := meter.Int64Counter("sync_fallbacks",
		metric.WithDescription("Total number of operations recovered on the local fallback path"))
	if err != nil {
		panic(fmt.Sprintf("failed to create sync_fallbacks counter: %v", err))
	}
	return &Orchestrator{
		store:      deps.Store,
		gw:         deps.Gateway,
		creds:      deps.Credentials,
		notifier:   deps.Notifier,
		validate:   validator.New(),
		logger:     deps.Logger.With("component", "syncer"),
		opsCounter: opsCounter,
		fbCounter:  fbCounter,
	}
}

// AddCartItem accumulates a line into the identity's cart: quantities of an
// existing product sum, new products append.
func (o *Orchestrator) AddCartItem(ctx context.Context, id identity.Identity, item commerce.CartItem) (CartResult, error) {
	if err := o.validate.Struct(item); err != nil {
		return CartResult{}, validationError(err.Error())
	}
	return o.cartOp(ctx, id, "add_cart_item",
		func(ctx context.Context, gw *gateway.Client) (commerce.Cart, *gateway.Error) {
			return gw.AddCartItem(ctx, item)
		},
		func(cached commerce.Cart) commerce.Cart {
			return merge.AddCartItem(cached, item)
		})
}

// SetCartItemQuantity overwrites a line's quantity. A quantity <= 0 removes
// the line.
func (o *Orchestrator) SetCartItemQuantity(ctx context.Context, id identity.Identity, productRef string, quantity int32) (CartResult, error) {
	if productRef == "" {
		return CartResult{}, validationError("product reference is required")
	}
	remote := func(ctx context.Context, gw *gateway.Client) (commerce.Cart, *gateway.Error) {
		if quantity <= 0 {
			return gw.DeleteCartItem(ctx, productRef)
		}
		return gw.SetCartItemQuantity(ctx, productRef, quantity)
	}
	return o.cartOp(ctx, id, "set_cart_item_quantity", remote,
		func(cached commerce.Cart) commerce.Cart {
			return merge.SetCartItemQuantity(cached, productRef, quantity)
		})
}

// RemoveCartItem removes a line. No-op if the product is absent.
func (o *Orchestrator) RemoveCartItem(ctx context.Context, id identity.Identity, productRef string) (CartResult, error) {
	if productRef == "" {
		return CartResult{}, validationError("product reference is required")
	}
	return o.cartOp(ctx, id, "remove_cart_item",
		func(ctx context.Context, gw *gateway.Client) (commerce.Cart, *gateway.Error) {
			return gw.DeleteCartItem(ctx, productRef)
		},
		func(cached commerce.Cart) commerce.Cart {
			return merge.RemoveCartItem(cached, productRef)
		})
}

// ClearCart empties the identity's cart.
func (o *Orchestrator) ClearCart(ctx context.Context, id identity.Identity) (CartResult, error) {
	return o.cartOp(ctx, id, "clear_cart",
		func(ctx context.Context, gw *gateway.Client) (commerce.Cart, *gateway.Error) {
			return gw.ClearCart(ctx)
		},
		func(commerce.Cart) commerce.Cart {
			return merge.ClearCart()
		})
}

// Cart reads the identity's cart: remote copy written through when reachable,
// cached copy otherwise.
func (o *Orchestrator) Cart(ctx context.Context, id identity.Identity) (CartResult, error) {
	return o.cartOp(ctx, id, "read_cart",
		func(ctx context.Context, gw *gateway.Client) (commerce.Cart, *gateway.Error) {
			return gw.Cart(ctx)
		},
		func(cached commerce.Cart) commerce.Cart {
			return cached
		})
}

// AddWishlistEntry saves a product. Idempotent: re-adding is a no-op.
func (o *Orchestrator) AddWishlistEntry(ctx context.Context, id identity.Identity, entry commerce.WishlistEntry) (WishlistResult, error) {
	if err := o.validate.Struct(entry); err != nil {
		return WishlistResult{}, validationError(err.Error())
	}
	return o.wishlistOp(ctx, id, "add_wishlist_entry",
		func(ctx context.Context, gw *gateway.Client) (commerce.Wishlist, *gateway.Error) {
			return gw.AddWishlistEntry(ctx, entry)
		},
		func(cached commerce.Wishlist) commerce.Wishlist {
			return merge.AddWishlistEntry(cached, entry)
		})
}

// RemoveWishlistEntry removes a saved product. No-op if absent.
func (o *Orchestrator) RemoveWishlistEntry(ctx context.Context, id identity.Identity, productRef string) (WishlistResult, error) {
	if productRef == "" {
		return WishlistResult{}, validationError("product reference is required")
	}
	return o.wishlistOp(ctx, id, "remove_wishlist_entry",
		func(ctx context.Context, gw *gateway.Client) (commerce.Wishlist, *gateway.Error) {
			return gw.DeleteWishlistEntry(ctx, productRef)
		},
		func(cached commerce.Wishlist) commerce.Wishlist {
			return merge.RemoveWishlistEntry(cached, productRef)
		})
}

// Wishlist reads the identity's wishlist.
func (o *Orchestrator) Wishlist(ctx context.Context, id identity.Identity) (WishlistResult, error) {
	return o.wishlistOp(ctx, id, "read_wishlist",
		func(ctx context.Context, gw *gateway.Client) (commerce.Wishlist, *gateway.Error) {
			return gw.Wishlist(ctx)
		},
		func(cached commerce.Wishlist) commerce.Wishlist {
			return cached
		})
}

// Refresh warms the local cache from the remote system: cart, wishlist and
// order history fetched concurrently and written through. Failures are
// advisory; the cached state simply stays as it was. For identities without
// a remote credential there is nothing to fetch.
func (o *Orchestrator) Refresh(ctx context.Context, id identity.Identity) error {
	gw, ok := o.client(id)
	if !ok {
		return nil
	}
	scope := id.Scope()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cart, gerr := gw.Cart(gCtx)
		if gerr != nil {
			o.logger.DebugContext(gCtx, "refresh: cart fetch skipped", "scope", scope, "kind", gerr.Kind.String())
			return nil
		}
		o.writeCart(gCtx, scope, cart)
		return nil
	})
	g.Go(func() error {
		list, gerr := gw.Wishlist(gCtx)
		if gerr != nil {
			o.logger.DebugContext(gCtx, "refresh: wishlist fetch skipped", "scope", scope, "kind", gerr.Kind.String())
			return nil
		}
		o.writeWishlist(gCtx, scope, list)
		return nil
	})
	g.Go(func() error {
		orders, gerr := gw.Orders(gCtx)
		if gerr != nil {
			o.logger.DebugContext(gCtx, "refresh: orders fetch skipped", "scope", scope, "kind", gerr.Kind.String())
			return nil
		}
		if err := cache.PutOrders(gCtx, o.store, scope, orders); err != nil {
			o.logger.WarnContext(gCtx, "refresh: orders write-through failed", "scope", scope, "error", err)
		}
		return nil
	})

	return g.Wait()
}

// client resolves the gateway bound to the identity's own credential. Guests
// and identities without a token have no remote representation: their remote
// attempt is skipped entirely, so one caller's request can never execute
// against another caller's remote state.
func (o *Orchestrator) client(id identity.Identity) (*gateway.Client, bool) {
	if id.IsGuest() {
		return nil, false
	}
	if o.creds == nil {
		return o.gw, true
	}
	token := o.creds.Token(id)
	if token == "" {
		return nil, false
	}
	return o.gw.WithToken(token), true
}

// cartOp runs one cart operation through the remote-first algorithm. The
// entire read-merge-write sequence runs without yielding to another
// invocation, so no lock is needed around the cache.
func (o *Orchestrator) cartOp(ctx context.Context, id identity.Identity, opName string,
	remote func(context.Context, *gateway.Client) (commerce.Cart, *gateway.Error),
	local func(commerce.Cart) commerce.Cart,
) (CartResult, error) {
	scope := id.Scope()
	o.opsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", opName)))

	var gerr *gateway.Error
	if gw, ok := o.client(id); ok {
		var canonical commerce.Cart
		canonical, gerr = remote(ctx, gw)
		if gerr == nil {
			o.writeCart(ctx, scope, canonical)
			return CartResult{Items: canonical, Source: SourceRemote}, nil
		}
		if !gerr.Recoverable() {
			return CartResult{}, validationError(gerr.Detail)
		}
	}

	cached, err := cache.Cart(ctx, o.store, scope)
	if err != nil {
		o.logger.WarnContext(ctx, "cache read failed, starting from empty cart", "op", opName, "scope", scope, "error", err)
		cached = commerce.Cart{}
	}
	mergedState := local(cached)
	o.writeCart(ctx, scope, mergedState)
	if gerr != nil {
		o.noteFallback(ctx, scope, cache.EntityCart, opName, gerr)
	}
	return CartResult{Items: mergedState, Source: SourceLocal}, nil
}

func (o *Orchestrator) wishlistOp(ctx context.Context, id identity.Identity, opName string,
	remote func(context.Context, *gateway.Client) (commerce.Wishlist, *gateway.Error),
	local func(commerce.Wishlist) commerce.Wishlist,
) (WishlistResult, error) {
	scope := id.Scope()
	o.opsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", opName)))

	var gerr *gateway.Error
	if gw, ok := o.client(id); ok {
		var canonical commerce.Wishlist
		canonical, gerr = remote(ctx, gw)
		if gerr == nil {
			o.writeWishlist(ctx, scope, canonical)
			return WishlistResult{Entries: canonical, Source: SourceRemote}, nil
		}
		if !gerr.Recoverable() {
			return WishlistResult{}, validationError(gerr.Detail)
		}
	}

	cached, err := cache.Wishlist(ctx, o.store, scope)
	if err != nil {
		o.logger.WarnContext(ctx, "cache read failed, starting from empty wishlist", "op", opName, "scope", scope, "error", err)
		cached = commerce.Wishlist{}
	}
	mergedState := local(cached)
	o.writeWishlist(ctx, scope, mergedState)
	if gerr != nil {
		o.noteFallback(ctx, scope, cache.EntityWishlist, opName, gerr)
	}
	return WishlistResult{Entries: mergedState, Source: SourceLocal}, nil
}

// writeCart persists the canonical cart. Cache write failures degrade to a
// log line: the caller still gets a usable result.
func (o *Orchestrator) writeCart(ctx context.Context, scope identity.Scope, cart commerce.Cart) {
	if err := cache.PutCart(ctx, o.store, scope, cart); err != nil {
		o.logger.WarnContext(ctx, "cart write-through failed", "scope", scope, "error", err)
	}
}

func (o *Orchestrator) writeWishlist(ctx context.Context, scope identity.Scope, list commerce.Wishlist) {
	if err := cache.PutWishlist(ctx, o.store, scope, list); err != nil {
		o.logger.WarnContext(ctx, "wishlist write-through failed", "scope", scope, "error", err)
	}
}

// noteFallback records that an operation was recovered locally: counter, log
// line and a best-effort advisory event.
func (o *Orchestrator) noteFallback(ctx context.Context, scope identity.Scope, entity cache.Entity, opName string, gerr *gateway.Error) {
	o.fbCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", opName),
		attribute.String("kind", gerr.Kind.String()),
	))
	o.logger.InfoContext(ctx, "remote unavailable, operation applied locally",
		"op", opName, "entity", entity, "kind", gerr.Kind.String())

	event := events.SyncFallbackEvent{
		Scope:  string(scope),
		Entity: string(entity),
		Op:     opName,
		Reason: gerr.Kind.String(),
		At:     time.Now().UTC(),
	}
	if err := o.notifier.Publish(ctx, event); err != nil {
		o.logger.WarnContext(ctx, "failed to publish fallback advisory", "op", opName, "error", err)
	}
}

func validationError(detail string) error {
	if detail == "" {
		return ErrValidation
	}
	return fmt.Errorf("%s: %w", detail, ErrValidation)
}
