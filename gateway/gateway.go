// Package gateway wraps the authenticated network calls to the authoritative
// commerce backend. Each call is bounded by a fixed timeout and reports
// success or a typed failure; retry and fallback policy live entirely in the
// callers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/acmeware/shopsync/commerce"
	"github.com/acmeware/shopsync/config"
	"github.com/sony/gobreaker/v2"
)

// Client is the remote state gateway. It is stateless apart from the shared
// circuit breaker and safe for concurrent use across all operations.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewClient builds a gateway from explicit configuration. The HTTP client's
// timeout is fixed; expiry is reported as KindUnavailable.
func NewClient(remote config.RemoteConfig, cb config.CircuitBreakerConfig, logger *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: remote.Timeout},
		baseURL: strings.TrimSuffix(remote.BaseURL, "/"),
		token:   remote.Token,
		logger:  logger.With("component", "gateway"),
		breaker: newBreaker(cb),
	}
}

// WithToken returns a copy of the client carrying the given bearer
// credential. The HTTP client and circuit breaker are shared.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

func newBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[[]byte] {
	st := gobreaker.Settings{
		Name:        "remote-gateway-cb",
		MaxRequests: 3,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.TotalSuccesses+counts.TotalFailures > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.TotalSuccesses+counts.TotalFailures)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var gerr *Error
			if !errors.As(err, &gerr) {
				return false
			}
			// Validation and NotFound are remote verdicts, not system
			// failures; only Unavailable and AuthRejected trip the breaker.
			switch gerr.Kind {
			case KindUnavailable, KindAuthRejected:
				return false
			default:
				return true
			}
		},
	}
	return gobreaker.NewCircuitBreaker[[]byte](st)
}

// Cart reads the current remote cart.
func (c *Client) Cart(ctx context.Context) (commerce.Cart, *Error) {
	return decodeCart(c.do(ctx, http.MethodGet, "/api/v1/cart", nil))
}

// AddCartItem accumulates a line into the remote cart and returns the
// canonical cart.
func (c *Client) AddCartItem(ctx context.Context, item commerce.CartItem) (commerce.Cart, *Error) {
	return decodeCart(c.do(ctx, http.MethodPost, "/api/v1/cart/items", item))
}

// SetCartItemQuantity overwrites a line's quantity remotely.
func (c *Client) SetCartItemQuantity(ctx context.Context, productRef string, quantity int32) (commerce.Cart, *Error) {
	body := map[string]any{"quantity": quantity}
	return decodeCart(c.do(ctx, http.MethodPut, "/api/v1/cart/items/"+url.PathEscape(productRef), body))
}

// DeleteCartItem removes a line from the remote cart.
func (c *Client) DeleteCartItem(ctx context.Context, productRef string) (commerce.Cart, *Error) {
	return decodeCart(c.do(ctx, http.MethodDelete, "/api/v1/cart/items/"+url.PathEscape(productRef), nil))
}

// ClearCart empties the remote cart.
func (c *Client) ClearCart(ctx context.Context) (commerce.Cart, *Error) {
	if _, gerr := c.do(ctx, http.MethodDelete, "/api/v1/cart", nil); gerr != nil {
		return nil, gerr
	}
	return commerce.Cart{}, nil
}

// Wishlist reads the current remote wishlist.
func (c *Client) Wishlist(ctx context.Context) (commerce.Wishlist, *Error) {
	return decodeWishlist(c.do(ctx, http.MethodGet, "/api/v1/wishlist", nil))
}

// AddWishlistEntry saves a product remotely. Idempotent on the remote side.
func (c *Client) AddWishlistEntry(ctx context.Context, entry commerce.WishlistEntry) (commerce.Wishlist, *Error) {
	return decodeWishlist(c.do(ctx, http.MethodPost, "/api/v1/wishlist", entry))
}

// DeleteWishlistEntry removes a saved product remotely.
func (c *Client) DeleteWishlistEntry(ctx context.Context, productRef string) (commerce.Wishlist, *Error) {
	return decodeWishlist(c.do(ctx, http.MethodDelete, "/api/v1/wishlist/"+url.PathEscape(productRef), nil))
}

// OrderDraft is the payload for remote order creation.
type OrderDraft struct {
	Items           []commerce.CartItem `json:"items"`
	ShippingAddress string              `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	Pricing         commerce.Pricing    `json:"pricing"`
}

// CreateOrder submits the draft and returns the canonical order carrying the
// remote-issued id.
func (c *Client) CreateOrder(ctx context.Context, draft OrderDraft) (*commerce.Order, *Error) {
	return decodeOrder(c.do(ctx, http.MethodPost, "/api/v1/orders", draft))
}

// Order fetches a single order by its canonical id.
func (c *Client) Order(ctx context.Context, id string) (*commerce.Order, *Error) {
	return decodeOrder(c.do(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(id), nil))
}

// Orders lists the authenticated identity's orders.
func (c *Client) Orders(ctx context.Context) ([]commerce.Order, *Error) {
	payload, gerr := c.do(ctx, http.MethodGet, "/api/v1/orders", nil)
	if gerr != nil {
		return nil, gerr
	}
	var orders []commerce.Order
	if err := json.Unmarshal(payload, &orders); err != nil {
		return nil, &Error{Kind: KindUnavailable, Detail: "malformed orders response", Err: err}
	}
	return orders, nil
}

// UpdateOrderStatus applies a status transition remotely.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status commerce.OrderStatus) (*commerce.Order, *Error) {
	body := map[string]any{"status": string(status)}
	return decodeOrder(c.do(ctx, http.MethodPatch, "/api/v1/orders/"+url.PathEscape(id)+"/status", body))
}

// do performs one breaker-guarded HTTP exchange and returns the raw response
// body. No retries: a failed attempt is the caller's signal to fall back.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, *Error) {
	payload, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	if err == nil {
		return payload, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.DebugContext(ctx, "circuit breaker short-circuited remote call", "method", method, "path", path)
		return nil, &Error{Kind: KindUnavailable, Detail: "circuit breaker open", Err: err}
	}
	if gerr, ok := AsError(err); ok {
		return nil, gerr
	}
	return nil, &Error{Kind: KindUnavailable, Err: err}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Detail: "unencodable request body", Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and transport failures are indistinguishable to callers.
		return nil, &Error{Kind: KindUnavailable, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Kind: KindAuthRejected, Detail: errorDetail(payload)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Detail: errorDetail(payload)}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, &Error{Kind: KindValidation, Detail: errorDetail(payload)}
	default:
		return nil, &Error{Kind: KindUnavailable, Detail: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
}

// errorDetail extracts the user-facing message from an error response body.
func errorDetail(payload []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(payload))
}

func decodeCart(payload []byte, gerr *Error) (commerce.Cart, *Error) {
	if gerr != nil {
		return nil, gerr
	}
	var cart commerce.Cart
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &cart); err != nil {
			return nil, &Error{Kind: KindUnavailable, Detail: "malformed cart response", Err: err}
		}
	}
	if cart == nil {
		cart = commerce.Cart{}
	}
	return cart, nil
}

func decodeWishlist(payload []byte, gerr *Error) (commerce.Wishlist, *Error) {
	if gerr != nil {
		return nil, gerr
	}
	var list commerce.Wishlist
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &list); err != nil {
			return nil, &Error{Kind: KindUnavailable, Detail: "malformed wishlist response", Err: err}
		}
	}
	if list == nil {
		list = commerce.Wishlist{}
	}
	return list, nil
}

func decodeOrder(payload []byte, gerr *Error) (*commerce.Order, *Error) {
	if gerr != nil {
		return nil, gerr
	}
	var order commerce.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, &Error{Kind: KindUnavailable, Detail: "malformed order response", Err: err}
	}
	return &order, nil
}
