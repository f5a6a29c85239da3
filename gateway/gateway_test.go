package gateway

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/acmeware/shopsync/commerce"
	"github.com/acmeware/shopsync/config"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	remote := config.RemoteConfig{BaseURL: srv.URL, Token: "test-token", Timeout: timeout}
	return NewClient(remote, config.DefaultCircuitBreaker(), slog.Default())
}

func Test_Client_Cart(t *testing.T) {
	mux := chi.NewRouter()
	mux.Get("/api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"product_ref":"p1","unit_price":19.99,"quantity":2}]`))
	})

	client := testClient(t, mux, time.Second)
	cart, gerr := client.Cart(t.Context())

	require.Nil(t, gerr)
	require.Len(t, cart, 1)
	assert.Equal(t, "p1", cart[0].ProductRef)
	assert.Equal(t, int32(2), cart[0].Quantity)
}

func Test_Client_AddCartItem(t *testing.T) {
	mux := chi.NewRouter()
	mux.Post("/api/v1/cart/items", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"product_ref":"p1","quantity":5}]`))
	})

	client := testClient(t, mux, time.Second)
	cart, gerr := client.AddCartItem(t.Context(), commerce.CartItem{ProductRef: "p1", Quantity: 2})

	require.Nil(t, gerr)
	require.Len(t, cart, 1)
	assert.Equal(t, int32(5), cart[0].Quantity)
}

func Test_Client_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantDetail string
	}{
		{name: "401 is auth rejected", status: http.StatusUnauthorized, body: `{"error":"token expired"}`, wantKind: KindAuthRejected, wantDetail: "token expired"},
		{name: "403 is auth rejected", status: http.StatusForbidden, wantKind: KindAuthRejected},
		{name: "404 is not found", status: http.StatusNotFound, body: `{"error":"no such product"}`, wantKind: KindNotFound, wantDetail: "no such product"},
		{name: "400 is validation", status: http.StatusBadRequest, body: `{"error":"quantity must be positive"}`, wantKind: KindValidation, wantDetail: "quantity must be positive"},
		{name: "422 is validation", status: http.StatusUnprocessableEntity, body: `{"error":"unknown product"}`, wantKind: KindValidation, wantDetail: "unknown product"},
		{name: "500 is unavailable", status: http.StatusInternalServerError, wantKind: KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := chi.NewRouter()
			mux.Get("/api/v1/wishlist", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			})

			client := testClient(t, mux, time.Second)
			_, gerr := client.Wishlist(t.Context())

			require.NotNil(t, gerr)
			assert.Equal(t, tt.wantKind, gerr.Kind)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, gerr.Detail)
			}
		})
	}
}

func Test_Client_TimeoutIsUnavailable(t *testing.T) {
	mux := chi.NewRouter()
	mux.Delete("/api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(400 * time.Millisecond)
	})

	client := testClient(t, mux, 50*time.Millisecond)
	_, gerr := client.ClearCart(t.Context())

	require.NotNil(t, gerr)
	assert.Equal(t, KindUnavailable, gerr.Kind)
	assert.True(t, gerr.Recoverable())
}

func Test_Client_ValidationIsNotRecoverable(t *testing.T) {
	gerr := &Error{Kind: KindValidation, Detail: "bad input"}
	assert.False(t, gerr.Recoverable())

	for _, kind := range []Kind{KindUnavailable, KindAuthRejected, KindNotFound} {
		assert.True(t, (&Error{Kind: kind}).Recoverable())
	}
}

func Test_Client_CircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	mux := chi.NewRouter()
	mux.Get("/api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	remote := config.RemoteConfig{BaseURL: srv.URL, Timeout: time.Second}
	cb := config.CircuitBreakerConfig{ConsecutiveFailures: 1, ErrorRatePercent: 100, OpenTimeout: time.Minute}
	client := NewClient(remote, cb, slog.Default())

	for range 2 {
		_, gerr := client.Cart(t.Context())
		require.NotNil(t, gerr)
		assert.Equal(t, KindUnavailable, gerr.Kind)
	}

	// Breaker tripped: the next call must short-circuit without a request.
	_, gerr := client.Cart(t.Context())
	require.NotNil(t, gerr)
	assert.Equal(t, KindUnavailable, gerr.Kind)
	assert.Equal(t, "circuit breaker open", gerr.Detail)
	assert.Equal(t, int32(2), hits.Load())
}

func Test_Client_NotFoundDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	mux := chi.NewRouter()
	mux.Get("/api/v1/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	remote := config.RemoteConfig{BaseURL: srv.URL, Timeout: time.Second}
	cb := config.CircuitBreakerConfig{ConsecutiveFailures: 1, ErrorRatePercent: 100, OpenTimeout: time.Minute}
	client := NewClient(remote, cb, slog.Default())

	for range 5 {
		_, gerr := client.Order(t.Context(), "o-1")
		require.NotNil(t, gerr)
		assert.Equal(t, KindNotFound, gerr.Kind)
	}
	assert.Equal(t, int32(5), hits.Load())
}

func Test_Client_WithToken(t *testing.T) {
	var seen string
	mux := chi.NewRouter()
	mux.Get("/api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	client := testClient(t, mux, time.Second)
	_, gerr := client.WithToken("session-abc").Cart(t.Context())

	require.Nil(t, gerr)
	assert.Equal(t, "Bearer session-abc", seen)
}
