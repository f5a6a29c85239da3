package commerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Round2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 12.005, want: 12.01},
		{in: 12.004, want: 12.0},
		{in: 0, want: 0},
		{in: 120 * 0.10, want: 12.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round2(tt.in), 1e-9)
	}
}

func Test_Cart_ItemsTotal(t *testing.T) {
	cart := Cart{
		{ProductRef: "p1", UnitPrice: 19.99, Quantity: 3},
		{ProductRef: "p2", UnitPrice: 0.10, Quantity: 3},
	}

	assert.InDelta(t, 60.27, cart.ItemsTotal(), 1e-9)
}

func Test_OrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{name: "pending to processing", from: StatusPending, to: StatusProcessing, want: true},
		{name: "processing to shipped", from: StatusProcessing, to: StatusShipped, want: true},
		{name: "shipped to delivered", from: StatusShipped, to: StatusDelivered, want: true},
		{name: "skipping forward is allowed", from: StatusPending, to: StatusShipped, want: true},
		{name: "backward is rejected", from: StatusShipped, to: StatusProcessing, want: false},
		{name: "cancel from any state", from: StatusProcessing, to: StatusCancelled, want: true},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusPending, want: false},
		{name: "same status is a no-op", from: StatusShipped, to: StatusShipped, want: true},
		{name: "unknown status is rejected", from: StatusPending, to: OrderStatus("misplaced"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}
