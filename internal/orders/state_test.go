package orders

import (
	"testing"

	"github.com/glowmart/storefront-backend/pkg/enums"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed, true},
		{enums.OrderStatusConfirmed, enums.OrderStatusProcessing, true},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusPending, enums.OrderStatusProcessing, false},
		{enums.OrderStatusConfirmed, enums.OrderStatusPending, false},
		{enums.OrderStatusDelivered, enums.OrderStatusShipped, false},
		{enums.OrderStatusCancelled, enums.OrderStatusConfirmed, false},
		{enums.OrderStatusPending, enums.OrderStatusDelivered, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanCancel(t *testing.T) {
	cancellable := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
	}
	for _, status := range cancellable {
		if !CanCancel(status) {
			t.Errorf("expected %s to be cancellable", status)
		}
	}

	final := []enums.OrderStatus{
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	}
	for _, status := range final {
		if CanCancel(status) {
			t.Errorf("expected %s to be non-cancellable", status)
		}
	}
}
