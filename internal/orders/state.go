package orders

import "github.com/glowmart/storefront-backend/pkg/enums"

// fulfillment moves strictly forward; cancellation is terminal and only
// reachable from the early states.
var nextStatus = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusPending:    enums.OrderStatusConfirmed,
	enums.OrderStatusConfirmed:  enums.OrderStatusProcessing,
	enums.OrderStatusProcessing: enums.OrderStatusShipped,
	enums.OrderStatusShipped:    enums.OrderStatusDelivered,
}

// CanTransition reports whether an order may move from one fulfillment
// status to another. Only single forward steps are legal.
func CanTransition(from, to enums.OrderStatus) bool {
	next, ok := nextStatus[from]
	return ok && next == to
}

// CanCancel reports whether a buyer may still cancel from the given
// fulfillment status. Shipped and later are past the point of no return.
func CanCancel(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusProcessing:
		return true
	default:
		return false
	}
}
