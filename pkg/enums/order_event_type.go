package enums

import "fmt"

// OrderEventType labels the audit trail entries recorded against an
// order as it moves through its lifecycle.
type OrderEventType string

const (
	OrderEventCreated          OrderEventType = "created"
	OrderEventStatusChanged    OrderEventType = "status_changed"
	OrderEventPaymentInitiated OrderEventType = "payment_initiated"
	OrderEventPaymentVerified  OrderEventType = "payment_verified"
	OrderEventPaymentFailed    OrderEventType = "payment_failed"
	OrderEventPaymentLate      OrderEventType = "late_success"
	OrderEventCancelled        OrderEventType = "cancelled"
	OrderEventOversold         OrderEventType = "oversold"
	OrderEventCODConfirmed     OrderEventType = "cod_confirmed"
)

var validOrderEventTypes = []OrderEventType{
	OrderEventCreated,
	OrderEventStatusChanged,
	OrderEventPaymentInitiated,
	OrderEventPaymentVerified,
	OrderEventPaymentFailed,
	OrderEventPaymentLate,
	OrderEventCancelled,
	OrderEventOversold,
	OrderEventCODConfirmed,
}

// String implements fmt.Stringer.
func (o OrderEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderEventType.
func (o OrderEventType) IsValid() bool {
	for _, candidate := range validOrderEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderEventType converts raw input into an OrderEventType.
func ParseOrderEventType(value string) (OrderEventType, error) {
	for _, candidate := range validOrderEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order event type %q", value)
}
