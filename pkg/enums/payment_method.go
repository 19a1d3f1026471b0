package enums

import "fmt"

// PaymentMethod identifies how a buyer chose to settle an order.
type PaymentMethod string

const (
	PaymentMethodSSLCommerce PaymentMethod = "ssl_commerce"
	PaymentMethodBkash       PaymentMethod = "bkash"
	PaymentMethodNagad       PaymentMethod = "nagad"
	PaymentMethodRocket      PaymentMethod = "rocket"
	PaymentMethodCOD         PaymentMethod = "cod"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodSSLCommerce,
	PaymentMethodBkash,
	PaymentMethodNagad,
	PaymentMethodRocket,
	PaymentMethodCOD,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// RequiresGateway reports whether this method settles through the
// hosted payment gateway rather than on delivery.
func (p PaymentMethod) RequiresGateway() bool {
	return p != PaymentMethodCOD
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
