package payments

import "github.com/glowmart/storefront-backend/pkg/enums"

// MethodInfo describes one way a buyer can pay.
type MethodInfo struct {
	Code    enums.PaymentMethod `json:"code"`
	Label   string              `json:"label"`
	Gateway bool                `json:"gateway"`
}

// Methods lists the payment methods the storefront accepts.
func Methods() []MethodInfo {
	return []MethodInfo{
		{Code: enums.PaymentMethodSSLCommerce, Label: "Card / Net Banking (SSLCommerz)", Gateway: true},
		{Code: enums.PaymentMethodBkash, Label: "bKash", Gateway: true},
		{Code: enums.PaymentMethodNagad, Label: "Nagad", Gateway: true},
		{Code: enums.PaymentMethodRocket, Label: "Rocket", Gateway: true},
		{Code: enums.PaymentMethodCOD, Label: "Cash on Delivery", Gateway: false},
	}
}
