package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/glowmart/storefront-backend/pkg/enums"
	"github.com/glowmart/storefront-backend/pkg/types"
)

// Order is the buyer-facing order produced from a checkout.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string              `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Currency          enums.Currency      `gorm:"column:currency;type:text;not null;default:'BDT'"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingFee       decimal.Decimal     `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	Tax               decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null"`
	Discount          decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total             decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	CorrelationRef    *string             `gorm:"column:correlation_ref;uniqueIndex:orders_correlation_ref_key"`
	GatewayTxnID      *string             `gorm:"column:gateway_txn_id"`
	ValidationID      *string             `gorm:"column:validation_id"`
	CardBrand         *string             `gorm:"column:card_brand"`
	CardIssuer        *string             `gorm:"column:card_issuer"`
	ShippingAddress   types.Address       `gorm:"column:shipping_address;type:shipping_address_t"`
	BillingAddress    types.Address       `gorm:"column:billing_address;type:shipping_address_t"`
	Notes             *string             `gorm:"column:notes"`
	TrackingNumber    *string             `gorm:"column:tracking_number"`
	EstimatedDelivery *time.Time          `gorm:"column:estimated_delivery"`
	CancelReason      *string             `gorm:"column:cancel_reason"`
	PaidAt            *time.Time          `gorm:"column:paid_at"`
	DeliveredAt       *time.Time          `gorm:"column:delivered_at"`
	CancelledAt       *time.Time          `gorm:"column:cancelled_at"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Events            []OrderEvent        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
