package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/glowmart/storefront-backend/pkg/enums"
	"github.com/glowmart/storefront-backend/pkg/pagination"
	"github.com/glowmart/storefront-backend/pkg/types"
)

// ItemInput is one product/quantity pair on an incoming order.
type ItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// CreateInput captures everything needed to place an order. It carries
// no unit prices; the catalog is the only price source.
type CreateInput struct {
	UserID          uuid.UUID
	Items           []ItemInput
	ShippingAddress types.Address
	BillingAddress  *types.Address
	PaymentMethod   enums.PaymentMethod
	Notes           *string
}

// ListParams pages a buyer's own orders.
type ListParams struct {
	UserID uuid.UUID
	Page   pagination.Params
}

// AdminFilters narrows the back-office order listing.
type AdminFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          pagination.Params
}

// StatusUpdateInput carries an admin fulfillment move.
type StatusUpdateInput struct {
	OrderID           uuid.UUID
	NewStatus         enums.OrderStatus
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	ActorID           uuid.UUID
}

// CancelInput carries a cancellation request.
type CancelInput struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	Reason  string
}
