package orders

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/glowmart/storefront-backend/api/middleware"
	internalorders "github.com/glowmart/storefront-backend/internal/orders"
	"github.com/glowmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/types"
)

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress addressRequest     `json:"shipping_address" validate:"required"`
	BillingAddress  *addressRequest    `json:"billing_address,omitempty"`
	PaymentMethod   string             `json:"payment_method" validate:"required"`
	Notes           *string            `json:"notes,omitempty"`
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,gt=0"`
}

type addressRequest struct {
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	District   string  `json:"district,omitempty"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country,omitempty"`
	Phone      string  `json:"phone" validate:"required"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type updateStatusRequest struct {
	Status            string  `json:"status" validate:"required"`
	TrackingNumber    *string `json:"tracking_number,omitempty"`
	EstimatedDelivery *string `json:"estimated_delivery,omitempty"`
}

func (a addressRequest) toAddress() types.Address {
	country := a.Country
	if country == "" {
		country = "BD"
	}
	return types.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		District:   a.District,
		PostalCode: a.PostalCode,
		Country:    country,
		Phone:      a.Phone,
	}
}

func (req createOrderRequest) toInput(userID uuid.UUID) (internalorders.CreateInput, error) {
	method, err := enums.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return internalorders.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method")
	}

	items := make([]internalorders.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return internalorders.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items = append(items, internalorders.ItemInput{ProductID: productID, Qty: item.Qty})
	}

	input := internalorders.CreateInput{
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress.toAddress(),
		PaymentMethod:   method,
		Notes:           req.Notes,
	}
	if req.BillingAddress != nil {
		billing := req.BillingAddress.toAddress()
		input.BillingAddress = &billing
	}
	return input, nil
}

func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
