package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	internalorders "github.com/glowmart/storefront-backend/internal/orders"
	"github.com/glowmart/storefront-backend/pkg/db/models"
	"github.com/glowmart/storefront-backend/pkg/types"
)

type orderResponse struct {
	ID                uuid.UUID            `json:"id"`
	OrderNumber       string               `json:"order_number"`
	Status            string               `json:"status"`
	PaymentStatus     string               `json:"payment_status"`
	PaymentMethod     string               `json:"payment_method"`
	Currency          string               `json:"currency"`
	Subtotal          decimal.Decimal      `json:"subtotal"`
	ShippingFee       decimal.Decimal      `json:"shipping_fee"`
	Tax               decimal.Decimal      `json:"tax"`
	Discount          decimal.Decimal      `json:"discount"`
	Total             decimal.Decimal      `json:"total"`
	Address           types.Address        `json:"shipping_address"`
	BillingAddress    types.Address        `json:"billing_address"`
	Notes             *string              `json:"notes,omitempty"`
	TrackingNumber    *string              `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time           `json:"estimated_delivery,omitempty"`
	CancelReason      *string              `json:"cancel_reason,omitempty"`
	Items             []orderItemResponse  `json:"items"`
	Events            []orderEventResponse `json:"events,omitempty"`
	PaidAt            *time.Time           `json:"paid_at,omitempty"`
	DeliveredAt       *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

type orderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type orderEventResponse struct {
	Type      string        `json:"type"`
	Detail    types.JSONMap `json:"detail,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		Status:            order.Status.String(),
		PaymentStatus:     order.PaymentStatus.String(),
		PaymentMethod:     order.PaymentMethod.String(),
		Currency:          order.Currency.String(),
		Subtotal:          order.Subtotal,
		ShippingFee:       order.ShippingFee,
		Tax:               order.Tax,
		Discount:          order.Discount,
		Total:             order.Total,
		Address:           order.ShippingAddress,
		BillingAddress:    order.BillingAddress,
		Notes:             order.Notes,
		TrackingNumber:    order.TrackingNumber,
		EstimatedDelivery: order.EstimatedDelivery,
		CancelReason:      order.CancelReason,
		PaidAt:            order.PaidAt,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		CreatedAt:         order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
			LineTotal: item.LineTotal,
		})
	}
	for _, event := range order.Events {
		resp.Events = append(resp.Events, orderEventResponse{
			Type:      event.Type.String(),
			Detail:    event.Detail,
			CreatedAt: event.CreatedAt,
		})
	}
	return resp
}

func newPageResponse(page *internalorders.Page) orderPageResponse {
	resp := orderPageResponse{
		Orders:     make([]orderResponse, 0, len(page.Orders)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Orders {
		resp.Orders = append(resp.Orders, newOrderResponse(&page.Orders[i]))
	}
	return resp
}
