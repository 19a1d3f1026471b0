package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/glowmart/storefront-backend/internal/catalog"
	"github.com/glowmart/storefront-backend/internal/pricing"
	"github.com/glowmart/storefront-backend/pkg/config"
	"github.com/glowmart/storefront-backend/pkg/db"
	"github.com/glowmart/storefront-backend/pkg/db/models"
	"github.com/glowmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/pagination"
	"github.com/glowmart/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductView, error)
}

type cartClearer interface {
	ClearByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type quoter interface {
	QuoteFor(lines []pricing.Line) (*pricing.Quote, error)
}

type eventRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, eventType enums.OrderEventType, actor *uuid.UUID, detail types.JSONMap) error
}

// Page is one cursor page of orders.
type Page struct {
	Orders     []models.Order
	NextCursor string
}

// Service implements the order lifecycle.
type Service struct {
	repo      *Repository
	tx        txRunner
	catalog   catalogReader
	cart      cartClearer
	pricing   quoter
	events    eventRecorder
	numbers   config.OrderNumberConfig
	newNumber func(prefix string, now time.Time) (string, error)
}

// NewService builds the order service with its collaborators.
func NewService(repo *Repository, tx txRunner, cat catalogReader, cartRepo cartClearer, quote quoter, events eventRecorder, numbers config.OrderNumberConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if quote == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if events == nil {
		return nil, fmt.Errorf("event recorder required")
	}
	if numbers.Prefix == "" {
		numbers.Prefix = "GM"
	}
	if numbers.MaxAttempts <= 0 {
		numbers.MaxAttempts = 5
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		catalog:   cat,
		cart:      cartRepo,
		pricing:   quote,
		events:    events,
		numbers:   numbers,
		newNumber: NewOrderNumber,
	}, nil
}

// Create validates the items against the live catalog, prices the order,
// and persists it (pending, pending) in one transaction along with the
// cart clear. Stock is checked, not reserved.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	lines := make([]pricing.Line, 0, len(input.Items))
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		view, err := s.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !view.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is not available", view.Name)).
				WithDetails(map[string]any{"product_id": view.ID})
		}
		if item.Qty > view.AvailableQty {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %s", view.Name)).
				WithDetails(map[string]any{
					"product_id": view.ID,
					"requested":  item.Qty,
					"available":  view.AvailableQty,
				})
		}

		lines = append(lines, pricing.Line{UnitPrice: view.UnitPrice, Qty: item.Qty})
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			ProductID: view.ID,
			Name:      view.Name,
			Slug:      view.Slug,
			UnitPrice: view.UnitPrice,
			Qty:       item.Qty,
			LineTotal: view.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))),
		})
	}

	quote, err := s.pricing.QuoteFor(lines)
	if err != nil {
		return nil, err
	}

	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          input.UserID,
		Currency:        enums.CurrencyBDT,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		Subtotal:        quote.Subtotal,
		ShippingFee:     quote.ShippingFee,
		Tax:             quote.Tax,
		Discount:        quote.Discount,
		Total:           quote.Total,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  billing,
		Notes:           input.Notes,
		Items:           items,
	}

	// Each attempt runs in its own transaction. On Postgres a unique
	// violation poisons the surrounding transaction, so a retry inside
	// it could never succeed; restarting from scratch keeps the cart
	// clear and the created event atomic with the winning insert.
	for attempt := 0; attempt < s.numbers.MaxAttempts; attempt++ {
		number, numErr := s.newNumber(s.numbers.Prefix, time.Now())
		if numErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, numErr, "generate order number")
		}
		order.OrderNumber = number

		txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
				return err
			}
			if err := s.cart.ClearByUser(ctx, tx, input.UserID); err != nil {
				return err
			}
			return s.events.Record(ctx, tx, order.ID, enums.OrderEventCreated, &input.UserID, types.JSONMap{
				"order_number":   order.OrderNumber,
				"payment_method": order.PaymentMethod.String(),
				"total":          order.Total.String(),
			})
		})
		if txErr == nil {
			return order, nil
		}
		if db.IsUniqueViolation(txErr, "orders_order_number_key") {
			continue
		}
		if pkgerrors.As(txErr) != nil {
			return nil, txErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "create order")
	}

	return nil, pkgerrors.New(pkgerrors.CodeInternal, "order number space exhausted")
}

// List returns a cursor page of the buyer's own orders.
func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Page.Limit)

	rows, err := s.repo.ListByUser(ctx, params.UserID, cursor, pagination.LimitWithBuffer(params.Page.Limit))
	if err != nil {
		return nil, err
	}
	return buildPage(rows, limit), nil
}

// AdminList returns a filtered cursor page over all orders.
func (s *Service) AdminList(ctx context.Context, filters AdminFilters) (*Page, error) {
	cursor, err := pagination.ParseCursor(filters.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(filters.Page.Limit)

	rows, err := s.repo.AdminList(ctx, filters, cursor, pagination.LimitWithBuffer(filters.Page.Limit))
	if err != nil {
		return nil, err
	}
	return buildPage(rows, limit), nil
}

// Detail loads one order; the controller enforces ownership.
func (s *Service) Detail(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

// UpdateStatus applies an admin fulfillment move, forward-only.
func (s *Service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Order, error) {
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, input.NewStatus) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, input.NewStatus))
	}

	fields := StatusFields{
		TrackingNumber:    input.TrackingNumber,
		EstimatedDelivery: input.EstimatedDelivery,
	}
	if input.NewStatus == enums.OrderStatusDelivered {
		now := time.Now().UTC()
		fields.DeliveredAt = &now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.WithTx(tx).AdvanceStatus(ctx, input.OrderID, order.Status, input.NewStatus, fields)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		detail := types.JSONMap{
			"from": order.Status.String(),
			"to":   input.NewStatus.String(),
		}
		if input.TrackingNumber != nil {
			detail["tracking_number"] = *input.TrackingNumber
		}
		if input.EstimatedDelivery != nil {
			detail["estimated_delivery"] = input.EstimatedDelivery.UTC().Format(time.RFC3339)
		}
		return s.events.Record(ctx, tx, input.OrderID, enums.OrderEventStatusChanged, &input.ActorID, detail)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, input.OrderID)
}

// Cancel cancels the buyer's order while cancellation is still legal.
func (s *Service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if !CanCancel(order.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "paid orders require a refund, not a cancellation")
	}

	var reason *string
	if input.Reason != "" {
		reason = &input.Reason
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cancelled, err := s.repo.WithTx(tx).MarkCancelled(ctx, input.OrderID, reason, time.Now().UTC())
		if err != nil {
			return err
		}
		if !cancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}
		return s.events.Record(ctx, tx, input.OrderID, enums.OrderEventCancelled, &input.UserID, types.JSONMap{
			"reason": input.Reason,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, input.OrderID)
}

// ConfirmCOD confirms a pending cash-on-delivery order. Payment stays
// pending until the courier settles it.
func (s *Service) ConfirmCOD(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.PaymentMethod != enums.PaymentMethodCOD {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not cash on delivery")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		confirmed, err := s.repo.WithTx(tx).ConfirmCOD(ctx, orderID)
		if err != nil {
			return err
		}
		if !confirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting confirmation")
		}
		return s.events.Record(ctx, tx, orderID, enums.OrderEventCODConfirmed, &actorID, nil)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, orderID)
}

func buildPage(rows []models.Order, limit int) *Page {
	page := &Page{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page
}
