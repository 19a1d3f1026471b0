package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowmart/storefront-backend/pkg/db/models"
	"github.com/glowmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/pagination"
)

// Repository persists orders and applies the conditional state updates
// the lifecycle depends on.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads the order with items and events.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Events").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// FindByCorrelationRef resolves a gateway transaction reference to its
// order. Claims that resolve to nothing are the caller's problem.
func (r *Repository) FindByCorrelationRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "correlation_ref = ?", ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

// ListByUser pages a buyer's orders newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var result []models.Order
	if err := query.Find(&result).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return result, nil
}

// AdminList pages all orders with optional filters, newest first.
func (r *Repository) AdminList(ctx context.Context, filters AdminFilters, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var result []models.Order
	if err := query.Find(&result).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return result, nil
}

// StatusFields carries the fulfillment details written alongside a
// status move.
type StatusFields struct {
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	DeliveredAt       *time.Time
}

// AdvanceStatus moves the fulfillment status forward only when the order
// is still in the expected prior state.
func (r *Repository) AdvanceStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, fields StatusFields) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if fields.TrackingNumber != nil {
		updates["tracking_number"] = *fields.TrackingNumber
	}
	if fields.EstimatedDelivery != nil {
		updates["estimated_delivery"] = *fields.EstimatedDelivery
	}
	if fields.DeliveredAt != nil {
		updates["delivered_at"] = *fields.DeliveredAt
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "advance order status")
	}
	return res.RowsAffected > 0, nil
}

// MarkCancelled cancels the order only while cancellation is still legal
// and payment has not settled.
func (r *Repository) MarkCancelled(ctx context.Context, orderID uuid.UUID, reason *string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET status = ?,
			cancel_reason = ?,
			cancelled_at = ?,
			updated_at = ?
		WHERE id = ?
		  AND status IN (?, ?, ?)
		  AND payment_status <> ?
	`, enums.OrderStatusCancelled, reason, now, now, orderID,
		enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusProcessing,
		enums.PaymentStatusPaid)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "cancel order")
	}
	return res.RowsAffected > 0, nil
}

// SetCorrelationRef stamps the gateway transaction reference for a new
// payment attempt. Legal only while payment has not settled.
func (r *Repository) SetCorrelationRef(ctx context.Context, orderID uuid.UUID, ref string) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET correlation_ref = ?,
			updated_at = ?
		WHERE id = ? AND payment_status IN (?, ?)
	`, ref, time.Now().UTC(), orderID, enums.PaymentStatusPending, enums.PaymentStatusFailed)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "set correlation ref")
	}
	return res.RowsAffected > 0, nil
}

// PaymentSuccessFields carries the verified gateway data applied with a
// successful payment.
type PaymentSuccessFields struct {
	GatewayTxnID string
	ValidationID string
	CardBrand    *string
	CardIssuer   *string
	PaidAt       time.Time
}

// ApplyPaymentSuccess flips the order to paid exactly once. The
// payment_status guard makes concurrent duplicate claims a no-op; won
// reports whether this caller flipped the row, wasFailed whether it was
// flipped out of a recorded failure. The prior status is derived from
// which guarded update lands, never from an earlier read.
func (r *Repository) ApplyPaymentSuccess(ctx context.Context, orderID uuid.UUID, fields PaymentSuccessFields) (won, wasFailed bool, err error) {
	for _, prior := range []enums.PaymentStatus{enums.PaymentStatusFailed, enums.PaymentStatusPending} {
		res := r.db.WithContext(ctx).Exec(`
			UPDATE orders
			SET payment_status = ?,
				status = CASE WHEN status = ? THEN ? ELSE status END,
				gateway_txn_id = ?,
				validation_id = ?,
				card_brand = ?,
				card_issuer = ?,
				paid_at = ?,
				updated_at = ?
			WHERE id = ? AND payment_status = ?
		`, enums.PaymentStatusPaid,
			enums.OrderStatusPending, enums.OrderStatusConfirmed,
			fields.GatewayTxnID, fields.ValidationID, fields.CardBrand, fields.CardIssuer,
			fields.PaidAt, time.Now().UTC(),
			orderID, prior)
		if res.Error != nil {
			return false, false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "apply payment success")
		}
		if res.RowsAffected > 0 {
			return true, prior == enums.PaymentStatusFailed, nil
		}
	}
	return false, false, nil
}

// ApplyPaymentFailure records a failed attempt while payment is still
// pending. Paid orders never regress.
func (r *Repository) ApplyPaymentFailure(ctx context.Context, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET payment_status = ?,
			updated_at = ?
		WHERE id = ? AND payment_status = ?
	`, enums.PaymentStatusFailed, time.Now().UTC(), orderID, enums.PaymentStatusPending)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "apply payment failure")
	}
	return res.RowsAffected > 0, nil
}

// ConfirmCOD confirms a cash-on-delivery order while it is still pending.
func (r *Repository) ConfirmCOD(ctx context.Context, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET status = ?,
			updated_at = ?
		WHERE id = ? AND status = ? AND payment_method = ?
	`, enums.OrderStatusConfirmed, time.Now().UTC(), orderID,
		enums.OrderStatusPending, enums.PaymentMethodCOD)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "confirm cod order")
	}
	return res.RowsAffected > 0, nil
}
