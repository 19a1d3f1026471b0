package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowmart/storefront-backend/pkg/db/models"
	"github.com/glowmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/types"
)

// Recorder appends order events. The trail is append-only; nothing here
// updates or deletes rows.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder builds a recorder tied to the provided GORM DB.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one event to an order's trail. When tx is provided the
// event commits or rolls back with the surrounding work.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, eventType enums.OrderEventType, actor *uuid.UUID, detail types.JSONMap) error {
	if !eventType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order event type")
	}
	conn := r.db
	if tx != nil {
		conn = tx
	}
	event := &models.OrderEvent{
		ID:      uuid.New(),
		OrderID: orderID,
		Type:    eventType,
		Actor:   actor,
		Detail:  detail,
	}
	if err := conn.WithContext(ctx).Create(event).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order event")
	}
	return nil
}

// ListByOrder returns the trail for one order, oldest first.
func (r *Recorder) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order events")
	}
	return events, nil
}
