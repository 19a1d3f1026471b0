package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/glowmart/storefront-backend/pkg/enums"
	"github.com/glowmart/storefront-backend/pkg/types"
)

// OrderEvent is an append-only audit record of what happened to an order.
type OrderEvent struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Type      enums.OrderEventType `gorm:"column:type;type:text;not null"`
	Actor     *uuid.UUID           `gorm:"column:actor;type:uuid"`
	Detail    types.JSONMap        `gorm:"column:detail;type:jsonb;serializer:json"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
