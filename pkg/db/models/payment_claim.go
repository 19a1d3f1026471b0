package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/glowmart/storefront-backend/pkg/enums"
)

// PaymentClaim records every gateway notification we received, whichever
// channel carried it. Append-only.
type PaymentClaim struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CorrelationRef string             `gorm:"column:correlation_ref;not null;index"`
	Channel        enums.ClaimChannel `gorm:"column:channel;type:text;not null"`
	ClaimedStatus  enums.ClaimStatus  `gorm:"column:claimed_status;type:text;not null"`
	GatewayTxnID   *string            `gorm:"column:gateway_txn_id"`
	ValidationID   *string            `gorm:"column:validation_id"`
	Amount         *decimal.Decimal   `gorm:"column:amount;type:numeric(12,2)"`
	Currency       *string            `gorm:"column:currency"`
	Outcome        string             `gorm:"column:outcome;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}
