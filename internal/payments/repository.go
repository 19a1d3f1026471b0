package payments

import (
	"context"

	"gorm.io/gorm"

	"github.com/glowmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
)

// Repository persists the append-only payment claim log.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record appends one processed claim with its outcome.
func (r *Repository) Record(ctx context.Context, claim *models.PaymentClaim) error {
	if err := r.db.WithContext(ctx).Create(claim).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment claim")
	}
	return nil
}

// ListByCorrelationRef returns every claim received for one
// transaction, oldest first.
func (r *Repository) ListByCorrelationRef(ctx context.Context, ref string) ([]models.PaymentClaim, error) {
	var claims []models.PaymentClaim
	err := r.db.WithContext(ctx).
		Where("correlation_ref = ?", ref).
		Order("created_at ASC, id ASC").
		Find(&claims).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment claims")
	}
	return claims, nil
}
