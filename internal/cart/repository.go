package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
)

// Repository persists the one-open-cart-per-user model.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ClearByUser drops the user's cart items. Called from the order-creation
// transaction after the order row lands.
func (r *Repository) ClearByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	res := conn.WithContext(ctx).Exec(`
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM cart_records WHERE user_id = ?)
	`, userID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "clear cart")
	}
	return nil
}
