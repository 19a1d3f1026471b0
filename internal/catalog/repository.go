package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/glowmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
)

// ProductView is the read model order placement prices against: the
// current catalog truth, never a cached cart snapshot.
type ProductView struct {
	ID           uuid.UUID
	Slug         string
	Name         string
	Active       bool
	UnitPrice    decimal.Decimal
	AvailableQty int
}

// Repository reads catalog products joined with live stock.
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

// FindByID loads the product with its inventory row. The effective unit
// price is the sale price when one is set.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	view := &ProductView{
		ID:        product.ID,
		Slug:      product.Slug,
		Name:      product.Name,
		Active:    product.Active,
		UnitPrice: product.Price,
	}
	if product.SalePrice != nil && product.SalePrice.IsPositive() {
		view.UnitPrice = *product.SalePrice
	}
	if product.Inventory != nil {
		view.AvailableQty = product.Inventory.AvailableQty
	}
	return view, nil
}
