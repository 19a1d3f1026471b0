package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog record the storefront sells from.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex:products_slug_key"`
	Name        string           `gorm:"column:name;not null"`
	Description *string          `gorm:"column:description"`
	Category    string           `gorm:"column:category;not null;index"`
	Brand       *string          `gorm:"column:brand"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	SalePrice   *decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2)"`
	ImageURL    *string          `gorm:"column:image_url"`
	Active      bool             `gorm:"column:active;not null;default:true"`
	Inventory   *InventoryItem   `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
