package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/glowmart/storefront-backend/internal/audit"
	"github.com/glowmart/storefront-backend/internal/cart"
	"github.com/glowmart/storefront-backend/internal/catalog"
	"github.com/glowmart/storefront-backend/internal/pricing"
	"github.com/glowmart/storefront-backend/pkg/config"
	"github.com/glowmart/storefront-backend/pkg/db/models"
	"github.com/glowmart/storefront-backend/pkg/enums"
	"github.com/glowmart/storefront-backend/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.InventoryItem{},
		&models.CartRecord{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type testTxRunner struct {
	conn *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()
	engine, err := pricing.NewEngine(config.PricingConfig{
		Currency:              "BDT",
		FreeShippingThreshold: "1000",
		FlatShippingFee:       "100",
		TaxRate:               "0.05",
	})
	if err != nil {
		t.Fatalf("new pricing engine: %v", err)
	}

	svc, err := NewService(
		NewRepository(conn),
		&testTxRunner{conn: conn},
		catalog.NewRepository(conn),
		cart.NewRepository(conn),
		engine,
		audit.NewRecorder(conn),
		config.OrderNumberConfig{Prefix: "GM", MaxAttempts: 5},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, conn *gorm.DB) uuid.UUID {
	t.Helper()
	user := &models.User{
		ID:    uuid.New(),
		Email: uuid.NewString() + "@example.com",
		Name:  "Test Buyer",
		Role:  enums.MemberRoleUser,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func seedProduct(t *testing.T, conn *gorm.DB, price string, stock int) uuid.UUID {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Slug:     "p-" + uuid.NewString(),
		Name:     "Test Product",
		Category: "skincare",
		Price:    decimal.RequireFromString(price),
		Active:   true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	item := &models.InventoryItem{ProductID: product.ID, AvailableQty: stock}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return product.ID
}

func seedCart(t *testing.T, conn *gorm.DB, userID, productID uuid.UUID, qty int) {
	t.Helper()
	record := &models.CartRecord{ID: uuid.New(), UserID: userID}
	if err := conn.Create(record).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	item := &models.CartItem{ID: uuid.New(), CartID: record.ID, ProductID: productID, Qty: qty}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
}

func testAddress() types.Address {
	return types.Address{
		Line1:      "12 Mirpur Road",
		City:       "Dhaka",
		District:   "Dhaka",
		PostalCode: "1207",
		Country:    "BD",
		Phone:      "+8801712345678",
	}
}
