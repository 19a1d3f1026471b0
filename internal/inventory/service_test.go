package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/glowmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.InventoryItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec("DELETE FROM inventory_items")
	})
	return conn
}

func seedStock(t *testing.T, conn *gorm.DB, qty int) uuid.UUID {
	t.Helper()
	productID := uuid.New()
	item := &models.InventoryItem{ProductID: productID, AvailableQty: qty}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return productID
}

func newTestService(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCommitFullQuantity(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	productID := seedStock(t, conn, 10)

	result, err := svc.Commit(context.Background(), conn, productID, 4)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Committed != 4 || result.Shortfall != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	remaining, err := svc.CheckAvailable(context.Background(), productID)
	if err != nil {
		t.Fatalf("check available: %v", err)
	}
	if remaining != 6 {
		t.Fatalf("expected 6 remaining, got %d", remaining)
	}
}

func TestCommitShortfallClampsToZero(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	productID := seedStock(t, conn, 3)

	result, err := svc.Commit(context.Background(), conn, productID, 5)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !result.Oversold() {
		t.Fatal("expected oversold result")
	}
	if result.Committed != 3 || result.Shortfall != 2 {
		t.Fatalf("unexpected result %+v", result)
	}

	remaining, err := svc.CheckAvailable(context.Background(), productID)
	if err != nil {
		t.Fatalf("check available: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected stock clamped to zero, got %d", remaining)
	}
}

func TestCommitEmptyStock(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	productID := seedStock(t, conn, 0)

	result, err := svc.Commit(context.Background(), conn, productID, 2)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Committed != 0 || result.Shortfall != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCommitRejectsBadInput(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	productID := seedStock(t, conn, 1)

	if _, err := svc.Commit(context.Background(), conn, productID, 0); err == nil {
		t.Fatal("expected validation error for zero qty")
	}
	if _, err := svc.Commit(context.Background(), nil, productID, 1); err == nil {
		t.Fatal("expected error for missing transaction")
	}
}

func TestReleaseRestocks(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	productID := seedStock(t, conn, 2)

	if err := svc.Release(context.Background(), conn, productID, 3); err != nil {
		t.Fatalf("release: %v", err)
	}

	remaining, err := svc.CheckAvailable(context.Background(), productID)
	if err != nil {
		t.Fatalf("check available: %v", err)
	}
	if remaining != 5 {
		t.Fatalf("expected 5 after restock, got %d", remaining)
	}

	err = svc.Release(context.Background(), conn, uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestConcurrentCommitsNeverOversell(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	productID := seedStock(t, conn, 10)

	const workers = 5
	results := make([]CommitResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Commit(context.Background(), conn, productID, 3)
		}(i)
	}
	wg.Wait()

	totalCommitted := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		totalCommitted += results[i].Committed
	}

	if totalCommitted > 10 {
		t.Fatalf("committed %d units from a stock of 10", totalCommitted)
	}

	remaining, err := svc.CheckAvailable(context.Background(), productID)
	if err != nil {
		t.Fatalf("check available: %v", err)
	}
	if remaining != 10-totalCommitted {
		t.Fatalf("stock accounting broken: committed=%d remaining=%d", totalCommitted, remaining)
	}
}
