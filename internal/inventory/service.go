package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
)

// commitAttempts bounds the retry loop when the stock row keeps moving
// under a partial commit.
const commitAttempts = 5

// CommitResult reports how much of a requested decrement actually landed.
type CommitResult struct {
	Committed int
	Shortfall int
}

// Oversold reports whether the commit could not cover the full quantity.
func (c CommitResult) Oversold() bool {
	return c.Shortfall > 0
}

// Service exposes the stock operations order placement and payment
// reconciliation rely on.
type Service struct {
	repo *Repository
}

// NewService builds the inventory service.
func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory repository required")
	}
	return &Service{repo: repo}, nil
}

// CheckAvailable returns the current available quantity for a product.
func (s *Service) CheckAvailable(ctx context.Context, productID uuid.UUID) (int, error) {
	item, err := s.repo.GetByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "inventory row not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return item.AvailableQty, nil
}

// Commit decrements stock for a paid line. When stock cannot cover the
// full quantity the remainder is committed and the shortfall reported;
// the caller decides what to do about the oversell. Never fails the
// payment for lack of stock.
func (s *Service) Commit(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (CommitResult, error) {
	if qty <= 0 {
		return CommitResult{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return CommitResult{}, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory commit")
	}

	repo := s.repo.WithTx(tx)

	applied, err := repo.Decrement(ctx, productID, qty)
	if err != nil {
		return CommitResult{}, err
	}
	if applied {
		return CommitResult{Committed: qty}, nil
	}

	// Not enough stock for the full quantity. Take whatever remains,
	// retrying if a concurrent commit moves the row between the read
	// and the conditional decrement.
	for attempt := 0; attempt < commitAttempts; attempt++ {
		item, err := repo.GetByProductID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return CommitResult{Shortfall: qty}, nil
			}
			return CommitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}
		if item.AvailableQty <= 0 {
			return CommitResult{Shortfall: qty}, nil
		}
		if item.AvailableQty >= qty {
			// Stock came back (refund/restock race). Try the full amount.
			applied, err := repo.Decrement(ctx, productID, qty)
			if err != nil {
				return CommitResult{}, err
			}
			if applied {
				return CommitResult{Committed: qty}, nil
			}
			continue
		}
		applied, err := repo.Decrement(ctx, productID, item.AvailableQty)
		if err != nil {
			return CommitResult{}, err
		}
		if applied {
			return CommitResult{Committed: item.AvailableQty, Shortfall: qty - item.AvailableQty}, nil
		}
	}

	return CommitResult{}, pkgerrors.New(pkgerrors.CodeDependency, "inventory commit contention exceeded retries")
}

// Release returns stock for a product (refund/admin restock path).
func (s *Service) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}
	return s.repo.WithTx(tx).Restock(ctx, productID, qty)
}
