package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/glowmart/storefront-backend/pkg/config"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
)

// Line is a priced quantity the engine sums into a quote.
type Line struct {
	UnitPrice decimal.Decimal
	Qty       int
}

// Quote is the full price breakdown for a checkout. Total always equals
// subtotal + shipping + tax - discount.
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// Engine applies the storefront's shipping and tax rules. Free shipping
// above the configured subtotal threshold, a flat fee below it, and a
// percentage tax on the subtotal.
type Engine struct {
	freeShippingThreshold decimal.Decimal
	flatShippingFee       decimal.Decimal
	taxRate               decimal.Decimal
}

// NewEngine builds a pricing engine from configuration.
func NewEngine(cfg config.PricingConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pricing config: %w", err)
	}
	return &Engine{
		freeShippingThreshold: cfg.FreeShippingThresholdDecimal(),
		flatShippingFee:       cfg.FlatShippingFeeDecimal(),
		taxRate:               cfg.TaxRateDecimal(),
	}, nil
}

// QuoteFor prices the provided lines. Every line must carry a positive
// quantity and a non-negative unit price.
func (e *Engine) QuoteFor(lines []Line) (*Quote, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line unit price cannot be negative")
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))))
	}

	shipping := e.flatShippingFee
	if subtotal.GreaterThan(e.freeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(e.taxRate).Round(2)

	// No promotion rules yet; the discount leg is carried at zero so the
	// total identity holds once they land.
	discount := decimal.Zero

	return &Quote{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Tax:         tax,
		Discount:    discount,
		Total:       subtotal.Add(shipping).Add(tax).Sub(discount),
	}, nil
}
