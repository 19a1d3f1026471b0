package payments

import (
	"github.com/shopspring/decimal"

	"github.com/glowmart/storefront-backend/pkg/enums"
	"github.com/glowmart/storefront-backend/pkg/types"
)

// Claim is a single gateway notification, whichever channel delivered
// it. The redirect callbacks, the server-to-server IPN, and manual
// replays all normalize into this shape before reconciliation.
type Claim struct {
	CorrelationRef  string
	ValidationID    string
	Channel         enums.ClaimChannel
	ClaimedStatus   enums.ClaimStatus
	ClaimedAmount   *decimal.Decimal
	ClaimedCurrency string
	GatewayTxnID    string
	ErrorCode       string
	ErrorMessage    string
	GatewayFields   types.JSONMap
}

// Outcome is the reconciler's verdict on a claim. Every outcome except
// a dependency error is acknowledged to the gateway so it stops
// resending.
type Outcome string

const (
	// OutcomeUnknownRef means the claim named a transaction we never
	// opened. Logged and dropped.
	OutcomeUnknownRef Outcome = "unknown_ref"
	// OutcomeRejected means the validator refused to vouch for a
	// success claim. No state change.
	OutcomeRejected Outcome = "rejected"
	// OutcomeDuplicate means the order had already settled; the claim
	// changed nothing.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomePaid means this claim won the flip to paid.
	OutcomePaid Outcome = "paid"
	// OutcomeFailed means a failure claim was recorded while payment
	// was still pending.
	OutcomeFailed Outcome = "failed"
	// OutcomeCancelled means the buyer abandoned the gateway session.
	OutcomeCancelled Outcome = "cancelled"
)

func (o Outcome) String() string {
	return string(o)
}
