package payments

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/glowmart/storefront-backend/api/responses"
	internalpayments "github.com/glowmart/storefront-backend/internal/payments"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/logger"
	"github.com/glowmart/storefront-backend/pkg/types"
)

type historyProvider interface {
	History(ctx context.Context, orderID uuid.UUID) (*internalpayments.History, error)
}

type historyResponse struct {
	OrderID        uuid.UUID              `json:"order_id"`
	OrderNumber    string                 `json:"order_number"`
	PaymentStatus  string                 `json:"payment_status"`
	CorrelationRef *string                `json:"correlation_ref,omitempty"`
	Events         []historyEventResponse `json:"events"`
	Claims         []historyClaimResponse `json:"claims"`
}

type historyEventResponse struct {
	Type      string        `json:"type"`
	Actor     *uuid.UUID    `json:"actor,omitempty"`
	Detail    types.JSONMap `json:"detail,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type historyClaimResponse struct {
	Channel        string           `json:"channel"`
	ClaimedStatus  string           `json:"claimed_status"`
	Outcome        string           `json:"outcome"`
	CorrelationRef string           `json:"correlation_ref"`
	GatewayTxnID   *string          `json:"gateway_txn_id,omitempty"`
	ValidationID   *string          `json:"validation_id,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	ReceivedAt     time.Time        `json:"received_at"`
}

// History returns the reconciliation trail for one order: every event on
// its log and every claim the gateway delivered for the active ref.
func History(svc historyProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
		orderID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		history, err := svc.History(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := historyResponse{
			OrderID:        history.Order.ID,
			OrderNumber:    history.Order.OrderNumber,
			PaymentStatus:  history.Order.PaymentStatus.String(),
			CorrelationRef: history.Order.CorrelationRef,
			Events:         make([]historyEventResponse, 0, len(history.Events)),
			Claims:         make([]historyClaimResponse, 0, len(history.Claims)),
		}
		for _, event := range history.Events {
			resp.Events = append(resp.Events, historyEventResponse{
				Type:      event.Type.String(),
				Actor:     event.Actor,
				Detail:    event.Detail,
				CreatedAt: event.CreatedAt,
			})
		}
		for _, claim := range history.Claims {
			resp.Claims = append(resp.Claims, historyClaimResponse{
				Channel:        claim.Channel.String(),
				ClaimedStatus:  claim.ClaimedStatus.String(),
				Outcome:        claim.Outcome,
				CorrelationRef: claim.CorrelationRef,
				GatewayTxnID:   claim.GatewayTxnID,
				ValidationID:   claim.ValidationID,
				Amount:         claim.Amount,
				Currency:       claim.Currency,
				ReceivedAt:     claim.CreatedAt,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}
