package payments

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/glowmart/storefront-backend/api/middleware"
	"github.com/glowmart/storefront-backend/api/responses"
	"github.com/glowmart/storefront-backend/api/validators"
	internalpayments "github.com/glowmart/storefront-backend/internal/payments"
	"github.com/glowmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/logger"
)

// claimProcessor is the slice of the payments service the callback
// handlers need.
type claimProcessor interface {
	Process(ctx context.Context, claim internalpayments.Claim) (internalpayments.Outcome, error)
}

type initRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// Init opens a hosted gateway session for a pending order and returns
// the redirect URL.
func Init(svc *internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := middleware.UserIDFromContext(r.Context())
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
			return
		}

		var req initRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order_id must be a UUID"))
			return
		}

		result, err := svc.Initiate(r.Context(), internalpayments.InitiateInput{OrderID: orderID, UserID: userID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Methods lists the payment methods the storefront offers.
func Methods(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, internalpayments.Methods())
	}
}

// Callback handles one of the gateway's notification endpoints. The
// redirect callbacks carry browser traffic; the IPN is server to
// server. Every terminal verdict answers 200 so the gateway stops
// resending, while dependency errors answer 503 to invite a retry.
func Callback(processor claimProcessor, channel enums.ClaimChannel, status enums.ClaimStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claim, err := claimFromForm(r, channel, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := processor.Process(r.Context(), claim)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"outcome": outcome.String()})
	}
}

// IPN handles the server-to-server notification, which names its own
// status instead of arriving on a status-specific URL.
func IPN(processor claimProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed form payload"))
			return
		}
		status, err := claimStatusFromGateway(r.PostForm.Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claim, err := claimFromForm(r, enums.ClaimChannelIPN, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := processor.Process(r.Context(), claim)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"outcome": outcome.String()})
	}
}

func claimFromForm(r *http.Request, channel enums.ClaimChannel, status enums.ClaimStatus) (internalpayments.Claim, error) {
	if err := r.ParseForm(); err != nil {
		return internalpayments.Claim{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed form payload")
	}
	form := r.PostForm

	ref := strings.TrimSpace(form.Get("tran_id"))
	if ref == "" {
		return internalpayments.Claim{}, pkgerrors.New(pkgerrors.CodeValidation, "tran_id is required")
	}

	claim := internalpayments.Claim{
		CorrelationRef:  ref,
		ValidationID:    strings.TrimSpace(form.Get("val_id")),
		Channel:         channel,
		ClaimedStatus:   status,
		ClaimedCurrency: form.Get("currency"),
		GatewayTxnID:    form.Get("bank_tran_id"),
		ErrorCode:       form.Get("error"),
		ErrorMessage:    form.Get("error_reason"),
		GatewayFields:   gatewayFields(form),
	}
	if raw := strings.TrimSpace(form.Get("amount")); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return internalpayments.Claim{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "amount must be numeric")
		}
		claim.ClaimedAmount = &amount
	}
	return claim, nil
}

func claimStatusFromGateway(raw string) (enums.ClaimStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "VALID", "VALIDATED":
		return enums.ClaimStatusSuccess, nil
	case "FAILED":
		return enums.ClaimStatusFailed, nil
	case "CANCELLED":
		return enums.ClaimStatusCancelled, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown gateway status").WithDetails(map[string]any{"status": raw})
	}
}

// gatewayFields keeps the raw notification for the claim audit row,
// single-valued and without card numbers.
func gatewayFields(form map[string][]string) map[string]any {
	fields := make(map[string]any, len(form))
	for key, values := range form {
		if key == "card_no" || len(values) == 0 {
			continue
		}
		fields[key] = values[0]
	}
	return fields
}
