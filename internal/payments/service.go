package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/glowmart/storefront-backend/internal/inventory"
	"github.com/glowmart/storefront-backend/internal/orders"
	"github.com/glowmart/storefront-backend/pkg/config"
	"github.com/glowmart/storefront-backend/pkg/db/models"
	"github.com/glowmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/logger"
	"github.com/glowmart/storefront-backend/pkg/metrics"
	"github.com/glowmart/storefront-backend/pkg/sslcommerz"
	"github.com/glowmart/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayClient interface {
	Initiate(ctx context.Context, params sslcommerz.InitiateParams) (*sslcommerz.InitiateResponse, error)
	Verify(ctx context.Context, valID string) (*sslcommerz.VerifyResult, error)
}

type stockCommitter interface {
	Commit(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (inventory.CommitResult, error)
}

type eventRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, eventType enums.OrderEventType, actor *uuid.UUID, detail types.JSONMap) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// InitiateInput identifies the order a buyer wants to pay for.
type InitiateInput struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
}

// InitiateResult carries the hosted session the buyer is redirected to.
type InitiateResult struct {
	PaymentURL     string `json:"payment_url"`
	CorrelationRef string `json:"correlation_ref"`
	SessionKey     string `json:"session_key"`
}

// Service owns payment initiation and the reconciliation of gateway
// claims against order state.
type Service struct {
	orders  *orders.Repository
	claims  *Repository
	tx      txRunner
	gateway gatewayClient
	stock   stockCommitter
	events  eventRecorder
	users   userReader
	metrics *metrics.ReconciliationMetrics
	logger  *logger.Logger
	cfg     config.GatewayConfig
	prefix  string
}

// NewService wires the reconciler with its collaborators.
func NewService(
	ordersRepo *orders.Repository,
	claimsRepo *Repository,
	tx txRunner,
	gateway gatewayClient,
	stock stockCommitter,
	events eventRecorder,
	users userReader,
	recMetrics *metrics.ReconciliationMetrics,
	logg *logger.Logger,
	cfg config.GatewayConfig,
	numbers config.OrderNumberConfig,
) (*Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if claimsRepo == nil {
		return nil, fmt.Errorf("claims repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if events == nil {
		return nil, fmt.Errorf("event recorder required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	prefix := numbers.Prefix
	if prefix == "" {
		prefix = "GM"
	}
	return &Service{
		orders:  ordersRepo,
		claims:  claimsRepo,
		tx:      tx,
		gateway: gateway,
		stock:   stock,
		events:  events,
		users:   users,
		metrics: recMetrics,
		logger:  logg,
		cfg:     cfg,
		prefix:  prefix,
	}, nil
}

// Initiate opens a hosted gateway session for an unpaid order and
// stamps a fresh correlation ref on it. Every retry gets a new ref;
// claims against superseded refs stop resolving.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if !order.PaymentMethod.RequiresGateway() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery orders need no payment session")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}

	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	ref, err := orders.NewCorrelationRef(s.prefix, time.Now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate correlation ref")
	}
	stamped, err := s.orders.SetCorrelationRef(ctx, order.ID, ref)
	if err != nil {
		return nil, err
	}
	if !stamped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already settled")
	}

	phone := order.ShippingAddress.Phone
	if phone == "" && user.Phone != nil {
		phone = *user.Phone
	}
	session, err := s.gateway.Initiate(ctx, sslcommerz.InitiateParams{
		CorrelationRef: ref,
		Amount:         order.Total,
		Currency:       order.Currency.String(),
		CustomerName:   user.Name,
		CustomerEmail:  user.Email,
		CustomerPhone:  phone,
		CustomerCity:   order.ShippingAddress.City,
		ProductName:    orderSummary(order),
		SuccessURL:     s.cfg.SuccessURL,
		FailURL:        s.cfg.FailURL,
		CancelURL:      s.cfg.CancelURL,
		IPNURL:         s.cfg.IPNURL,
	})
	if err != nil {
		return nil, err
	}

	err = s.events.Record(ctx, nil, order.ID, enums.OrderEventPaymentInitiated, &input.UserID, types.JSONMap{
		"correlation_ref": ref,
		"payment_method":  order.PaymentMethod.String(),
		"amount":          order.Total.String(),
	})
	if err != nil {
		s.logger.Error(ctx, "record payment_initiated event", err)
	}

	return &InitiateResult{
		PaymentURL:     session.GatewayURL,
		CorrelationRef: ref,
		SessionKey:     session.SessionKey,
	}, nil
}

// Process reconciles one gateway claim against order state. A nil
// error means the claim reached a terminal verdict and the gateway can
// stop resending; a non-nil error means we could not decide and the
// delivery should be retried.
func (s *Service) Process(ctx context.Context, claim Claim) (Outcome, error) {
	ctx = s.logger.WithCorrelationRef(ctx, claim.CorrelationRef)

	if !claim.Channel.IsValid() || !claim.ClaimedStatus.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "malformed payment claim")
	}

	order, err := s.orders.FindByCorrelationRef(ctx, claim.CorrelationRef)
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil && domainErr.Code() == pkgerrors.CodeNotFound {
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
				"channel":        claim.Channel.String(),
				"claimed_status": claim.ClaimedStatus.String(),
			}), "claim for unknown correlation ref dropped")
			return s.settle(ctx, claim, OutcomeUnknownRef), nil
		}
		return "", err
	}

	if claim.ClaimedStatus == enums.ClaimStatusSuccess {
		return s.processSuccess(ctx, claim, order)
	}
	return s.processFailure(ctx, claim, order)
}

// processSuccess verifies a success claim with the validator before any
// state changes. The gateway, not the claim, is ground truth.
func (s *Service) processSuccess(ctx context.Context, claim Claim, order *models.Order) (Outcome, error) {
	start := time.Now()
	verdict, err := s.gateway.Verify(ctx, claim.ValidationID)
	if err != nil {
		s.observeVerify("error", start)
		if pkgerrors.Retryable(err) {
			return "", err
		}
		s.logger.Error(ctx, "success claim failed verification", err)
		return s.settle(ctx, claim, OutcomeRejected), nil
	}
	s.observeVerify(strings.ToLower(verdict.Status), start)

	switch {
	case !verdict.Valid():
		s.logger.Warn(s.logger.WithField(ctx, "verdict", verdict.Status), "validator rejected success claim")
		return s.settle(ctx, claim, OutcomeRejected), nil
	case verdict.TranID != claim.CorrelationRef:
		s.logger.Warn(ctx, "validator verdict names a different transaction")
		return s.settle(ctx, claim, OutcomeRejected), nil
	case verdict.Amount.LessThan(order.Total):
		s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
			"validated_amount": verdict.Amount.String(),
			"order_total":      order.Total.String(),
		}), "validated amount below order total")
		return s.settle(ctx, claim, OutcomeRejected), nil
	}

	fields := orders.PaymentSuccessFields{
		GatewayTxnID: verdict.BankTranID,
		ValidationID: verdict.ValID,
		PaidAt:       time.Now().UTC(),
	}
	if verdict.CardBrand != "" {
		fields.CardBrand = &verdict.CardBrand
	}
	if verdict.CardIssuer != "" {
		fields.CardIssuer = &verdict.CardIssuer
	}

	outcome := OutcomeDuplicate
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		won, wasFailed, err := s.orders.WithTx(tx).ApplyPaymentSuccess(ctx, order.ID, fields)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		outcome = OutcomePaid

		if err := s.events.Record(ctx, tx, order.ID, enums.OrderEventPaymentVerified, nil, types.JSONMap{
			"channel":      claim.Channel.String(),
			"val_id":       verdict.ValID,
			"bank_tran_id": verdict.BankTranID,
			"amount":       verdict.Amount.String(),
		}); err != nil {
			return err
		}
		if wasFailed {
			if err := s.events.Record(ctx, tx, order.ID, enums.OrderEventPaymentLate, nil, types.JSONMap{
				"channel": claim.Channel.String(),
			}); err != nil {
				return err
			}
		}

		return s.commitStock(ctx, tx, order)
	})
	if err != nil {
		return "", err
	}

	if outcome == OutcomePaid {
		s.logger.Info(s.logger.WithOrderID(ctx, order.ID.String()), "payment applied")
	}
	return s.settle(ctx, claim, outcome), nil
}

// commitStock decrements every line's stock. A shortfall clamps to what
// remains and is recorded, never bounced back to the gateway; real
// storage errors abort the transaction so the delivery is retried.
func (s *Service) commitStock(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	var commitErrs error
	for _, item := range order.Items {
		result, err := s.stock.Commit(ctx, tx, item.ProductID, item.Qty)
		if err != nil {
			commitErrs = multierr.Append(commitErrs, fmt.Errorf("commit stock for product %s: %w", item.ProductID, err))
			continue
		}
		if result.Oversold() {
			if s.metrics != nil {
				s.metrics.IncOversold()
			}
			if err := s.events.Record(ctx, tx, order.ID, enums.OrderEventOversold, nil, types.JSONMap{
				"product_id": item.ProductID.String(),
				"requested":  item.Qty,
				"committed":  result.Committed,
				"shortfall":  result.Shortfall,
			}); err != nil {
				commitErrs = multierr.Append(commitErrs, err)
			}
		}
	}
	return commitErrs
}

// processFailure records a fail or cancel claim. Paid orders never
// regress, and the fulfillment status is untouched.
func (s *Service) processFailure(ctx context.Context, claim Claim, order *models.Order) (Outcome, error) {
	outcome := OutcomeDuplicate
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := s.orders.WithTx(tx).ApplyPaymentFailure(ctx, order.ID)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}
		if claim.ClaimedStatus == enums.ClaimStatusCancelled {
			outcome = OutcomeCancelled
		} else {
			outcome = OutcomeFailed
		}
		return s.events.Record(ctx, tx, order.ID, enums.OrderEventPaymentFailed, nil, types.JSONMap{
			"channel":        claim.Channel.String(),
			"claimed_status": claim.ClaimedStatus.String(),
			"error_code":     claim.ErrorCode,
			"error_message":  claim.ErrorMessage,
		})
	})
	if err != nil {
		return "", err
	}
	return s.settle(ctx, claim, outcome), nil
}

// History is the reconciliation trail for one order: its full event log
// plus every claim received against the active correlation ref.
type History struct {
	Order  *models.Order
	Events []models.OrderEvent
	Claims []models.PaymentClaim
}

// History assembles the trail support follows when a buyer disputes a
// charge. Claims against superseded refs are not included; the event
// log carries each initiation, so the refs are recoverable from there.
func (s *Service) History(ctx context.Context, orderID uuid.UUID) (*History, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	var claims []models.PaymentClaim
	if order.CorrelationRef != nil {
		claims, err = s.claims.ListByCorrelationRef(ctx, *order.CorrelationRef)
		if err != nil {
			return nil, err
		}
	}
	return &History{Order: order, Events: events, Claims: claims}, nil
}

// settle appends the claim to the audit log and counts the outcome.
// Retried deliveries are only logged once they reach a verdict.
func (s *Service) settle(ctx context.Context, claim Claim, outcome Outcome) Outcome {
	row := &models.PaymentClaim{
		ID:             uuid.New(),
		CorrelationRef: claim.CorrelationRef,
		Channel:        claim.Channel,
		ClaimedStatus:  claim.ClaimedStatus,
		Outcome:        outcome.String(),
		Amount:         claim.ClaimedAmount,
	}
	if claim.GatewayTxnID != "" {
		row.GatewayTxnID = &claim.GatewayTxnID
	}
	if claim.ValidationID != "" {
		row.ValidationID = &claim.ValidationID
	}
	if claim.ClaimedCurrency != "" {
		row.Currency = &claim.ClaimedCurrency
	}
	if err := s.claims.Record(ctx, row); err != nil {
		s.logger.Error(ctx, "record payment claim", err)
	}
	if s.metrics != nil {
		s.metrics.IncOutcome(claim.Channel.String(), outcome.String())
	}
	return outcome
}

func (s *Service) observeVerify(result string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveVerifyDuration(result, time.Since(start))
	}
}

func orderSummary(order *models.Order) string {
	if len(order.Items) == 0 {
		return "GlowMart order " + order.OrderNumber
	}
	name := order.Items[0].Name
	if rest := len(order.Items) - 1; rest > 0 {
		return fmt.Sprintf("%s and %d more", name, rest)
	}
	return name
}
