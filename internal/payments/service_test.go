package payments

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/glowmart/storefront-backend/internal/audit"
	"github.com/glowmart/storefront-backend/internal/inventory"
	"github.com/glowmart/storefront-backend/internal/orders"
	"github.com/glowmart/storefront-backend/internal/users"
	"github.com/glowmart/storefront-backend/pkg/config"
	"github.com/glowmart/storefront-backend/pkg/db/models"
	"github.com/glowmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/logger"
	"github.com/glowmart/storefront-backend/pkg/metrics"
	"github.com/glowmart/storefront-backend/pkg/sslcommerz"
	"github.com/glowmart/storefront-backend/pkg/types"
)

type fakeGateway struct {
	mu          sync.Mutex
	initResp    *sslcommerz.InitiateResponse
	initErr     error
	verdict     *sslcommerz.VerifyResult
	verifyErr   error
	verifyCalls int
}

func (g *fakeGateway) Initiate(_ context.Context, _ sslcommerz.InitiateParams) (*sslcommerz.InitiateResponse, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	return g.initResp, nil
}

func (g *fakeGateway) Verify(_ context.Context, _ string) (*sslcommerz.VerifyResult, error) {
	g.mu.Lock()
	g.verifyCalls++
	g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verdict, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verifyCalls
}

type testTxRunner struct {
	conn *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	conn    *gorm.DB
	svc     *Service
	gateway *fakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one shared in-memory database; extra pooled connections would each
	// see their own empty one
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.InventoryItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderEvent{},
		&models.PaymentClaim{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stock, err := inventory.NewService(inventory.NewRepository(conn))
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}

	gateway := &fakeGateway{}
	logg := logger.New(logger.Options{ServiceName: "payments-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(
		orders.NewRepository(conn),
		NewRepository(conn),
		&testTxRunner{conn: conn},
		gateway,
		stock,
		audit.NewRecorder(conn),
		users.NewRepository(conn),
		metrics.NewReconciliationMetrics(nil),
		logg,
		config.GatewayConfig{
			StoreID:       "glowmart",
			StorePassword: "secret",
			SuccessURL:    "https://glowmart.example/pay/success",
			FailURL:       "https://glowmart.example/pay/fail",
			CancelURL:     "https://glowmart.example/pay/cancel",
		},
		config.OrderNumberConfig{Prefix: "GM"},
	)
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}
	return &fixture{conn: conn, svc: svc, gateway: gateway}
}

func (f *fixture) seedUser(t *testing.T) *models.User {
	t.Helper()
	phone := "+8801712345678"
	user := &models.User{
		ID:    uuid.New(),
		Email: uuid.NewString() + "@example.com",
		Name:  "Test Buyer",
		Role:  enums.MemberRoleUser,
		Phone: &phone,
	}
	if err := f.conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// seedOrder creates a paid-pending order for one product line with a
// correlation ref already stamped, the state an order is in right after
// payment initiation.
func (f *fixture) seedOrder(t *testing.T, userID uuid.UUID, qty, stock int) (*models.Order, string) {
	t.Helper()
	productID := f.seedProduct(t, stock)
	ref := "GM_" + uuid.NewString()[:18]

	unitPrice := decimal.RequireFromString("450.00")
	order := &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "GM-20250830-" + uuid.NewString()[:4],
		UserID:         userID,
		Currency:       enums.CurrencyBDT,
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.PaymentStatusPending,
		PaymentMethod:  enums.PaymentMethodSSLCommerce,
		Subtotal:       unitPrice.Mul(decimal.NewFromInt(int64(qty))),
		ShippingFee:    decimal.RequireFromString("100"),
		Tax:            decimal.Zero,
		CorrelationRef: &ref,
		ShippingAddress: types.Address{
			Line1: "12 Mirpur Road", City: "Dhaka", District: "Dhaka",
			PostalCode: "1207", Country: "BD", Phone: "+8801712345678",
		},
		BillingAddress: types.Address{
			Line1: "12 Mirpur Road", City: "Dhaka", District: "Dhaka",
			PostalCode: "1207", Country: "BD", Phone: "+8801712345678",
		},
		Items: []models.OrderItem{{
			ID:        uuid.New(),
			ProductID: productID,
			Name:      "Test Product",
			Slug:      "test-product",
			UnitPrice: unitPrice,
			Qty:       qty,
			LineTotal: unitPrice.Mul(decimal.NewFromInt(int64(qty))),
		}},
	}
	order.Total = order.Subtotal.Add(order.ShippingFee)
	if err := f.conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order, ref
}

func (f *fixture) seedProduct(t *testing.T, stock int) uuid.UUID {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Slug:     "p-" + uuid.NewString(),
		Name:     "Test Product",
		Category: "skincare",
		Price:    decimal.RequireFromString("450.00"),
		Active:   true,
	}
	if err := f.conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := f.conn.Create(&models.InventoryItem{ProductID: product.ID, AvailableQty: stock}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return product.ID
}

func (f *fixture) reload(t *testing.T, orderID uuid.UUID) *models.Order {
	t.Helper()
	var order models.Order
	if err := f.conn.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return &order
}

func (f *fixture) availableQty(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var item models.InventoryItem
	if err := f.conn.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return item.AvailableQty
}

func (f *fixture) events(t *testing.T, orderID uuid.UUID, eventType enums.OrderEventType) []models.OrderEvent {
	t.Helper()
	var events []models.OrderEvent
	if err := f.conn.Where("order_id = ? AND type = ?", orderID, eventType).Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	return events
}

func validVerdict(ref string, amount decimal.Decimal) *sslcommerz.VerifyResult {
	return &sslcommerz.VerifyResult{
		Status:     "VALID",
		TranID:     ref,
		ValID:      "250830111111111",
		Amount:     amount,
		Currency:   "BDT",
		BankTranID: "251208BANKREF",
		CardBrand:  "VISA",
		CardIssuer: "BRAC BANK",
	}
}

func successClaim(ref string, channel enums.ClaimChannel) Claim {
	return Claim{
		CorrelationRef: ref,
		ValidationID:   "250830111111111",
		Channel:        channel,
		ClaimedStatus:  enums.ClaimStatusSuccess,
	}
}

func TestProcessSuccessClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 2, 10)
	f.gateway.verdict = validVerdict(ref, order.Total)

	outcome, err := f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelIPN))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.PaymentStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, reloaded.Status)
	require.NotNil(t, reloaded.PaidAt)
	require.NotNil(t, reloaded.GatewayTxnID)
	assert.Equal(t, "251208BANKREF", *reloaded.GatewayTxnID)
	require.NotNil(t, reloaded.CardBrand)
	assert.Equal(t, "VISA", *reloaded.CardBrand)

	assert.Equal(t, 8, f.availableQty(t, order.Items[0].ProductID))
	assert.Len(t, f.events(t, order.ID, enums.OrderEventPaymentVerified), 1)

	var claims []models.PaymentClaim
	require.NoError(t, f.conn.Where("correlation_ref = ?", ref).Find(&claims).Error)
	require.Len(t, claims, 1)
	assert.Equal(t, OutcomePaid.String(), claims[0].Outcome)
}

func TestProcessDuplicateSuccessClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 2, 10)
	f.gateway.verdict = validVerdict(ref, order.Total)

	// same notification through every channel
	outcome, err := f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelRedirect))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)

	outcome, err = f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelIPN))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	outcome, err = f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelManual))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	// stock committed exactly once
	assert.Equal(t, 8, f.availableQty(t, order.Items[0].ProductID))
	assert.Len(t, f.events(t, order.ID, enums.OrderEventPaymentVerified), 1)

	var claims int64
	require.NoError(t, f.conn.Model(&models.PaymentClaim{}).Where("correlation_ref = ?", ref).Count(&claims).Error)
	assert.EqualValues(t, 3, claims)
}

func TestProcessConcurrentSuccessClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 2, 10)
	f.gateway.verdict = validVerdict(ref, order.Total)

	// redirect and IPN race for the same verified payment
	channels := []enums.ClaimChannel{enums.ClaimChannelRedirect, enums.ClaimChannelIPN}
	outcomes := make([]Outcome, len(channels))
	errs := make([]error, len(channels))
	var wg sync.WaitGroup
	for i, channel := range channels {
		wg.Add(1)
		go func(i int, channel enums.ClaimChannel) {
			defer wg.Done()
			outcomes[i], errs[i] = f.svc.Process(ctx, successClaim(ref, channel))
		}(i, channel)
	}
	wg.Wait()

	paid, duplicate := 0, 0
	for i := range channels {
		require.NoError(t, errs[i])
		switch outcomes[i] {
		case OutcomePaid:
			paid++
		case OutcomeDuplicate:
			duplicate++
		default:
			t.Fatalf("unexpected outcome %s", outcomes[i])
		}
	}
	assert.Equal(t, 1, paid, "exactly one claim flips the order")
	assert.Equal(t, 1, duplicate)

	// stock committed exactly once despite the race
	assert.Equal(t, 8, f.availableQty(t, order.Items[0].ProductID))
	assert.Len(t, f.events(t, order.ID, enums.OrderEventPaymentVerified), 1)
	assert.Equal(t, enums.PaymentStatusPaid, f.reload(t, order.ID).PaymentStatus)
}

func TestProcessLateSuccessAfterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 1, 5)
	f.gateway.verdict = validVerdict(ref, order.Total)

	outcome, err := f.svc.Process(ctx, Claim{
		CorrelationRef: ref,
		Channel:        enums.ClaimChannelRedirect,
		ClaimedStatus:  enums.ClaimStatusFailed,
		ErrorCode:      "RISK_DECLINE",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, enums.PaymentStatusFailed, f.reload(t, order.ID).PaymentStatus)
	assert.Len(t, f.events(t, order.ID, enums.OrderEventPaymentFailed), 1)

	// IPN arrives late and the gateway vouches for it: gateway wins
	outcome, err = f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelIPN))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.PaymentStatus)
	assert.Len(t, f.events(t, order.ID, enums.OrderEventPaymentLate), 1)
	assert.Equal(t, 4, f.availableQty(t, order.Items[0].ProductID))
}

func TestProcessUnknownRef(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.svc.Process(context.Background(), successClaim("GM_forged_ref", enums.ClaimChannelIPN))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownRef, outcome)
	assert.Zero(t, f.gateway.calls(), "forged refs never reach the validator")

	var claims []models.PaymentClaim
	require.NoError(t, f.conn.Where("correlation_ref = ?", "GM_forged_ref").Find(&claims).Error)
	require.Len(t, claims, 1)
	assert.Equal(t, OutcomeUnknownRef.String(), claims[0].Outcome)
}

func TestProcessValidatorRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 1, 5)
	f.gateway.verdict = &sslcommerz.VerifyResult{Status: "INVALID_TRANSACTION", TranID: ref}

	outcome, err := f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelRedirect))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.PaymentStatusPending, reloaded.PaymentStatus)
	assert.Equal(t, 5, f.availableQty(t, order.Items[0].ProductID))
}

func TestProcessValidatorAmountMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 2, 5)
	// validator vouches for less than the order total
	f.gateway.verdict = validVerdict(ref, order.Total.Sub(decimal.RequireFromString("100")))

	outcome, err := f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelIPN))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, enums.PaymentStatusPending, f.reload(t, order.ID).PaymentStatus)
}

func TestProcessValidatorWrongTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 1, 5)
	f.gateway.verdict = validVerdict("GM_some_other_ref", order.Total)

	outcome, err := f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelIPN))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, enums.PaymentStatusPending, f.reload(t, order.ID).PaymentStatus)
}

func TestProcessValidatorUnreachable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 1, 5)
	f.gateway.verifyErr = pkgerrors.New(pkgerrors.CodeDependency, "gateway validator unreachable")

	_, err := f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelIPN))
	require.Error(t, err)
	assert.True(t, pkgerrors.Retryable(err), "dependency failures must be retried")

	// no verdict yet, nothing recorded
	assert.Equal(t, enums.PaymentStatusPending, f.reload(t, order.ID).PaymentStatus)
	var claims int64
	require.NoError(t, f.conn.Model(&models.PaymentClaim{}).Where("correlation_ref = ?", ref).Count(&claims).Error)
	assert.Zero(t, claims)
}

func TestProcessOversoldClampsToZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	// 3 wanted, only 1 left by the time payment settles
	order, ref := f.seedOrder(t, user.ID, 3, 1)
	f.gateway.verdict = validVerdict(ref, order.Total)

	outcome, err := f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelIPN))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome, "shortfall never fails a verified payment")

	assert.Equal(t, enums.PaymentStatusPaid, f.reload(t, order.ID).PaymentStatus)
	assert.Equal(t, 0, f.availableQty(t, order.Items[0].ProductID))

	events := f.events(t, order.ID, enums.OrderEventOversold)
	require.Len(t, events, 1)
	assert.EqualValues(t, 2, events[0].Detail["shortfall"])
	assert.EqualValues(t, 1, events[0].Detail["committed"])
}

func TestProcessCancelClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 1, 5)

	outcome, err := f.svc.Process(ctx, Claim{
		CorrelationRef: ref,
		Channel:        enums.ClaimChannelRedirect,
		ClaimedStatus:  enums.ClaimStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)

	reloaded := f.reload(t, order.ID)
	assert.Equal(t, enums.PaymentStatusFailed, reloaded.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status, "fulfillment status untouched")
	assert.Zero(t, f.gateway.calls(), "fail claims are not verified")
}

func TestProcessFailureAfterPaidIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 1, 5)
	f.gateway.verdict = validVerdict(ref, order.Total)

	_, err := f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelIPN))
	require.NoError(t, err)

	outcome, err := f.svc.Process(ctx, Claim{
		CorrelationRef: ref,
		Channel:        enums.ClaimChannelRedirect,
		ClaimedStatus:  enums.ClaimStatusFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, enums.PaymentStatusPaid, f.reload(t, order.ID).PaymentStatus, "paid orders never regress")
}

func TestProcessMalformedClaim(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), Claim{
		CorrelationRef: "GM_whatever",
		Channel:        enums.ClaimChannel("carrier-pigeon"),
		ClaimedStatus:  enums.ClaimStatusSuccess,
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestInitiate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, _ := f.seedOrder(t, user.ID, 1, 5)
	f.gateway.initResp = &sslcommerz.InitiateResponse{
		Status:     "SUCCESS",
		SessionKey: "sess-abc",
		GatewayURL: "https://sandbox.sslcommerz.com/EasyCheckOut/sess-abc",
	}

	result, err := f.svc.Initiate(ctx, InitiateInput{OrderID: order.ID, UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.sslcommerz.com/EasyCheckOut/sess-abc", result.PaymentURL)
	assert.NotEmpty(t, result.CorrelationRef)

	reloaded := f.reload(t, order.ID)
	require.NotNil(t, reloaded.CorrelationRef)
	assert.Equal(t, result.CorrelationRef, *reloaded.CorrelationRef, "fresh ref stamped before redirect")
	assert.Len(t, f.events(t, order.ID, enums.OrderEventPaymentInitiated), 1)
}

func TestInitiateRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)

	t.Run("wrong user", func(t *testing.T) {
		order, _ := f.seedOrder(t, user.ID, 1, 5)
		stranger := f.seedUser(t)
		_, err := f.svc.Initiate(ctx, InitiateInput{OrderID: order.ID, UserID: stranger.ID})
		require.Error(t, err)
		domainErr := pkgerrors.As(err)
		require.NotNil(t, domainErr)
		assert.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
	})

	t.Run("cod order", func(t *testing.T) {
		order, _ := f.seedOrder(t, user.ID, 1, 5)
		require.NoError(t, f.conn.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("payment_method", enums.PaymentMethodCOD).Error)
		_, err := f.svc.Initiate(ctx, InitiateInput{OrderID: order.ID, UserID: user.ID})
		require.Error(t, err)
		domainErr := pkgerrors.As(err)
		require.NotNil(t, domainErr)
		assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
	})

	t.Run("already paid", func(t *testing.T) {
		order, _ := f.seedOrder(t, user.ID, 1, 5)
		require.NoError(t, f.conn.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("payment_status", enums.PaymentStatusPaid).Error)
		_, err := f.svc.Initiate(ctx, InitiateInput{OrderID: order.ID, UserID: user.ID})
		require.Error(t, err)
		domainErr := pkgerrors.As(err)
		require.NotNil(t, domainErr)
		assert.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())
	})
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, ref := f.seedOrder(t, user.ID, 1, 5)
	f.gateway.verdict = validVerdict(ref, order.Total)

	_, err := f.svc.Process(ctx, Claim{
		CorrelationRef: ref,
		Channel:        enums.ClaimChannelRedirect,
		ClaimedStatus:  enums.ClaimStatusFailed,
		ErrorCode:      "RISK_DECLINE",
	})
	require.NoError(t, err)
	_, err = f.svc.Process(ctx, successClaim(ref, enums.ClaimChannelIPN))
	require.NoError(t, err)

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, history.Order.ID)

	require.Len(t, history.Claims, 2, "both deliveries on the trail")
	assert.Equal(t, OutcomeFailed.String(), history.Claims[0].Outcome)
	assert.Equal(t, OutcomePaid.String(), history.Claims[1].Outcome)

	counts := make(map[enums.OrderEventType]int)
	for _, event := range history.Events {
		counts[event.Type]++
	}
	assert.Equal(t, 1, counts[enums.OrderEventPaymentFailed])
	assert.Equal(t, 1, counts[enums.OrderEventPaymentVerified])
	assert.Equal(t, 1, counts[enums.OrderEventPaymentLate])
}

func TestHistoryUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.History(context.Background(), uuid.New())
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}

func TestInitiateRetryReplacesRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.seedUser(t)
	order, firstRef := f.seedOrder(t, user.ID, 1, 5)
	f.gateway.initResp = &sslcommerz.InitiateResponse{
		Status:     "SUCCESS",
		SessionKey: "sess-1",
		GatewayURL: "https://sandbox.sslcommerz.com/EasyCheckOut/sess-1",
	}

	result, err := f.svc.Initiate(ctx, InitiateInput{OrderID: order.ID, UserID: user.ID})
	require.NoError(t, err)
	assert.NotEqual(t, firstRef, result.CorrelationRef)

	// claims against the superseded ref stop resolving
	outcome, err := f.svc.Process(ctx, successClaim(firstRef, enums.ClaimChannelIPN))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownRef, outcome)
}
