package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalpayments "github.com/glowmart/storefront-backend/internal/payments"
	"github.com/glowmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/logger"
)

type fakeProcessor struct {
	outcome internalpayments.Outcome
	err     error
	claims  []internalpayments.Claim
}

func (f *fakeProcessor) Process(_ context.Context, claim internalpayments.Claim) (internalpayments.Outcome, error) {
	f.claims = append(f.claims, claim)
	if f.err != nil {
		return "", f.err
	}
	return f.outcome, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "payments-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func postForm(t *testing.T, handler http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func successForm() url.Values {
	return url.Values{
		"tran_id":      {"GM_1765195000000_a1b2c3d4"},
		"val_id":       {"251208110819GzAvYl4"},
		"status":       {"VALID"},
		"amount":       {"1045.00"},
		"currency":     {"BDT"},
		"bank_tran_id": {"251208BANKREF"},
		"card_type":    {"VISA-Brac bank"},
		"card_no":      {"432149XXXXXX0667"},
	}
}

func TestCallbackSuccess(t *testing.T) {
	processor := &fakeProcessor{outcome: internalpayments.OutcomePaid}
	handler := Callback(processor, enums.ClaimChannelRedirect, enums.ClaimStatusSuccess, testLogger())

	rec := postForm(t, handler, successForm())

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "paid", body.Data["outcome"])

	require.Len(t, processor.claims, 1)
	claim := processor.claims[0]
	assert.Equal(t, "GM_1765195000000_a1b2c3d4", claim.CorrelationRef)
	assert.Equal(t, "251208110819GzAvYl4", claim.ValidationID)
	assert.Equal(t, enums.ClaimChannelRedirect, claim.Channel)
	assert.Equal(t, enums.ClaimStatusSuccess, claim.ClaimedStatus)
	require.NotNil(t, claim.ClaimedAmount)
	assert.Equal(t, "1045", claim.ClaimedAmount.String())
	assert.Equal(t, "251208BANKREF", claim.GatewayTxnID)
	assert.NotContains(t, claim.GatewayFields, "card_no")
	assert.Equal(t, "VISA-Brac bank", claim.GatewayFields["card_type"])
}

func TestCallbackMissingTranID(t *testing.T) {
	processor := &fakeProcessor{outcome: internalpayments.OutcomePaid}
	handler := Callback(processor, enums.ClaimChannelRedirect, enums.ClaimStatusSuccess, testLogger())

	form := successForm()
	form.Del("tran_id")
	rec := postForm(t, handler, form)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, processor.claims)
}

func TestCallbackDependencyErrorAnswers503(t *testing.T) {
	processor := &fakeProcessor{err: pkgerrors.New(pkgerrors.CodeDependency, "validator unreachable")}
	handler := Callback(processor, enums.ClaimChannelRedirect, enums.ClaimStatusSuccess, testLogger())

	rec := postForm(t, handler, successForm())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCallbackUnknownRefStillAcks(t *testing.T) {
	processor := &fakeProcessor{outcome: internalpayments.OutcomeUnknownRef}
	handler := Callback(processor, enums.ClaimChannelRedirect, enums.ClaimStatusFailed, testLogger())

	form := url.Values{"tran_id": {"GM_0000000000000_deadbeef"}, "status": {"FAILED"}}
	rec := postForm(t, handler, form)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unknown_ref", body.Data["outcome"])
}

func TestIPNDerivesStatus(t *testing.T) {
	cases := []struct {
		gateway string
		want    enums.ClaimStatus
	}{
		{"VALID", enums.ClaimStatusSuccess},
		{"VALIDATED", enums.ClaimStatusSuccess},
		{"FAILED", enums.ClaimStatusFailed},
		{"CANCELLED", enums.ClaimStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.gateway, func(t *testing.T) {
			processor := &fakeProcessor{outcome: internalpayments.OutcomeDuplicate}
			handler := IPN(processor, testLogger())

			form := successForm()
			form.Set("status", tc.gateway)
			rec := postForm(t, handler, form)

			require.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, processor.claims, 1)
			assert.Equal(t, tc.want, processor.claims[0].ClaimedStatus)
			assert.Equal(t, enums.ClaimChannelIPN, processor.claims[0].Channel)
		})
	}
}

func TestIPNRejectsUnknownStatus(t *testing.T) {
	processor := &fakeProcessor{}
	handler := IPN(processor, testLogger())

	form := successForm()
	form.Set("status", "PROCESSING")
	rec := postForm(t, handler, form)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, processor.claims)
}
