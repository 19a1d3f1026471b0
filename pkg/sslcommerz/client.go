package sslcommerz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/glowmart/storefront-backend/pkg/config"
	pkgerrors "github.com/glowmart/storefront-backend/pkg/errors"
	"github.com/glowmart/storefront-backend/pkg/logger"
)

const (
	sandboxBaseURL    = "https://sandbox.sslcommerz.com"
	productionBaseURL = "https://securepay.sslcommerz.com"

	sessionPath   = "/gwprocess/v4/api.php"
	validatorPath = "/validator/api/validationserverAPI.php"
)

var (
	errStoreIDRequired  = errors.New("gateway store id is required")
	errPasswordRequired = errors.New("gateway store password is required")
	errLoggerRequired   = errors.New("gateway logger is required")
)

// Client wraps the hosted gateway's session and validator APIs with
// centralized credentials, logging, timeouts, and error mapping.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	storeID       string
	storePassword string
	verifyTimeout time.Duration
	logger        *logger.Logger
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	storeID := strings.TrimSpace(cfg.StoreID)
	if storeID == "" {
		return nil, errStoreIDRequired
	}
	storePassword := strings.TrimSpace(cfg.StorePassword)
	if storePassword == "" {
		return nil, errPasswordRequired
	}

	baseURL := productionBaseURL
	if cfg.Sandbox {
		baseURL = sandboxBaseURL
	}

	verifyTimeout := cfg.VerifyTimeout
	if verifyTimeout <= 0 {
		verifyTimeout = 10 * time.Second
	}

	return &Client{
		httpClient:    &http.Client{Timeout: verifyTimeout},
		baseURL:       baseURL,
		storeID:       storeID,
		storePassword: storePassword,
		verifyTimeout: verifyTimeout,
		logger:        logg,
	}, nil
}

// Initiate opens a hosted payment session and returns the redirect URL.
func (c *Client) Initiate(ctx context.Context, params InitiateParams) (*InitiateResponse, error) {
	c.log(ctx, "request", "initiate_session", map[string]any{
		"tran_id": params.CorrelationRef,
		"amount":  params.Amount.StringFixed(2),
	})

	form := params.toForm(c.storeID, c.storePassword)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building session request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "initiate_session", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway session request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log(ctx, "error", "initiate_session", map[string]any{"status_code": resp.StatusCode})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway session returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading session response")
	}

	var session InitiateResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding session response")
	}

	if !strings.EqualFold(session.Status, "SUCCESS") || session.GatewayURL == "" {
		c.log(ctx, "error", "initiate_session", map[string]any{"reason": session.Reason})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway declined the payment session")
	}

	c.log(ctx, "response", "initiate_session", map[string]any{"session_key": session.SessionKey})
	return &session, nil
}

// Verify asks the validator API for the authoritative verdict on a
// transaction. Network failures and non-200 replies map to a retryable
// dependency error; a reply that does not say VALID maps to a
// verification rejection.
func (c *Client) Verify(ctx context.Context, valID string) (*VerifyResult, error) {
	if strings.TrimSpace(valID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "validation id is required")
	}

	c.log(ctx, "request", "verify_transaction", map[string]any{"val_id": valID})

	query := url.Values{}
	query.Set("val_id", valID)
	query.Set("store_id", c.storeID)
	query.Set("store_passwd", c.storePassword)
	query.Set("format", "json")

	verifyCtx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(verifyCtx, http.MethodGet, c.baseURL+validatorPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building validator request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "verify_transaction", map[string]any{"error": err.Error(), "elapsed": time.Since(start).String()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway validator unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log(ctx, "error", "verify_transaction", map[string]any{"status_code": resp.StatusCode})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway validator returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading validator response")
	}

	var result VerifyResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding validator response")
	}

	if result.RawAmount != "" {
		amount, parseErr := decimal.NewFromString(result.RawAmount)
		if parseErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, parseErr, "parsing validated amount")
		}
		result.Amount = amount
	}

	c.log(ctx, "response", "verify_transaction", map[string]any{
		"status":  result.Status,
		"tran_id": result.TranID,
	})
	return &result, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("gateway %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("gateway %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "passwd", "password", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
