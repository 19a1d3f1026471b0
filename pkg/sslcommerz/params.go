package sslcommerz

import (
	"net/url"

	"github.com/shopspring/decimal"
)

// InitiateParams carries everything needed to open a hosted payment session.
type InitiateParams struct {
	CorrelationRef string
	Amount         decimal.Decimal
	Currency       string
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	CustomerCity   string
	ProductName    string
	SuccessURL     string
	FailURL        string
	CancelURL      string
	IPNURL         string
}

// InitiateResponse is the subset of the session API reply the caller needs.
type InitiateResponse struct {
	Status     string `json:"status"`
	SessionKey string `json:"sessionkey"`
	GatewayURL string `json:"GatewayPageURL"`
	Reason     string `json:"failedreason"`
}

// VerifyResult is the validator API verdict for a transaction.
type VerifyResult struct {
	Status       string          `json:"status"`
	TranID       string          `json:"tran_id"`
	ValID        string          `json:"val_id"`
	Amount       decimal.Decimal `json:"-"`
	RawAmount    string          `json:"amount"`
	Currency     string          `json:"currency"`
	BankTranID   string          `json:"bank_tran_id"`
	CardType     string          `json:"card_type"`
	CardBrand    string          `json:"card_brand"`
	CardIssuer   string          `json:"card_issuer"`
	RiskLevel    string          `json:"risk_level"`
	RiskTitle    string          `json:"risk_title"`
	TranDate     string          `json:"tran_date"`
	StoreAmount  string          `json:"store_amount"`
	CurrencyRate string          `json:"currency_rate"`
}

// Valid reports whether the gateway accepted the transaction. VALIDATED
// means the same transaction was already validated once before.
func (v VerifyResult) Valid() bool {
	return v.Status == "VALID" || v.Status == "VALIDATED"
}

func (p InitiateParams) toForm(storeID, storePassword string) url.Values {
	form := url.Values{}
	form.Set("store_id", storeID)
	form.Set("store_passwd", storePassword)
	form.Set("tran_id", p.CorrelationRef)
	form.Set("total_amount", p.Amount.StringFixed(2))
	form.Set("currency", p.Currency)
	form.Set("success_url", p.SuccessURL)
	form.Set("fail_url", p.FailURL)
	form.Set("cancel_url", p.CancelURL)
	if p.IPNURL != "" {
		form.Set("ipn_url", p.IPNURL)
	}
	form.Set("cus_name", p.CustomerName)
	form.Set("cus_email", p.CustomerEmail)
	form.Set("cus_phone", p.CustomerPhone)
	form.Set("cus_city", p.CustomerCity)
	form.Set("cus_country", "Bangladesh")
	form.Set("shipping_method", "Courier")
	form.Set("product_name", p.ProductName)
	form.Set("product_category", "general")
	form.Set("product_profile", "physical-goods")
	return form
}
