package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Gateway      GatewayConfig
	FeatureFlags FeatureFlagsConfig
	OrderNumbers OrderNumberConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GLOWMART_APP_ENV" required:"true"`
	Port         string `envconfig:"GLOWMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GLOWMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GLOWMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GLOWMART_DB_DSN"`
	Driver string `envconfig:"GLOWMART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GLOWMART_DB_HOST"`
	Port     int    `envconfig:"GLOWMART_DB_PORT" default:"5432"`
	User     string `envconfig:"GLOWMART_DB_USER"`
	Password string `envconfig:"GLOWMART_DB_PASSWORD"`
	Name     string `envconfig:"GLOWMART_DB_NAME"`
	SSLMode  string `envconfig:"GLOWMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GLOWMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GLOWMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GLOWMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GLOWMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GLOWMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GLOWMART_REDIS_ADDR"`
	Password     string        `envconfig:"GLOWMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"GLOWMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GLOWMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GLOWMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GLOWMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GLOWMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GLOWMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GLOWMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GLOWMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GLOWMART_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig carries the business rules the pricing engine applies.
// Defaults mirror the storefront's launch market: free shipping above
// 1000 BDT, a flat 100 BDT fee below it, and 5% tax.
type PricingConfig struct {
	Currency              string `envconfig:"GLOWMART_PRICING_CURRENCY" default:"BDT"`
	FreeShippingThreshold string `envconfig:"GLOWMART_PRICING_FREE_SHIPPING_THRESHOLD" default:"1000"`
	FlatShippingFee       string `envconfig:"GLOWMART_PRICING_FLAT_SHIPPING_FEE" default:"100"`
	TaxRate               string `envconfig:"GLOWMART_PRICING_TAX_RATE" default:"0.05"`
}

// Validate checks that every pricing knob parses as a decimal.
func (p PricingConfig) Validate() error {
	for field, raw := range map[string]string{
		"free shipping threshold": p.FreeShippingThreshold,
		"flat shipping fee":       p.FlatShippingFee,
		"tax rate":                p.TaxRate,
	} {
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("invalid %s %q: %w", field, raw, err)
		}
	}
	return nil
}

// FreeShippingThresholdDecimal parses the configured threshold.
func (p PricingConfig) FreeShippingThresholdDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(p.FreeShippingThreshold)
	return d
}

// FlatShippingFeeDecimal parses the configured flat fee.
func (p PricingConfig) FlatShippingFeeDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(p.FlatShippingFee)
	return d
}

// TaxRateDecimal parses the configured tax rate.
func (p PricingConfig) TaxRateDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(p.TaxRate)
	return d
}

// GatewayConfig holds the SSLCommerz-style gateway credentials and the
// bounded timeout for the server-to-server validation call.
type GatewayConfig struct {
	StoreID       string        `envconfig:"GLOWMART_GATEWAY_STORE_ID" required:"true"`
	StorePassword string        `envconfig:"GLOWMART_GATEWAY_STORE_PASSWORD" required:"true"`
	Sandbox       bool          `envconfig:"GLOWMART_GATEWAY_SANDBOX" default:"true"`
	VerifyTimeout time.Duration `envconfig:"GLOWMART_GATEWAY_VERIFY_TIMEOUT" default:"10s"`
	SuccessURL    string        `envconfig:"GLOWMART_GATEWAY_SUCCESS_URL"`
	FailURL       string        `envconfig:"GLOWMART_GATEWAY_FAIL_URL"`
	CancelURL     string        `envconfig:"GLOWMART_GATEWAY_CANCEL_URL"`
	IPNURL        string        `envconfig:"GLOWMART_GATEWAY_IPN_URL"`
}

// RateLimitConfig bounds the public gateway callback endpoints per
// client IP. The gateway retries aggressively, so the default window is
// generous.
type RateLimitConfig struct {
	CallbackLimit  int64         `envconfig:"GLOWMART_RATE_LIMIT_CALLBACK_LIMIT" default:"120"`
	CallbackWindow time.Duration `envconfig:"GLOWMART_RATE_LIMIT_CALLBACK_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GLOWMART_AUTO_MIGRATE" default:"false"`
}

// OrderNumberConfig bounds the regenerate-on-collision loop for human-facing
// order numbers.
type OrderNumberConfig struct {
	Prefix      string `envconfig:"GLOWMART_ORDER_NUMBER_PREFIX" default:"GM"`
	MaxAttempts int    `envconfig:"GLOWMART_ORDER_NUMBER_MAX_ATTEMPTS" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
