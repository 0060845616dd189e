package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/order"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com)" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (STORE_API_KEY_PEPPER)" flag:"api-key-pepper"`
	StoreName    string `default:"Storefront" usage:"Store name used in notification emails" flag:"store-name"`

	Pricing   PricingConfig
	Orders    OrdersConfig
	SMTP      SMTPConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// PricingConfig is the server-side shipping and tax policy. Values are
// decimal strings so money never rides on floats.
type PricingConfig struct {
	ShippingFlat     string `default:"5.00" usage:"Flat shipping charge per order" flag:"shipping-flat"`
	FreeShippingOver string `default:"100.00" usage:"Subtotal at which shipping is free (0 disables)" flag:"free-shipping-over"`
	TaxRate          string `default:"0.10" usage:"Tax rate applied to the subtotal" flag:"tax-rate"`
}

// Policy parses the configured values into the domain pricing policy.
func (p PricingConfig) Policy() (order.Pricing, error) {
	var (
		pricing order.Pricing
		err     error
	)
	if pricing.ShippingFlat, err = decimal.NewFromString(p.ShippingFlat); err != nil {
		return pricing, errors.Wrap(err, "parse shipping-flat")
	}
	if pricing.FreeShippingOver, err = decimal.NewFromString(p.FreeShippingOver); err != nil {
		return pricing, errors.Wrap(err, "parse free-shipping-over")
	}
	if pricing.TaxRate, err = decimal.NewFromString(p.TaxRate); err != nil {
		return pricing, errors.Wrap(err, "parse tax-rate")
	}
	return pricing, nil
}

// OrdersConfig controls order workflow policy.
type OrdersConfig struct {
	RestockOnCancel bool `default:"true" usage:"Return cancelled order items to stock" flag:"restock-on-cancel"`
}

// SMTPConfig configures the order confirmation mailer. Notifications are
// disabled when Host is empty.
type SMTPConfig struct {
	Host     string `default:"" usage:"SMTP server host (empty disables email)"`
	Port     int    `default:"587" usage:"SMTP server port"`
	Username string `usage:"SMTP username"`
	Password string `usage:"SMTP password"`
	From     string `default:"orders@localhost" usage:"Sender address for order emails"`
	Buffer   int    `default:"64" usage:"Notification queue buffer size"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set STORE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the STORE_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
