package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Payment   PaymentConfig
	Pricing   PricingConfig
	Checkout  CheckoutConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	GinMode     string `envconfig:"GIN_MODE" default:"debug"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"storefront"`
	Password string `envconfig:"DB_PASSWORD" default:"storefront"`
	DBName   string `envconfig:"DB_NAME" default:"storefront"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxIdleConns int `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
}

// AuthConfig holds the signing secret of the hosted auth provider. Tokens are
// issued there; this service only validates them.
type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" default:"your-secret-key"`
	Issuer    string `envconfig:"AUTH_JWT_ISSUER"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type PaymentConfig struct {
	Razorpay RazorpayConfig
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"RAZORPAY_KEY_ID"`
	KeySecret string `envconfig:"RAZORPAY_KEY_SECRET"`
	BaseURL   string `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
}

// PricingConfig carries the shipping fee policy and the free-shipping
// messaging threshold. The two are independent: the threshold only drives the
// progress indicator.
type PricingConfig struct {
	Currency                   string `envconfig:"PRICING_CURRENCY" default:"INR"`
	ShippingFeeCents           int64  `envconfig:"PRICING_SHIPPING_FEE_CENTS" default:"0"`
	FreeShippingThresholdCents int64  `envconfig:"PRICING_FREE_SHIPPING_THRESHOLD_CENTS" default:"99900"`
}

type CheckoutConfig struct {
	PendingOrderTTL  time.Duration `envconfig:"CHECKOUT_PENDING_ORDER_TTL" default:"24h"`
	// How long a dismissed, failed or verified attempt stays readable.
	ClosedPaymentTTL time.Duration `envconfig:"CHECKOUT_CLOSED_PAYMENT_TTL" default:"15m"`
}

type SchedulerConfig struct {
	CouponExpirySpec string `envconfig:"SCHEDULER_COUPON_EXPIRY_SPEC" default:"0 3 * * *"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.CORS.AllowedOrigins = trimAll(cfg.CORS.AllowedOrigins)

	return &cfg, nil
}

func (c ServerConfig) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func trimAll(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
