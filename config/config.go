// Package config loads process configuration from the environment (and an
// optional .env file) and the shop's business settings from a YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) IsProduction() bool { return e == Production }

type DatabaseConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"postgres"` // postgres, mysql or sqlite
	URL      string `envconfig:"DATABASE_URL"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"dinhanstore"`
	LogSQL   bool   `envconfig:"DB_LOG_SQL"`
}

type RedisConfig struct {
	URL          string `envconfig:"REDIS_URL"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
	CacheTTL     string `envconfig:"CACHE_TTL" default:"5m"`
}

type RabbitMQConfig struct {
	URL      string `envconfig:"RABBITMQ_URL"`
	Exchange string `envconfig:"RABBITMQ_EXCHANGE" default:"dinhanstore.orders"`
	Queue    string `envconfig:"RABBITMQ_QUEUE" default:"dinhanstore.notifications"`
}

type StripeConfig struct {
	SecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	WebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	SuccessURL    string `envconfig:"STRIPE_SUCCESS_URL" default:"http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL     string `envconfig:"STRIPE_CANCEL_URL" default:"http://localhost:3000/checkout/cancel"`
	Currency      string `envconfig:"STRIPE_CURRENCY" default:"vnd"`
}

type VietQRConfig struct {
	BankID      string `envconfig:"VIETQR_BANK_ID"`
	AccountNo   string `envconfig:"VIETQR_ACCOUNT_NO"`
	AccountName string `envconfig:"VIETQR_ACCOUNT_NAME"`
	Template    string `envconfig:"VIETQR_TEMPLATE" default:"compact2"`
}

type GeminiConfig struct {
	APIKey      string  `envconfig:"GEMINI_API_KEY"`
	Model       string  `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	Temperature float32 `envconfig:"GEMINI_TEMPERATURE" default:"0.7"`
	MaxTokens   int32   `envconfig:"GEMINI_MAX_TOKENS" default:"1024"`
}

type Config struct {
	Env              Environment `envconfig:"APP_ENV" default:"development"`
	Port             string      `envconfig:"PORT" default:"8080"`
	JWTSecret        string      `envconfig:"JWT_SECRET" required:"true"`
	AdminAPIKey      string      `envconfig:"ADMIN_API_KEY"`
	AdminSetupSecret string      `envconfig:"ADMIN_SETUP_SECRET"`
	AllowedOrigins   []string    `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShopSettingsFile string      `envconfig:"SHOP_SETTINGS_FILE"`
	PendingOrderTTL  string      `envconfig:"PENDING_ORDER_TTL" default:"48h"`
	SweepInterval    string      `envconfig:"PENDING_SWEEP_INTERVAL" default:"15m"`
	ChatRatePerMin   int64       `envconfig:"CHAT_RATE_PER_MINUTE" default:"20"`

	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Stripe   StripeConfig
	VietQR   VietQRConfig
	Gemini   GeminiConfig
}

// Load reads .env when present and binds the environment onto Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	for name, v := range map[string]string{
		"CACHE_TTL":              c.Redis.CacheTTL,
		"PENDING_ORDER_TTL":      c.PendingOrderTTL,
		"PENDING_SWEEP_INTERVAL": c.SweepInterval,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration { return mustDuration(c.Redis.CacheTTL) }
func (c *Config) PendingOrderMaxAge() time.Duration { return mustDuration(c.PendingOrderTTL) }
func (c *Config) SweepEvery() time.Duration { return mustDuration(c.SweepInterval) }

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}
