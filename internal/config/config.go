// Package config loads service configuration from the environment.
package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/hkdf"
)

// Prefix is the environment variable prefix, e.g. SMITH_ADDR.
const Prefix = "SMITH"

// Document store backends.
const (
	DocumentStoreSQLite = "sqlite"
	DocumentStoreMongo  = "mongo"
)

// Config holds every runtime setting of the service.
type Config struct {
	Addr     string `envconfig:"ADDR" default:":8080"`
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	BaseURL  string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	DatabasePath  string        `envconfig:"DB" default:"smithagency.db"`
	SlowQuery     time.Duration `envconfig:"SLOW_QUERY" default:"100ms"`
	DocumentStore string        `envconfig:"DOCUMENT_STORE" default:"sqlite"`
	MongoURI      string        `envconfig:"MONGO_URI"`
	MongoDatabase string        `envconfig:"MONGO_DATABASE" default:"smithagency"`
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	AMQPURL       string        `envconfig:"AMQP_URL"`
	AMQPExchange  string        `envconfig:"AMQP_EXCHANGE" default:"smithagency.events"`

	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	BookingFeeCents int64  `envconfig:"BOOKING_FEE_CENTS" default:"10000"`
	RatePerDayCents int64  `envconfig:"RATE_PER_DAY_CENTS" default:"30000"`
	Currency        string `envconfig:"CURRENCY" default:"usd"`

	ResendKey string `envconfig:"RESEND_KEY"`
	EmailFrom string `envconfig:"EMAIL_FROM" default:"The Smith Agency <bookings@thesmithagency.net>"`
	ReplyTo   string `envconfig:"EMAIL_REPLY_TO"`

	InternalKey      string        `envconfig:"INTERNAL_KEY"`
	JWTSecret        string        `envconfig:"JWT_SECRET"`
	JWTIssuer        string        `envconfig:"JWT_ISSUER"`
	CSRFKey          string        `envconfig:"CSRF_KEY"`
	AppSecret        string        `envconfig:"APP_SECRET"`
	CORSOrigins      []string      `envconfig:"CORS_ORIGINS"`
	RateLimit        float64       `envconfig:"RATE_LIMIT" default:"10"`
	RateBurst        int           `envconfig:"RATE_BURST" default:"20"`
	StaffEmailDomain string        `envconfig:"STAFF_EMAIL_DOMAIN"`
	ChargeTimeout    time.Duration `envconfig:"CHARGE_TIMEOUT" default:"30s"`
	OutboxInterval   time.Duration `envconfig:"OUTBOX_INTERVAL" default:"30s"`
}

// Load reads an optional .env file then the SMITH_* environment.
// PRE: none
// POST: Returns a validated Config or an error naming the first problem
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config_event", "event", "dotenv_unreadable", "error", err)
	}
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return c, c.Validate()
}

// IsProduction returns true when running in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks cross-field constraints.
// INVARIANT: production requires the secrets that have development fallbacks
func (c Config) Validate() error {
	switch c.DocumentStore {
	case DocumentStoreSQLite:
	case DocumentStoreMongo:
		if c.MongoURI == "" {
			return errors.New("SMITH_MONGO_URI is required when SMITH_DOCUMENT_STORE=mongo")
		}
	default:
		return fmt.Errorf("SMITH_DOCUMENT_STORE must be %q or %q", DocumentStoreSQLite, DocumentStoreMongo)
	}
	if c.BookingFeeCents <= 0 || c.RatePerDayCents <= 0 {
		return errors.New("booking fee and rate per day must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return errors.New("rate limit and burst must be positive")
	}
	if !c.IsProduction() {
		return nil
	}
	if c.JWTSecret == "" {
		return errors.New("SMITH_JWT_SECRET is required in production")
	}
	if c.StripeSecretKey == "" {
		return errors.New("SMITH_STRIPE_SECRET_KEY is required in production")
	}
	if c.CSRFKey == "" && c.AppSecret == "" {
		return errors.New("SMITH_CSRF_KEY or SMITH_APP_SECRET is required in production")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CSRFAuthKey returns the 32-byte CSRF key.
// An explicit hex CSRFKey wins; otherwise the key is derived from AppSecret with HKDF-SHA256.
// Outside production a random key is generated when neither is set.
// POST: Returns exactly 32 bytes or an error
func (c Config) CSRFAuthKey() ([]byte, error) {
	if c.CSRFKey != "" {
		key, err := hex.DecodeString(c.CSRFKey)
		if err != nil || len(key) != 32 {
			return nil, errors.New("SMITH_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if c.AppSecret != "" {
		return DeriveKey(c.AppSecret, "csrf")
	}
	if c.IsProduction() {
		return nil, errors.New("SMITH_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("config_event", "event", "random_csrf_key", "hint", "set SMITH_CSRF_KEY or SMITH_APP_SECRET")
	return key, nil
}

// DeriveKey expands secret into a 32-byte key bound to purpose.
// PRE: secret is non-empty
// POST: Same (secret, purpose) always yields the same key
func DeriveKey(secret, purpose string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("smithagency/"+purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}
