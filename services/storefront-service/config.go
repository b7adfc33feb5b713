package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	aws_pkg "github.com/tobaccostore/backend/pkg/aws"
)

const (
	dbSecretName       = "storefront/DB_CREDENTIALS"
	providerSecretName = "storefront/PROVIDER_KEYS"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Port string
	Env  string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	RedisURL         string

	JWTSecret  string
	SessionTTL time.Duration

	RajaOngkirKey     string
	RajaOngkirBaseURL string
	OriginDistrictID  int64

	MidtransServerKey  string
	MidtransProduction bool
	CashifyLicenseKey  string
	CashifyBaseURL     string

	// StrictTotals rejects client totals that disagree with the server.
	StrictTotals bool

	OrderTopicARN           string
	PaymentTopicARN         string
	PromoRedemptionQueueURL string
	// PromoRedemptionQueue is resolved to a URL when no URL is configured.
	PromoRedemptionQueue string
	QRBucket             string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	AllowedOrigins    string
	UseSecrets        bool
	CloudWatchEnabled bool
}

// LoadConfig reads configuration from a .env file and the environment. When
// AWS_USE_SECRETS=true the database credentials and provider keys are taken
// from Secrets Manager.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := configFromEnv()
	if cfg.UseSecrets {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			return nil, err
		}
		applySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromEnv() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("APP_ENV", "development"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "require"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Jakarta"),
		RedisURL:         os.Getenv("REDIS_URL"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,

		RajaOngkirKey:     os.Getenv("RAJAONGKIR_API_KEY"),
		RajaOngkirBaseURL: os.Getenv("RAJAONGKIR_BASE_URL"),
		OriginDistrictID:  int64(getEnvInt("ORIGIN_DISTRICT_ID", 1195)),

		MidtransServerKey:  os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransProduction: getEnvBool("MIDTRANS_IS_PRODUCTION", false),
		CashifyLicenseKey:  os.Getenv("CASHIFY_LICENSE_KEY"),
		CashifyBaseURL:     os.Getenv("CASHIFY_BASE_URL"),

		StrictTotals: getEnvBool("STRICT_TOTALS", true),

		OrderTopicARN:           os.Getenv("ORDER_SNS_TOPIC_ARN"),
		PaymentTopicARN:         os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		PromoRedemptionQueueURL: os.Getenv("PROMO_REDEMPTION_QUEUE_URL"),
		PromoRedemptionQueue:    os.Getenv("PROMO_REDEMPTION_QUEUE_NAME"),
		QRBucket:                os.Getenv("QR_BUCKET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@tobaccostore.id"),

		AllowedOrigins:    os.Getenv("ALLOWED_ORIGINS"),
		UseSecrets:        getEnvBool("AWS_USE_SECRETS", false),
		CloudWatchEnabled: getEnvBool("CLOUDWATCH_ENABLED", false),
	}
}

// applySecrets overrides cfg with non-empty secret values. A missing secret
// leaves the environment values in place.
func applySecrets(ctx context.Context, cfg *Config, sg aws_pkg.SecretGetter) {
	if m, err := aws_pkg.GetSecretMap(ctx, sg, dbSecretName); err == nil {
		override(&cfg.PostgresUser, m["POSTGRES_USER"])
		override(&cfg.PostgresPassword, m["POSTGRES_PASSWORD"])
		override(&cfg.PostgresDB, m["POSTGRES_DB"])
		override(&cfg.PostgresHost, m["POSTGRES_HOST"])
		override(&cfg.PostgresPort, m["POSTGRES_PORT"])
	}
	if m, err := aws_pkg.GetSecretMap(ctx, sg, providerSecretName); err == nil {
		override(&cfg.JWTSecret, m["JWT_SECRET"])
		override(&cfg.RajaOngkirKey, m["RAJAONGKIR_API_KEY"])
		override(&cfg.MidtransServerKey, m["MIDTRANS_SERVER_KEY"])
		override(&cfg.CashifyLicenseKey, m["CASHIFY_LICENSE_KEY"])
		if v, ok := m["MIDTRANS_IS_PRODUCTION"]; ok && v != "" {
			cfg.MidtransProduction = parseBool(v, cfg.MidtransProduction)
		}
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return errors.New("database config incomplete")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.OriginDistrictID <= 0 {
		return errors.New("ORIGIN_DISTRICT_ID must be positive")
	}
	// paid orders hand promo redemption to the queue once order events are published
	if c.OrderTopicARN != "" && c.PromoRedemptionQueueURL == "" && c.PromoRedemptionQueue == "" {
		return errors.New("PROMO_REDEMPTION_QUEUE_URL or PROMO_REDEMPTION_QUEUE_NAME is required when ORDER_SNS_TOPIC_ARN is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	return parseBool(os.Getenv(key), fallback)
}

func parseBool(raw string, fallback bool) bool {
	if raw = strings.TrimSpace(raw); raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
