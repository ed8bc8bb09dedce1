package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	CORSOrigin  string
	BaseURL     string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	LogLevel  string
	LogFormat string

	Billing BillingConfig
	Redis   RedisConfig
	SMTP    SMTPConfig
}

type BillingConfig struct {
	DefaultHourlyRate    decimal.Decimal
	DefaultCurrency      string
	InvoiceNumberRetries int
}

type RedisConfig struct {
	URL               string
	DashboardCacheTTL time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(getEnv("JWT_REFRESH_EXPIRY", "720h"))
	if err != nil {
		refreshExpiry = 720 * time.Hour
	}

	cacheTTL, err := time.ParseDuration(getEnv("DASHBOARD_CACHE_TTL", "30s"))
	if err != nil {
		cacheTTL = 30 * time.Second
	}

	hourlyRate, err := decimal.NewFromString(getEnv("DEFAULT_HOURLY_RATE", "50"))
	if err != nil || hourlyRate.IsNegative() {
		hourlyRate = decimal.NewFromInt(50)
	}

	retries, err := strconv.Atoi(getEnv("INVOICE_NUMBER_RETRIES", "5"))
	if err != nil || retries < 1 {
		retries = 5
	}

	env := getEnv("ENV", "development")
	logFormat := "console"
	if env == "production" {
		logFormat = "json"
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigin:  getEnv("CORS_ORIGIN", "*"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", logFormat),

		Billing: BillingConfig{
			DefaultHourlyRate:    hourlyRate,
			DefaultCurrency:      getEnv("DEFAULT_CURRENCY", "USD"),
			InvoiceNumberRetries: retries,
		},

		Redis: RedisConfig{
			URL:               getEnv("REDIS_URL", ""),
			DashboardCacheTTL: cacheTTL,
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
