package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Transactions source
	TransactionsAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint   string
	TracingEnabled bool

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	UseSupabase        bool

	// Dashboard
	MonthlyBudget  float64
	CurrencySymbol string
	Timezone       string

	// Auth
	AuthEnabled bool
	JWTSecret   string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		TransactionsAPIURL: getEnv("TRANSACTIONS_API_URL", "http://localhost:8082"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		CacheTTL: getEnvDuration("CACHE_TTL", time.Minute),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		UseSupabase:        getEnvBool("USE_SUPABASE", false),

		MonthlyBudget:  getEnvFloat("MONTHLY_BUDGET", 10000),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₹"),
		Timezone:       getEnv("TIMEZONE", "Local"),

		AuthEnabled: getEnvBool("AUTH_ENABLED", false),
		JWTSecret:   getEnv("JWT_SECRET", ""),
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.MonthlyBudget <= 0 {
		return fmt.Errorf("MONTHLY_BUDGET must be positive, got %v", c.MonthlyBudget)
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("MAX_CONCURRENCY must be positive, got %d", c.MaxConcurrency)
	}
	if c.UseSupabase && c.SupabaseURL == "" {
		return fmt.Errorf("USE_SUPABASE is set but SUPABASE_URL is empty")
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		return fmt.Errorf("AUTH_ENABLED requires JWT_SECRET")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

// Location resolves Timezone. The month boundary for budget usage is
// evaluated in this location.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
