package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// Config carries every tunable the gateway client, postback verifier and
// poll scheduler need. It is built once in main and passed down explicitly
// so tests can construct arbitrary values, including an empty postback
// secret to exercise the permissive fallback.
type Config struct {
	// Gateway API
	APIBaseURL string
	APIKey     string
	ShopID     string

	// Invoice defaults
	DefaultCurrency string

	// Postback verification. Empty means verification is disabled and every
	// postback token is accepted, an operational risk accepted for
	// environments where the gateway has no secret configured.
	PostbackSecret string

	// Poll scheduler
	PollStartupDelay time.Duration
	PollInterval     time.Duration
	PollInvoiceDelay time.Duration
	PollWindowHours  int
	PollBatchLimit   int
}

// Load builds the Config from the environment.
func Load() Config {
	return Config{
		APIBaseURL:       GetEnv("GATEWAY_API_URL", "https://api.gateway.example/v2"),
		APIKey:           GetEnv("GATEWAY_API_KEY", ""),
		ShopID:           GetEnv("GATEWAY_SHOP_ID", ""),
		DefaultCurrency:  GetEnv("DEFAULT_CURRENCY", "USD"),
		PostbackSecret:   GetEnv("POSTBACK_SECRET", ""),
		PollStartupDelay: GetDurationEnv("POLL_STARTUP_DELAY", 10*time.Second),
		PollInterval:     GetDurationEnv("POLL_INTERVAL", 60*time.Second),
		PollInvoiceDelay: GetDurationEnv("POLL_INVOICE_DELAY", 500*time.Millisecond),
		PollWindowHours:  GetIntEnv("POLL_WINDOW_HOURS", 24),
		PollBatchLimit:   GetIntEnv("POLL_BATCH_LIMIT", 100),
	}
}
