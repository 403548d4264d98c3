package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the order-ticket service
type Config struct {
	// Service name
	ServiceName string

	// Log level: debug, info, warn, error
	LogLevel string

	// Base URL of the trade API (buy/sell/convert + balances)
	TradeAPIBaseURL string

	// HTTP timeout for trade API calls
	HTTPTimeout time.Duration

	// Comma-separated allow-list of tradable symbols/assets
	AllowedAssets string

	// Directory for the local attempt journal database
	DataDir string

	// Kafka brokers for the receipt outbox (comma-separated, empty disables)
	KafkaBrokers string

	// Topic receipts are published to
	ReceiptsTopic string
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig(serviceName string) *Config {
	cfg := &Config{
		ServiceName:     serviceName,
		LogLevel:        getEnvAsString("LOG_LEVEL", "info"),
		TradeAPIBaseURL: getEnvAsString("TRADE_API_BASE_URL", "http://127.0.0.1:8080"),
		HTTPTimeout:     time.Duration(getEnvAsInt("HTTP_TIMEOUT_MS", 10000)) * time.Millisecond,
		AllowedAssets:   getEnvAsString("ALLOWED_ASSETS", "XAU-s,XAG-s,BTC,ETH,USDT"),
		DataDir:         getEnvAsString("DATA_DIR", "./data"),
		KafkaBrokers:    getEnvAsString("KAFKA_BROKERS", ""),
		ReceiptsTopic:   getEnvAsString("RECEIPTS_TOPIC", "trades.receipts"),
	}

	return cfg
}

// Assets returns the allow-list as a slice, whitespace trimmed.
func (c *Config) Assets() []string {
	return splitList(c.AllowedAssets)
}

// Brokers returns the Kafka broker list, or nil when publishing is disabled.
func (c *Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
