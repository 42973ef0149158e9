// Package config loads the service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServiceName string
	HTTPAddr    string

	// SQLitePath is the location of the transactions database.
	SQLitePath string

	// LedgerMode selects the core-banking collaborator: "http" talks to the
	// adapter at CBSAdapterURL, "memory" runs a seeded in-process ledger.
	LedgerMode    string
	CBSAdapterURL string
	CBSTimeout    time.Duration

	// NPCI switch behaviour: "probabilistic", "always-confirm" or
	// "always-decline". SuccessRate and Latency only apply to the
	// probabilistic variant's outcome and simulated round trip.
	NPCIMode        string
	NPCISuccessRate float64
	NPCILatency     time.Duration

	// NetworkTimeout bounds the switch submission inside the saga.
	NetworkTimeout time.Duration

	// CompensateOnNetworkDecline releases the balance hold when the switch
	// declines, settling the transaction as REVERSED.
	CompensateOnNetworkDecline bool

	// RedisAddr enables status-query caching when set.
	RedisAddr string

	// KafkaBroker enables terminal-event publishing when set.
	KafkaBroker string
	KafkaTopic  string
}

func Load() *Config {
	return &Config{
		ServiceName: getEnv("OTEL_SERVICE_NAME", "payments-service"),
		HTTPAddr:    ":" + getEnv("PORT", "8080"),

		SQLitePath: getEnv("SQLITE_PATH", "./data/payments.db"),

		LedgerMode:    getEnv("LEDGER_MODE", "http"),
		CBSAdapterURL: getEnv("CORE_BANKING_SERVICE_URL", "http://core-banking-adapter:3005"),
		CBSTimeout:    getDuration("CORE_BANKING_TIMEOUT", 5*time.Second),

		NPCIMode:        getEnv("NPCI_MODE", "probabilistic"),
		NPCISuccessRate: getFloat("NPCI_SUCCESS_RATE", 0.95),
		NPCILatency:     getDuration("NPCI_LATENCY", 1500*time.Millisecond),

		NetworkTimeout: getDuration("NETWORK_TIMEOUT", 10*time.Second),

		CompensateOnNetworkDecline: getBool("COMPENSATE_ON_NETWORK_DECLINE", false),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		KafkaBroker: getEnv("KAFKA_BROKER", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "payments.completed"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
