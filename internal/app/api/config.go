package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	KafkaBrokers      string
	NotificationTopic string
	AdminEmail        string
	RateLimitRPS      float64
	RateLimitBurst    int
	CatalogSeedFile   string
	CatalogSeedOwner  int64
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		KafkaBrokers:      strings.TrimSpace(os.Getenv("KAFKA_BROKERS")),
		NotificationTopic: envDefault("NOTIFICATION_TOPIC", "order-notifications"),
		AdminEmail:        envDefault("ADMIN_EMAIL", "admin@marketplace.local"),
		RateLimitRPS:      20,
		RateLimitBurst:    40,
		CatalogSeedFile:   strings.TrimSpace(os.Getenv("CATALOG_SEED_FILE")),
		CatalogSeedOwner:  1,
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			return Config{}, fmt.Errorf("RATE_LIMIT_RPS must be a non-negative number")
		}
		cfg.RateLimitRPS = rps
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil || burst <= 0 {
			return Config{}, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer")
		}
		cfg.RateLimitBurst = burst
	}
	if raw := strings.TrimSpace(os.Getenv("CATALOG_SEED_OWNER")); raw != "" {
		owner, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || owner <= 0 {
			return Config{}, fmt.Errorf("CATALOG_SEED_OWNER must be a positive integer")
		}
		cfg.CatalogSeedOwner = owner
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
