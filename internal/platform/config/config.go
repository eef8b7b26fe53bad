package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// TokenTTL is the fixed validity window of issued access tokens. It is policy,
// not per-call configuration: every token lives exactly this long unless
// revoked earlier.
const TokenTTL = 24 * time.Hour

// Config captures process configuration, loaded once at startup.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN enables the postgres-backed user, product, and revocation
	// stores. Empty means in-memory stores (dev/test).
	PostgresDSN string

	// RedisURL enables the redis-backed revocation store. Takes precedence
	// over postgres for revocation when both are set.
	RedisURL string

	// KafkaBrokers enables the Kafka audit sink. Empty means audit events are
	// only logged.
	KafkaBrokers []string
	AuditTopic   string

	// PurgeInterval controls how often expired revocation entries are swept.
	PurgeInterval time.Duration

	BcryptCost int
}

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:          envOr("TRADEPOST_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RedisURL:      os.Getenv("REDIS_URL"),
		AuditTopic:    envOr("AUDIT_TOPIC", "tradepost.audit"),
		PurgeInterval: envDurationOr("REVOCATION_PURGE_INTERVAL", time.Hour),
		BcryptCost:    envIntOr("BCRYPT_COST", 0), // 0 falls back to bcrypt.DefaultCost
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
