package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration for the ledger service.
type Server struct {
	Addr          string
	JWTSigningKey string

	// RequiredFee is the fee, in the payment processor's minor unit, that
	// create and mint operations must cover. Supplied by the operator.
	RequiredFee uint64

	// AdminAddress is granted the admin role at startup.
	AdminAddress string

	// UniqueDocuments enforces document-reference uniqueness across tokens
	// when true. Duplicates are permitted by default.
	UniqueDocuments bool

	// RateLimitPerMinute caps requests per client per minute. Zero disables
	// rate limiting.
	RateLimitPerMinute int

	PostgresDSN string
	Redis       RedisConfig

	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig holds connection settings for the optional balance cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("LEDGER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	requiredFee := uint64(0)
	if v := os.Getenv("LEDGER_REQUIRED_FEE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			requiredFee = n
		}
	}

	rateLimit := 0
	if v := os.Getenv("LEDGER_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rateLimit = n
		}
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "ledger.events"
	}

	return Server{
		Addr:               addr,
		JWTSigningKey:      jwtSigningKey,
		RequiredFee:        requiredFee,
		AdminAddress:       strings.ToLower(os.Getenv("LEDGER_ADMIN_ADDRESS")),
		UniqueDocuments:    os.Getenv("LEDGER_UNIQUE_DOCUMENTS") == "true",
		RateLimitPerMinute: rateLimit,
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaBrokers: brokers,
		KafkaTopic:   topic,
	}
}
