package config

import (
	"os"
	"strings"
	"time"

	pstrings "mintledger/pkg/platform/strings"
)

// StoreBackend selects the persistence backend for ledger state.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
	StoreRedis    StoreBackend = "redis"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	Store         StoreBackend
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string
	SeedAdmin     string
}

// HTTPConfig tunes the HTTP listener.
type HTTPConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// RedisConfig tunes the shared Redis client.
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
	addr := os.Getenv("MINTLEDGER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	store := StoreBackend(os.Getenv("MINTLEDGER_STORE"))
	switch store {
	case StorePostgres, StoreRedis:
	default:
		store = StoreMemory
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = pstrings.DedupeAndTrim(strings.Split(raw, ","))
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "mintledger.cap-events"
	}

	return Server{
		Addr:          addr,
		Store:         store,
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		JWTSigningKey: jwtSigningKey,
		SeedAdmin:     os.Getenv("SEED_ADMIN"),
	}
}

// HTTP derives the listener configuration with project defaults. Write
// stays generous because batch mints against postgres hold row locks.
func (s Server) HTTP() HTTPConfig {
	return HTTPConfig{
		Addr:              s.Addr,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Redis derives the Redis client configuration with project defaults.
func (s Server) Redis() RedisConfig {
	return RedisConfig{
		URL:          s.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
