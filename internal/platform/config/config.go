package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr string

	// AuthServerURL is the public base URL of this server, used to build
	// the canonical interaction URL hashed into the finish proof.
	AuthServerURL string

	// IdentityServerURL is the consent provider entry point end-users are
	// redirected to at interaction start.
	IdentityServerURL string

	// IdentityServerSecret authenticates the consent provider on the
	// details and decision endpoints (x-idp-secret header).
	IdentityServerSecret string

	// AdminToken guards administrative grant revocation.
	AdminToken string

	// SessionCookieName and SessionTTL control the browser-session nonce
	// binding set at interaction start.
	SessionCookieName string
	SessionTTL        time.Duration

	DatabaseURL string

	Redis RedisConfig
}

// RedisConfig holds connection settings for the session binding store.
// An empty URL means Redis is not configured and the in-memory store is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:                 envOr("GRANTOR_ADDR", ":8080"),
		AuthServerURL:        envOr("GRANTOR_AUTH_SERVER_URL", "http://localhost:8080"),
		IdentityServerURL:    envOr("GRANTOR_IDENTITY_SERVER_URL", "http://localhost:3030"),
		IdentityServerSecret: envOr("GRANTOR_IDENTITY_SERVER_SECRET", "dev-idp-secret-change-in-production"),
		AdminToken:           envOr("GRANTOR_ADMIN_TOKEN", "dev-admin-token-change-in-production"),
		SessionCookieName:    envOr("GRANTOR_SESSION_COOKIE", "grantor_interact"),
		SessionTTL:           envDurationOr("GRANTOR_SESSION_TTL", 10*time.Minute),
		DatabaseURL:          os.Getenv("GRANTOR_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("GRANTOR_REDIS_URL"),
			PoolSize:     envIntOr("GRANTOR_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("GRANTOR_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("GRANTOR_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("GRANTOR_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("GRANTOR_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
