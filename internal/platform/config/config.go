package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the formtrail service.
type Server struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	JWTSigningKey string

	// Sessions idle past SessionIdleTTL are closed by the reaper, which
	// sweeps every ReapInterval.
	SessionIdleTTL time.Duration
	ReapInterval   time.Duration

	// Redis session keys expire after SessionKeyTTL so abandoned state
	// cannot accumulate.
	SessionKeyTTL time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FORMTRAIL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:           addr,
		PostgresDSN:    os.Getenv("FORMTRAIL_POSTGRES_DSN"),
		RedisURL:       os.Getenv("FORMTRAIL_REDIS_URL"),
		JWTSigningKey:  jwtSigningKey,
		SessionIdleTTL: durationEnv("FORMTRAIL_SESSION_IDLE_TTL", 30*time.Minute),
		ReapInterval:   durationEnv("FORMTRAIL_REAP_INTERVAL", time.Minute),
		SessionKeyTTL:  durationEnv("FORMTRAIL_SESSION_KEY_TTL", 24*time.Hour),
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
