// Package config loads application configuration from environment variables
// into an explicit Config struct. Nothing in the service reads the environment
// directly; the struct is passed to constructors so tests can build their own.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Durations use Go duration syntax in the environment
// (e.g. "30m", "168h") and fall back to the documented defaults.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	JWTSecret      string        // secret used to sign JWTs
	AccessTTL      time.Duration // access token lifetime (default 30m)
	RefreshTTL     time.Duration // refresh token lifetime (default 7d)
	AllowedOrigins []string      // CORS allow-list parsed from a comma list

	UsersJSON string // static fallback credential allowlist (JSON array)

	LoginWindow time.Duration // fixed rate-limit window for login attempts
	LoginMax    int64         // attempts allowed per window per IP

	YouTubeAPIKey     string        // key for the YouTube statistics API; empty disables refresh
	ViewStaleAfter    time.Duration // records untouched longer than this are stale
	ViewBulkMax       int           // per-collection quota for one bulk refresh
	DiscordWebhookURL string        // webhook target for /notify; empty disables

	AMQPURL string // optional RabbitMQ URL for audit event fan-out

	// Optional MySQL credential backend. When DBHost is empty the user store
	// is served entirely from the KV namespace plus the static allowlist.
	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string
}

// Load reads configuration from the environment. The only hard requirement is
// JWT_SECRET; everything else has a sensible default or is optional.
func Load() Config {
	return Config{
		Env:  envStr("APP_ENV", "dev"),
		Port: envStr("APP_PORT", "8080"),

		JWTSecret:      must("JWT_SECRET"),
		AccessTTL:      envDur("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTTL:     envDur("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		UsersJSON: os.Getenv("USERS_JSON"),

		LoginWindow: envDur("LOGIN_RATE_WINDOW", 600*time.Second),
		LoginMax:    int64(envInt("LOGIN_RATE_MAX", 5)),

		YouTubeAPIKey:     os.Getenv("YOUTUBE_API_KEY"),
		ViewStaleAfter:    envDur("VIEW_STALE_AFTER", 7*24*time.Hour),
		ViewBulkMax:       envInt("VIEW_BULK_MAX", 20),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),

		AMQPURL: os.Getenv("AMQP_URL"),

		DBHost: os.Getenv("DB_HOST"),
		DBPort: envStr("DB_PORT", "3306"),
		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: os.Getenv("DB_NAME"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

// splitList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
