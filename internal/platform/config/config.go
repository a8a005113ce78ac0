package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "riskgate/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	SessionTTL    time.Duration
}

// Castle captures the per-deployment settings for the remote risk service.
// Loaded once at startup and treated as immutable afterwards.
type Castle struct {
	AppID             string
	CDNURI            string
	APISecret         string
	BaseURL           string
	Timeout           time.Duration
	AllowListedHeaders []string
	DenyListedHeaders  []string
	LogHTTPRequests   bool
}

// Redis captures connection settings for the attempt store backend.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AttemptTTL bounds how long a suspended attempt may wait for the client
// round-trip before it is discarded.
var AttemptTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("RISKGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		SessionTTL:    time.Hour,
	}
}

// CastleFromEnv builds the risk service config from environment variables.
// Validation of required fields happens in the client constructor so
// misconfiguration fails at assembly time, not mid-attempt.
func CastleFromEnv() Castle {
	baseURL := os.Getenv("CASTLE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.castle.io/"
	}

	timeout := 500 * time.Millisecond
	if raw := os.Getenv("CASTLE_TIMEOUT_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	return Castle{
		AppID:              os.Getenv("CASTLE_APP_ID"),
		CDNURI:             os.Getenv("CASTLE_CDN_URI"),
		APISecret:          os.Getenv("CASTLE_API_SECRET"),
		BaseURL:            baseURL,
		Timeout:            timeout,
		AllowListedHeaders: splitList(os.Getenv("CASTLE_ALLOWLISTED_HEADERS")),
		DenyListedHeaders:  splitList(os.Getenv("CASTLE_DENYLISTED_HEADERS")),
		LogHTTPRequests:    os.Getenv("CASTLE_LOG_HTTP_REQUESTS") == "true",
	}
}

// RedisFromEnv builds the Redis config. An empty URL means the in-memory
// attempt store is used instead.
func RedisFromEnv() Redis {
	return Redis{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// splitList parses a comma-separated header list. Header names are
// case-insensitive, so entries are lowercased and deduplicated.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	out := pstrings.DedupeAndTrimLower(strings.Split(raw, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
