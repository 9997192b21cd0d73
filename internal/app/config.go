package app

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/yarnhub/pkg/jwtx"
)

type Config struct {
	Issuer string // Issuer claim for tokens (default: yarnhub)

	Algorithm  string        // JWT signing algorithm (RS256, EdDSA) (default: EdDSA)
	KeyFile    string        // Optional: path to a PEM private key; empty means ephemeral keys
	RSABits    int           // RSA key size for RS256 (default: 4096)
	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 720h)

	DatabaseFile string // Path to SQLite database file (default: ./yarnhub.db)
	PepperFile   string // Path to the password hashing pepper file (default: ./pepper)

	RedisAddr     string // Optional: Redis address for the revocation blacklist; empty means in-process
	RedisPassword string
	RedisDB       int

	CookieSecure   bool   // Secure attribute on the refresh cookie (default: true outside dev)
	CookieSameSite string // strict, lax, or none (default: strict)

	SMTPAddr     string // Optional: SMTP relay host:port; empty means codes are logged, not mailed
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-code sweep interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer: getEnvOrDefault("YARNHUB_ISSUER", "yarnhub"),

		Algorithm:  getEnvOrDefault("YARNHUB_ALGORITHM", "EdDSA"),
		KeyFile:    os.Getenv("YARNHUB_KEY_FILE"),
		RSABits:    getEnvIntOrDefault("YARNHUB_RSA_BITS", 4096),
		AccessTTL:  getEnvDurationOrDefault("YARNHUB_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("YARNHUB_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		DatabaseFile: getEnvOrDefault("YARNHUB_DATABASE_FILE", "yarnhub.db"),
		PepperFile:   getEnvOrDefault("YARNHUB_PEPPER_FILE", "pepper"),

		RedisAddr:     os.Getenv("YARNHUB_REDIS_ADDR"),
		RedisPassword: os.Getenv("YARNHUB_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("YARNHUB_REDIS_DB", 0),

		CookieSameSite: getEnvOrDefault("YARNHUB_COOKIE_SAMESITE", "strict"),

		SMTPAddr:     os.Getenv("YARNHUB_SMTP_ADDR"),
		SMTPFrom:     os.Getenv("YARNHUB_SMTP_FROM"),
		SMTPUsername: os.Getenv("YARNHUB_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("YARNHUB_SMTP_PASSWORD"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	// Dev setups run on plain HTTP; everywhere else the refresh cookie is
	// Secure unless explicitly overridden.
	cfg.CookieSecure = getEnvBoolOrDefault("YARNHUB_COOKIE_SECURE", cfg.Env != "dev")

	return cfg
}

// SameSite maps the configured cookie mode onto the net/http constant.
func (c Config) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Duration strings first (e.g. "1h", "30m", "90s").
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are taken as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
