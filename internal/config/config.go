// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	HTTPPort    string
	LogLevel    string
	BaseURL     string

	JWTSecret    string
	JWTExpiresIn time.Duration

	EmailAPIKey string
	EmailAPIURL string
	EmailFrom   string

	// AdminEmails is the lower-cased allowlist for the admin panel.
	AdminEmails []string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	ShutdownTimeout time.Duration
}

// Load reads the environment. godotenv has already populated it from .env
// when the file exists.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.DatabaseURL, err = getEnvRequired("DATABASE_URL"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = getEnvRequired("JWT_SECRET"); err != nil {
		return nil, err
	}
	cfg.HTTPPort = getEnvDefault("HTTP_PORT", "8080")
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		return nil, fmt.Errorf("HTTP_PORT: %q is not a port number", cfg.HTTPPort)
	}
	cfg.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.BaseURL = strings.TrimRight(getEnvDefault("BASE_URL", "http://localhost:3000"), "/")

	if cfg.JWTExpiresIn, err = getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.EmailAPIKey = os.Getenv("EMAIL_API_KEY")
	cfg.EmailAPIURL = strings.TrimRight(getEnvDefault("EMAIL_API_URL", "https://api.resend.com"), "/")
	cfg.EmailFrom = getEnvDefault("EMAIL_FROM", "Bokför.com <noreply@bokfor.com>")

	cfg.AdminEmails = parseList(os.Getenv("ADMIN_EMAILS"))

	if cfg.RateLimitRequests, err = getEnvInt("RATE_LIMIT_REQUESTS", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimitRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS: must be positive, got %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow, err = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsAdmin reports whether email is on the admin allowlist.
func (c *Config) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}

func getEnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvRequired(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", fmt.Errorf("%s is empty", key)
	}
	return v, nil
}

func getEnvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, d)
	}
	return d, nil
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
