package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitSetting is one endpoint's fixed-window budget.
type RateLimitSetting struct {
	Limit  int
	Window time.Duration
}

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerHost string
	ServerPort string

	// Identity service configuration
	IdentityURL     string
	IdentityJWTKey  string // PEM-encoded RSA public key; when set, tokens are verified locally
	IdentityTimeout time.Duration

	// Generation service configuration
	GenerationAPIURL    string
	GenerationAPIKey    string
	GenerationModel     string
	GenerationMaxTokens int
	GenerationTimeout   time.Duration

	// Fetch configuration
	FetchTimeout      time.Duration
	FetchMaxBodyBytes int64

	// CORS configuration
	ExtraAllowedOrigins []string

	// Rate limiting configuration
	RateLimitBackend string // memory, redis or postgres
	ParseURLLimit    RateLimitSetting
	ConsolidateLimit RateLimitSetting
	SuggestionLimit  RateLimitSetting

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Database configuration (rate-limit store)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// LoadConfig creates a new Config instance with values from environment
// variables or Docker secret files.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		IdentityURL:     getEnv("IDENTITY_URL", ""),
		IdentityJWTKey:  getEnvOrFile("IDENTITY_JWT_PUBLIC_KEY"),
		IdentityTimeout: getEnvDuration("IDENTITY_TIMEOUT_SECONDS", 10*time.Second),

		GenerationAPIURL:    getEnv("GENERATION_API_URL", "https://api.generation.example/v1/messages"),
		GenerationAPIKey:    getEnvOrFile("GENERATION_API_KEY"),
		GenerationModel:     getEnv("GENERATION_MODEL", "claude-3-5-haiku-20241022"),
		GenerationMaxTokens: getEnvInt("GENERATION_MAX_TOKENS", 4096),
		GenerationTimeout:   getEnvDuration("GENERATION_TIMEOUT_SECONDS", 30*time.Second),

		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT_SECONDS", 25*time.Second),
		FetchMaxBodyBytes: int64(getEnvInt("FETCH_MAX_BODY_BYTES", 2<<20)),

		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrFile("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisURL:      getEnv("REDIS_URL", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnvOrFile("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "pantryplan"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	if extra := os.Getenv("EXTRA_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.ExtraAllowedOrigins = append(cfg.ExtraAllowedOrigins, o)
			}
		}
	}

	var err error
	if cfg.ParseURLLimit, err = parseRateLimit(getEnv("RATE_LIMIT_PARSE_URL", "10/60")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PARSE_URL: %w", err)
	}
	if cfg.ConsolidateLimit, err = parseRateLimit(getEnv("RATE_LIMIT_CONSOLIDATE", "20/60")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_CONSOLIDATE: %w", err)
	}
	if cfg.SuggestionLimit, err = parseRateLimit(getEnv("RATE_LIMIT_SUGGESTIONS", "30/60")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SUGGESTIONS: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// parseRateLimit parses a "count/windowSeconds" pair, e.g. "10/60".
func parseRateLimit(s string) (RateLimitSetting, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return RateLimitSetting{}, fmt.Errorf("expected count/seconds, got %q", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return RateLimitSetting{}, fmt.Errorf("invalid count %q", parts[0])
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return RateLimitSetting{}, fmt.Errorf("invalid window %q", parts[1])
	}
	if limit <= 0 || seconds <= 0 {
		return RateLimitSetting{}, fmt.Errorf("count and window must be positive, got %q", s)
	}
	return RateLimitSetting{Limit: limit, Window: time.Duration(seconds) * time.Second}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvOrFile reads KEY, falling back to the contents of the file named by
// KEY_FILE (Docker secrets).
func getEnvOrFile(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
