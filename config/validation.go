package config

import "fmt"

// ValidateConfig checks that the loaded configuration is usable.
func ValidateConfig(cfg *Config) error {
	if cfg.ServerPort == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.GenerationAPIKey == "" {
		return fmt.Errorf("GENERATION_API_KEY or GENERATION_API_KEY_FILE must be set")
	}
	if cfg.IdentityURL == "" && cfg.IdentityJWTKey == "" {
		return fmt.Errorf("IDENTITY_URL or IDENTITY_JWT_PUBLIC_KEY must be set")
	}
	switch cfg.RateLimitBackend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unknown rate limit backend: %s", cfg.RateLimitBackend)
	}
	return nil
}
