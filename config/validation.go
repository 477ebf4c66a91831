package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the loaded configuration for the current
// environment. JWT and database credentials are always required;
// development falls back to a fixed insecure JWT secret so a bare checkout
// still starts.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if cfg.JWTSecret == "" {
		if IsProduction() {
			errs = append(errs, "JWT_SECRET is required in production")
		} else {
			cfg.JWTSecret = "insecure-dev-secret"
		}
	}
	if cfg.DBName == "" {
		errs = append(errs, "DB_NAME must not be empty")
	}
	if cfg.ServerPort == "" {
		errs = append(errs, "SERVER_PORT must not be empty")
	}

	switch cfg.StorageBackend {
	case "local":
		if cfg.MediaDir == "" {
			errs = append(errs, "MEDIA_DIR is required for local storage")
		}
	case "s3":
		// Bucket and credentials are resolved by the AWS SDK at startup.
	default:
		errs = append(errs, fmt.Sprintf("unknown STORAGE_BACKEND %q", cfg.StorageBackend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
