package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server
	ServerHost string
	ServerPort string
	// BaseURL is the absolute prefix used when building short links.
	BaseURL string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Auth
	JWTSecret string

	// Image storage: "local" or "s3".
	StorageBackend string
	MediaDir       string
	MediaBaseURL   string
}

// Load builds the configuration from environment variables. A .env file in
// the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value %q: %w", v, err)
		}
		redisDB = n
	}

	cfg := &Config{
		ServerHost:     getenv("SERVER_HOST", "0.0.0.0"),
		ServerPort:     getenv("SERVER_PORT", "8080"),
		BaseURL:        getenv("BASE_URL", "http://localhost:8080"),
		DBHost:         getenv("DB_HOST", "localhost"),
		DBPort:         getenv("DB_PORT", "5432"),
		DBUser:         getenv("DB_USER", "postgres"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         getenv("DB_NAME", "platefeed"),
		DBSSLMode:      getenv("DB_SSL_MODE", "disable"),
		RedisHost:      getenv("REDIS_HOST", "localhost"),
		RedisPort:      getenv("REDIS_PORT", "6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		StorageBackend: getenv("STORAGE_BACKEND", "local"),
		MediaDir:       getenv("MEDIA_DIR", "media"),
		MediaBaseURL:   getenv("MEDIA_BASE_URL", "/media"),
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
