package config

import (
	"os"
)

// Environment is the runtime environment the server was started in.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

// GetEnvironment reads the ENV variable, defaulting to development.
func GetEnvironment() Environment {
	switch os.Getenv("ENV") {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// IsProduction returns true when running in production.
func IsProduction() bool {
	return GetEnvironment() == Production
}
