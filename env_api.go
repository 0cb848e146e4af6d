package testlabagent

import (
	"time"

	"github.com/httprunner/TestLabAgent/internal/config"
)

// EnvString reads an environment variable with a fallback default. It is a
// thin wrapper over internal/config so downstream code can avoid importing
// internal packages directly.
func EnvString(key, defaultValue string) string {
	return config.String(key, defaultValue)
}

// EnvBool parses an environment variable as a boolean.
func EnvBool(key string, defaultValue bool) bool {
	return config.Bool(key, defaultValue)
}

// EnvInt parses an environment variable as an integer.
func EnvInt(key string, defaultValue int) int {
	return config.Int(key, defaultValue)
}

// EnvDuration parses an environment variable as time.Duration.
func EnvDuration(key string, defaultValue time.Duration) time.Duration {
	return config.Duration(key, defaultValue)
}

// EnvStringSlice parses a comma-separated environment variable.
func EnvStringSlice(key string, defaultValue []string) []string {
	return config.StringSlice(key, defaultValue)
}
