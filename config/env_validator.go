package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvValidator reads typed values from environment variables
type EnvValidator struct{}

// NewEnvValidator creates a new environment validator instance
func NewEnvValidator() *EnvValidator {
	return &EnvValidator{}
}

// GetString returns the variable, or fallback when it is unset or blank
func (e *EnvValidator) GetString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// GetInt parses the variable as an integer
func (e *EnvValidator) GetInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer, got: %s", key, raw)
	}
	return n, nil
}

// GetDuration parses the variable as a Go duration ("10s") or a number of seconds ("10")
func (e *EnvValidator) GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 10s, got: %s", key, raw)
	}
	return d, nil
}

// GetBool parses the variable with strconv.ParseBool
func (e *EnvValidator) GetBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got: %s", key, raw)
	}
	return b, nil
}
