package common

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned when no Places API key could be resolved
var ErrMissingAPIKey = errors.New("places API key not set")

// LoadEnvFile loads path into the process environment if it exists.
// Variables already set in the environment win over the file.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadCredentials resolves the Places API key.
// Resolution order: env file (loaded into the process environment) → environment
// variable → config fallback → ErrMissingAPIKey.
func LoadCredentials(config *PlacesConfig) (string, error) {
	if err := LoadEnvFile(config.EnvFile); err != nil {
		return "", err
	}

	if apiKey := strings.TrimSpace(os.Getenv(config.APIKeyEnv)); apiKey != "" {
		return apiKey, nil
	}

	if apiKey := strings.TrimSpace(config.APIKey); apiKey != "" {
		return apiKey, nil
	}

	return "", fmt.Errorf("%w: set %s in %s or the environment", ErrMissingAPIKey, config.APIKeyEnv, config.EnvFile)
}
