package config

import (
	"github.com/reviewly/reviewly/pkg/logger"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// GetOpenRouterKey returns the key used by the direct provider transport
func GetOpenRouterKey() string {
	value := GetEnvOrDefault("OPENROUTER_API_KEY", "")
	if value == "" {
		logger.Warn(logger.CONFIG, "OPENROUTER_API_KEY environment variable not set")
	}
	return value
}

// GetOpenRouterBaseURL returns the OpenAI-compatible base URL of the direct provider
func GetOpenRouterBaseURL() string {
	return GetEnvOrDefault("OPENROUTER_BASE_URL", defaultOpenRouterBaseURL)
}
