package config

import (
	"strings"
	"time"

	"github.com/reviewly/reviewly/pkg/logger"
)

const (
	defaultAPIBaseURL   = "http://localhost:5000"
	defaultChatEndpoint = "/chat/query"
	defaultHTTPTimeout  = 30 * time.Second
)

// GetAPIBaseURL returns the reviewly backend base URL without a trailing slash
func GetAPIBaseURL() string {
	logger.Debug(logger.CONFIG, "Getting API base URL from environment")
	value := GetEnvOrDefault("REVIEWLY_API_BASE_URL", "")
	if value == "" {
		logger.Warn(logger.CONFIG, "REVIEWLY_API_BASE_URL not set, using %s", defaultAPIBaseURL)
		value = defaultAPIBaseURL
	}
	return strings.TrimRight(value, "/")
}

// GetChatEndpoint returns the path (or absolute URL) of the streaming chat endpoint
func GetChatEndpoint() string {
	return GetEnvOrDefault("REVIEWLY_CHAT_ENDPOINT", defaultChatEndpoint)
}

// GetHTTPTimeout bounds plain request/response calls. Streaming calls are not bound by it.
func GetHTTPTimeout() time.Duration {
	return parseEnvDuration("REVIEWLY_HTTP_TIMEOUT", defaultHTTPTimeout)
}

// GetStreamIdleTimeout is the longest gap allowed between two stream chunks. Zero disables it.
func GetStreamIdleTimeout() time.Duration {
	return parseEnvDuration("REVIEWLY_STREAM_IDLE_TIMEOUT", 0)
}
