package config

import (
	"github.com/reviewly/reviewly/pkg/logger"
)

func GetRedisURL() string {
	logger.Debug(logger.CONFIG, "Attempting to retrieve Redis URL from environment")
	value := GetEnvOrDefault("REDIS_URL", "")
	if value == "" {
		logger.Debug(logger.CONFIG, "REDIS_URL not set - preferences stay local")
	} else {
		logger.Info(logger.CONFIG, "Redis URL successfully loaded")
	}
	return value
}

func GetRedisPassword() string {
	return GetEnvOrDefault("REDIS_PASSWORD", "")
}

// GetRedisPrefix namespaces preference keys so several clients can share one Redis
func GetRedisPrefix() string {
	return GetEnvOrDefault("REDIS_PREFIX", "reviewly:prefs:")
}
