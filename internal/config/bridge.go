package config

import (
	"strings"
	"time"
)

// BridgeConfig configures the local websocket bridge serving a browser widget
type BridgeConfig struct {
	Addr           string
	AllowedOrigins []string
	PongWait       time.Duration
	PingPeriod     time.Duration
	WriteWait      time.Duration
}

func GetBridgeConfig() BridgeConfig {
	pongWait := parseEnvDuration("BRIDGE_PONG_WAIT", 30*time.Second)

	return BridgeConfig{
		Addr:           GetEnvOrDefault("BRIDGE_ADDR", "127.0.0.1:8080"),
		AllowedOrigins: cleanEmptyStrings(strings.Split(GetEnvOrDefault("BRIDGE_ALLOWED_ORIGINS", ""), ",")),
		PongWait:       pongWait,
		PingPeriod:     (pongWait * 9) / 10,
		WriteWait:      parseEnvDuration("BRIDGE_WRITE_WAIT", 10*time.Second),
	}
}

// OriginAllowed reports whether a websocket Origin header may connect. An empty list allows all.
func (c BridgeConfig) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), strings.TrimRight(origin, "/")) {
			return true
		}
	}
	return false
}
