package ratelimit

import "time"

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (prefix match when it ends in "/")
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig returns the limits for the chat API: chatPerMinute questions per
// client on /chat, a handful of reloads, and a generous default elsewhere.
func NewConfig(enabled bool, chatPerMinute int) *Config {
	if chatPerMinute <= 0 {
		chatPerMinute = 30
	}
	burst := chatPerMinute / 6
	if burst < 1 {
		burst = 1
	}
	return &Config{
		Enabled:         enabled,
		DefaultLimit:    300,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		EndpointConfigs: []EndpointConfig{
			{Path: "/chat", Method: "POST", Limit: chatPerMinute, Window: time.Minute, Burst: burst},
			{Path: "/reload-context", Method: "POST", Limit: 5, Window: time.Minute, Burst: 1},
		},
	}
}
