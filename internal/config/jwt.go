package config

import "fmt"

// DefaultAdminTokenHours is the lifetime of issued admin tokens.
const DefaultAdminTokenHours = 24

// JWTConfig holds configuration for admin token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// JWT returns the admin token settings, or nil when ADMIN_JWT_SECRET is
// unset and admin endpoints are open.
func (c *Config) JWT() (*JWTConfig, error) {
	if c.AdminJWTSecret == "" {
		return nil, nil
	}
	return NewJWTConfig(c.AdminJWTSecret, DefaultAdminTokenHours)
}

// NewJWTConfig validates and returns a JWT configuration.
func NewJWTConfig(secret string, expirationHours int) (*JWTConfig, error) {
	config := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
	}
	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET cannot be empty")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("token expiration must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
