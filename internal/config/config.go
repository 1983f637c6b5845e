// Package config loads the service configuration from the environment and an
// optional config file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jonathan/admissions-assistant/internal/scraper"
)

// Config is the full service configuration. Every key can be set from the
// environment variable of the same name in upper case.
type Config struct {
	// Generation
	GeminiAPIKey      string  `mapstructure:"gemini_api_key"`
	GeminiModel       string  `mapstructure:"gemini_model" validate:"required"`
	GeminiTemperature float32 `mapstructure:"gemini_temperature" validate:"gte=0,lte=2"`
	GeminiMaxTokens   int32   `mapstructure:"gemini_max_tokens" validate:"gt=0"`
	GeminiTopP        float32 `mapstructure:"gemini_top_p" validate:"gte=0,lte=1"`

	// Compression
	ScaledownAPIKey  string `mapstructure:"scaledown_api_key"`
	ScaledownAPIURL  string `mapstructure:"scaledown_api_url" validate:"required,url"`
	ScaledownRate    string `mapstructure:"scaledown_rate" validate:"required"`
	ScaledownModel   string `mapstructure:"scaledown_model" validate:"required"`
	ScaledownTimeout int    `mapstructure:"scaledown_timeout" validate:"gt=0"` // seconds
	CompressionMode  string `mapstructure:"compression_mode" validate:"oneof=reuse recompress"`

	// Scraping
	UniversityWebsiteURL string           `mapstructure:"university_website_url" validate:"omitempty,url"`
	ScrapingEnabled      bool             `mapstructure:"scraping_enabled"`
	ScrapeTimeout        int              `mapstructure:"scrape_timeout" validate:"gt=0"` // seconds
	ScrapeUserAgent      string           `mapstructure:"scrape_user_agent"`
	ScrapeUseBrowser     bool             `mapstructure:"scrape_use_browser"`
	ScrapeTargets        []scraper.Target `mapstructure:"scrape_targets" validate:"dive"`

	// Storage
	CacheTTL       int    `mapstructure:"cache_ttl" validate:"gt=0"` // seconds
	CacheDir       string `mapstructure:"cache_dir" validate:"required"`
	CacheBackend   string `mapstructure:"cache_backend" validate:"oneof=disk redis"`
	RedisURL       string `mapstructure:"redis_url" validate:"required_if=CacheBackend redis"`
	CollegeDataDir string `mapstructure:"college_data_dir" validate:"required"`

	// Server
	ServerPort             int    `mapstructure:"server_port" validate:"gte=1,lte=65535"`
	CORSOrigins            string `mapstructure:"cors_origins"`
	AdminJWTSecret         string `mapstructure:"admin_jwt_secret"`
	RateLimitEnabled       bool   `mapstructure:"rate_limit_enabled"`
	RateLimitChatPerMinute int    `mapstructure:"rate_limit_chat_per_minute" validate:"gt=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=console json"`
}

var defaults = map[string]any{
	"gemini_api_key":     "",
	"gemini_model":       "gemini-2.5-flash",
	"gemini_temperature": 0.7,
	"gemini_max_tokens":  1024,
	"gemini_top_p":       0.95,

	"scaledown_api_key": "",
	"scaledown_api_url": "https://api.scaledown.xyz/compress/raw/",
	"scaledown_rate":    "auto",
	"scaledown_model":   "gemini-2.5-flash",
	"scaledown_timeout": 15,
	"compression_mode":  "reuse",

	"university_website_url": "https://university-website.edu",
	"scraping_enabled":       false,
	"scrape_timeout":         10,
	"scrape_user_agent":      "UniversityAdmissionsBot/1.0 (Educational Purpose)",
	"scrape_use_browser":     false,
	"scrape_targets":         nil,

	"cache_ttl":        3600,
	"cache_dir":        "cache",
	"cache_backend":    "disk",
	"redis_url":        "",
	"college_data_dir": "college_data",

	"server_port":                5000,
	"cors_origins":               "*",
	"admin_jwt_secret":           "",
	"rate_limit_enabled":         true,
	"rate_limit_chat_per_minute": 30,

	"log_level":  "info",
	"log_format": "console",
}

// Load reads the configuration. path may be empty; when set, the file is
// read first and the environment overrides it.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.CompressionMode = strings.ToLower(cfg.CompressionMode)
	cfg.CacheBackend = strings.ToLower(cfg.CacheBackend)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if len(cfg.ScrapeTargets) == 0 {
		cfg.ScrapeTargets = scraper.DefaultTargets()
	}
	return &cfg, nil
}

// Validate checks value ranges and returns warnings for settings that
// degrade the service without stopping it.
func (c *Config) Validate() (warnings []string, err error) {
	if err := validator.New().Struct(c); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if c.GeminiAPIKey == "" {
		warnings = append(warnings, "GEMINI_API_KEY is not set in environment variables")
	}
	if c.ScaledownAPIKey == "" {
		warnings = append(warnings, "SCALEDOWN_API_KEY is not set - prompts will not be compressed")
	}
	if info, statErr := os.Stat(c.CollegeDataDir); statErr != nil || !info.IsDir() {
		warnings = append(warnings, fmt.Sprintf("College data directory does not exist: %s", c.CollegeDataDir))
	}
	return warnings, nil
}

// ScaledownTimeoutDuration returns the compression call timeout.
func (c *Config) ScaledownTimeoutDuration() time.Duration {
	return time.Duration(c.ScaledownTimeout) * time.Second
}

// ScrapeTimeoutDuration returns the page fetch timeout.
func (c *Config) ScrapeTimeoutDuration() time.Duration {
	return time.Duration(c.ScrapeTimeout) * time.Second
}

// CacheTTLDuration returns the scraped page lifetime.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// AllowedOrigins splits CORSOrigins on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Summary lists the effective settings with secrets reduced to set/unset.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"gemini_model":      c.GeminiModel,
		"gemini_api_key":    secretState(c.GeminiAPIKey),
		"scaledown_api_key": secretState(c.ScaledownAPIKey),
		"scaledown_rate":    c.ScaledownRate,
		"compression_mode":  c.CompressionMode,
		"scraping_enabled":  c.ScrapingEnabled,
		"website":           c.UniversityWebsiteURL,
		"cache_backend":     c.CacheBackend,
		"cache_ttl_seconds": c.CacheTTL,
		"college_data_dir":  c.CollegeDataDir,
		"server_port":       c.ServerPort,
		"reload_protected":  c.AdminJWTSecret != "",
	}
}

func secretState(s string) string {
	if s == "" {
		return "not set"
	}
	return "set"
}
