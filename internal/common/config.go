// Package common provides shared utilities for the thesis pipeline.
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the report generator
type Config struct {
	Environment string         `toml:"environment"`
	OutputDir   string         `toml:"output_dir"`
	Server      ServerConfig   `toml:"server"`
	Cache       CacheConfig    `toml:"cache"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Clients     ClientsConfig  `toml:"clients"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CacheConfig holds cache store configuration
type CacheConfig struct {
	Path string `toml:"path"`
	TTL  string `toml:"ttl"`
}

// GetTTL parses and returns the cache entry time-to-live
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// PipelineConfig bounds a single report run
type PipelineConfig struct {
	Timeout            string `toml:"timeout"`
	SectionConcurrency int    `toml:"section_concurrency"`
}

// GetTimeout parses and returns the per-run timeout
func (c *PipelineConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Tavily TavilyConfig `toml:"tavily"`
	EODHD  EODHDConfig  `toml:"eodhd"`
	Gemini GeminiConfig `toml:"gemini"`
}

// TavilyConfig holds Tavily search API configuration
type TavilyConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	MaxResults int    `toml:"max_results"`
	RateLimit  int    `toml:"rate_limit"`
	Timeout    string `toml:"timeout"`
}

// GetTimeout parses and returns the HTTP timeout
func (c *TavilyConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the HTTP timeout
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey      string `toml:"api_key"`
	Model       string `toml:"model"`
	Timeout     string `toml:"timeout"`
	MaxAttempts int    `toml:"max_attempts"`
}

// GetTimeout parses and returns the per-generation timeout
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		OutputDir:   "reports",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Cache: CacheConfig{
			Path: "data/cache",
			TTL:  "24h",
		},
		Pipeline: PipelineConfig{
			Timeout:            "10m",
			SectionConcurrency: 4,
		},
		Clients: ClientsConfig{
			Tavily: TavilyConfig{
				BaseURL:    "https://api.tavily.com",
				MaxResults: 10,
				RateLimit:  2,
				Timeout:    "30s",
			},
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Gemini: GeminiConfig{
				Model:       "gemini-2.0-flash",
				Timeout:     "2m",
				MaxAttempts: 3,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("THESIS_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("THESIS_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("THESIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("THESIS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dir := os.Getenv("THESIS_OUTPUT_DIR"); dir != "" {
		config.OutputDir = dir
	}

	if path := os.Getenv("THESIS_CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}

	if ttl := os.Getenv("THESIS_CACHE_TTL"); ttl != "" {
		config.Cache.TTL = ttl
	}

	if key := ResolveAPIKey("tavily_api_key", config.Clients.Tavily.APIKey); key != "" {
		config.Clients.Tavily.APIKey = key
	}
	if key := ResolveAPIKey("eodhd_api_key", config.Clients.EODHD.APIKey); key != "" {
		config.Clients.EODHD.APIKey = key
	}
	if key := ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey); key != "" {
		config.Clients.Gemini.APIKey = key
	}
}

// ResolveAPIKey resolves an API key from environment or fallback.
// Environment variables take priority over config file values.
func ResolveAPIKey(name string, fallback string) string {
	keyToEnvMapping := map[string][]string{
		"tavily_api_key": {"TAVILY_API_KEY", "THESIS_TAVILY_API_KEY"},
		"eodhd_api_key":  {"EODHD_API_KEY", "THESIS_EODHD_API_KEY"},
		"gemini_api_key": {"GEMINI_API_KEY", "THESIS_GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue
			}
		}
	}

	return fallback
}

// ValidateRequired returns the names of required settings that are missing.
// All three provider credentials must be present at process start; a missing
// credential is a startup failure, not a per-request one.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if c.Clients.Tavily.APIKey == "" {
		missing = append(missing, "clients.tavily.api_key (TAVILY_API_KEY)")
	}
	if c.Clients.EODHD.APIKey == "" {
		missing = append(missing, "clients.eodhd.api_key (EODHD_API_KEY)")
	}
	if c.Clients.Gemini.APIKey == "" {
		missing = append(missing, "clients.gemini.api_key (GEMINI_API_KEY)")
	}
	return missing
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
