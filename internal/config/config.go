package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the fund aggregation server.
type Config struct {
	// HTTP listen port
	Port int `mapstructure:"port"`

	// Cache behavior
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheMaxEntries int           `mapstructure:"cache_max_entries"` // zero or negative means unbounded

	// Upstream fetch behavior
	SourceTimeout time.Duration `mapstructure:"source_timeout"`

	// Batch endpoint limits
	BatchMaxCodes    int `mapstructure:"batch_max_codes"`
	BatchConcurrency int `mapstructure:"batch_concurrency"`

	// Merge priority orders, highest first. Authoritative lists the sources
	// whose NAV counts as published.
	IdentityPriority     []string `mapstructure:"identity_priority"`
	EstimatePriority     []string `mapstructure:"estimate_priority"`
	AuthoritativeSources []string `mapstructure:"authoritative_sources"`

	// Base URLs for upstream endpoints (configurable for testing)
	TiantianBaseURL        string `mapstructure:"tiantian_base_url"`
	EastmoneyNAVBaseURL    string `mapstructure:"eastmoney_nav_base_url"`
	EastmoneyDetailBaseURL string `mapstructure:"eastmoney_detail_base_url"`
	AntfundBaseURL         string `mapstructure:"antfund_base_url"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from environment variables and an optional config
// file. Environment variables take precedence over config file values, and a
// .env file in the working directory is loaded first without overriding the
// real environment.
//
// Recognized environment variables (all optional):
//   - PORT
//   - CACHE_TTL, CACHE_MAX_ENTRIES
//   - SOURCE_TIMEOUT
//   - BATCH_MAX_CODES, BATCH_CONCURRENCY
//   - IDENTITY_PRIORITY, ESTIMATE_PRIORITY, AUTHORITATIVE_SOURCES
//     (comma-separated source names)
//   - TIANTIAN_BASE_URL, EASTMONEY_NAV_BASE_URL, EASTMONEY_DETAIL_BASE_URL,
//     ANTFUND_BASE_URL
//   - LOG_LEVEL
func Load() (*Config, error) {
	// Pick up a local .env if present; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	// Set up environment variable support
	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("port", 8080)
	v.SetDefault("cache_ttl", 30*time.Second)
	v.SetDefault("cache_max_entries", 10000)
	v.SetDefault("source_timeout", 10*time.Second)
	v.SetDefault("batch_max_codes", 50)
	v.SetDefault("batch_concurrency", 10)
	v.SetDefault("identity_priority", []string{"eastmoney-detail", "tiantian", "antfund"})
	v.SetDefault("estimate_priority", []string{"tiantian", "eastmoney-detail", "antfund"})
	v.SetDefault("authoritative_sources", []string{"eastmoney-nav"})
	v.SetDefault("tiantian_base_url", "https://fundgz.1234567.com.cn")
	v.SetDefault("eastmoney_nav_base_url", "https://api.fund.eastmoney.com")
	v.SetDefault("eastmoney_detail_base_url", "https://fundmobapi.eastmoney.com")
	v.SetDefault("antfund_base_url", "https://www.fund123.cn")
	v.SetDefault("log_level", "info")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.fund-app")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	// Bind environment variables
	v.BindEnv("port", "PORT")
	v.BindEnv("cache_ttl", "CACHE_TTL")
	v.BindEnv("cache_max_entries", "CACHE_MAX_ENTRIES")
	v.BindEnv("source_timeout", "SOURCE_TIMEOUT")
	v.BindEnv("batch_max_codes", "BATCH_MAX_CODES")
	v.BindEnv("batch_concurrency", "BATCH_CONCURRENCY")
	v.BindEnv("identity_priority", "IDENTITY_PRIORITY")
	v.BindEnv("estimate_priority", "ESTIMATE_PRIORITY")
	v.BindEnv("authoritative_sources", "AUTHORITATIVE_SOURCES")
	v.BindEnv("tiantian_base_url", "TIANTIAN_BASE_URL")
	v.BindEnv("eastmoney_nav_base_url", "EASTMONEY_NAV_BASE_URL")
	v.BindEnv("eastmoney_detail_base_url", "EASTMONEY_DETAIL_BASE_URL")
	v.BindEnv("antfund_base_url", "ANTFUND_BASE_URL")
	v.BindEnv("log_level", "LOG_LEVEL")

	// Unmarshal config into struct
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated env values keep stray spaces after splitting
	config.IdentityPriority = cleanList(config.IdentityPriority)
	config.EstimatePriority = cleanList(config.EstimatePriority)
	config.AuthoritativeSources = cleanList(config.AuthoritativeSources)

	// Validate
	var invalid []string
	if config.Port <= 0 || config.Port > 65535 {
		invalid = append(invalid, "PORT")
	}
	if config.CacheTTL <= 0 {
		invalid = append(invalid, "CACHE_TTL")
	}
	if config.SourceTimeout <= 0 {
		invalid = append(invalid, "SOURCE_TIMEOUT")
	}
	if config.BatchMaxCodes <= 0 {
		invalid = append(invalid, "BATCH_MAX_CODES")
	}
	if config.BatchConcurrency <= 0 {
		invalid = append(invalid, "BATCH_CONCURRENCY")
	}
	if len(config.IdentityPriority) == 0 {
		invalid = append(invalid, "IDENTITY_PRIORITY")
	}
	if len(config.EstimatePriority) == 0 {
		invalid = append(invalid, "ESTIMATE_PRIORITY")
	}
	if len(config.AuthoritativeSources) == 0 {
		invalid = append(invalid, "AUTHORITATIVE_SOURCES")
	}

	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}

	return config, nil
}

// cleanList trims whitespace from each element and drops empty ones.
func cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
