package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/audiusq/internal/audius"
	"github.com/sydlexius/audiusq/internal/logging"
	"github.com/sydlexius/audiusq/internal/retry"
)

// EnvConfigPath names the config file when no path is given explicitly.
const EnvConfigPath = "AQ_CONFIG_PATH"

// Config holds all application configuration.
type Config struct {
	Audius    AudiusConfig    `yaml:"audius"`
	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Match     MatchConfig     `yaml:"match"`
	Logging   logging.Config  `yaml:"logging"`
}

// AudiusConfig holds upstream API settings.
type AudiusConfig struct {
	AppName      string        `yaml:"app_name"`
	APIKey       string        `yaml:"api_key"`
	APISecret    string        `yaml:"api_secret"`
	DiscoveryURL string        `yaml:"discovery_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RetryConfig holds the retry policy for discovery and search requests.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// RateLimitConfig caps upstream request rate.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// CacheConfig controls the in-memory response cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// MatchConfig controls result selection for questions.
type MatchConfig struct {
	Limit        int  `yaml:"limit"`
	Strict       bool `yaml:"strict"`
	Alternatives int  `yaml:"alternatives"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Audius: AudiusConfig{
			AppName:      audius.DefaultAppName,
			DiscoveryURL: audius.DefaultDiscoveryURL,
			Timeout:      10 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: retry.DefaultMaxAttempts,
			BaseDelay:   retry.DefaultBaseDelay,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
		},
		Match: MatchConfig{
			Limit:        10,
			Alternatives: 3,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence. An empty
// path falls back to AQ_CONFIG_PATH.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// ClientOptions converts the upstream settings for audius.New.
func (c *Config) ClientOptions() audius.Options {
	return audius.Options{
		AppName:      c.Audius.AppName,
		APIKey:       c.Audius.APIKey,
		APISecret:    c.Audius.APISecret,
		DiscoveryURL: c.Audius.DiscoveryURL,
		Timeout:      c.Audius.Timeout,
		Retry: retry.Policy{
			MaxAttempts: c.Retry.MaxAttempts,
			BaseDelay:   c.Retry.BaseDelay,
		},
		RateLimit: c.RateLimit.RequestsPerSecond,
		CacheTTL:  c.Cache.TTL,
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv(audius.EnvAppName); v != "" {
		c.Audius.AppName = v
	}
	if v := os.Getenv(audius.EnvAPIKey); v != "" {
		c.Audius.APIKey = v
	}
	if v := os.Getenv(audius.EnvAPISecret); v != "" {
		c.Audius.APISecret = v
	}
	if v := os.Getenv("AQ_DISCOVERY_URL"); v != "" {
		c.Audius.DiscoveryURL = v
	}
	if v := os.Getenv("AQ_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Audius.Timeout = d
		}
	}
	if v := os.Getenv("AQ_RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("AQ_RETRY_BASE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Retry.BaseDelay = d
		}
	}
	if v := os.Getenv("AQ_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimit.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("AQ_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("AQ_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("AQ_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("AQ_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.Audius.DiscoveryURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid discovery url: %q", c.Audius.DiscoveryURL)
	}
	if c.Audius.AppName == "" {
		return fmt.Errorf("app name is required")
	}
	if c.Audius.Timeout <= 0 {
		return fmt.Errorf("invalid timeout: %s", c.Audius.Timeout)
	}
	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > 10 {
		return fmt.Errorf("invalid retry max attempts: %d (want 1-10)", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("invalid retry base delay: %s", c.Retry.BaseDelay)
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid rate limit: %g", c.RateLimit.RequestsPerSecond)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("invalid cache ttl: %s", c.Cache.TTL)
	}
	if c.Match.Limit < 1 || c.Match.Limit > 100 {
		return fmt.Errorf("invalid match limit: %d (want 1-100)", c.Match.Limit)
	}
	return c.Logging.Validate()
}
