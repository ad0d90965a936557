package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Places   PlacesConfig   `yaml:"places"`
	Routing  RoutingConfig  `yaml:"routing"`
	Cache    CacheConfig    `yaml:"cache"`
	Postgres PostgresConfig `yaml:"postgres"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	TokenBudget int           `yaml:"tokenBudget"`
}

// PlacesConfig contains the venue search provider settings.
type PlacesConfig struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// RoutingConfig configures the walking duration providers. The primary
// matrix provider is optional; OSRM serves as the keyless fallback.
type RoutingConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	OSRMBaseURL string        `yaml:"osrmBaseUrl"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CacheConfig sets per-tier TTLs for each logical cache plus the optional
// Valkey second tier.
type CacheConfig struct {
	Valkey   ValkeyConfig   `yaml:"valkey"`
	Search   CacheTTLConfig `yaml:"search"`
	Details  CacheTTLConfig `yaml:"details"`
	Duration CacheTTLConfig `yaml:"duration"`
}

// ValkeyConfig contains connection information for the shared cache tier.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// CacheTTLConfig sets the memory and shared tier lifetimes for one cache.
type CacheTTLConfig struct {
	MemoryTTL time.Duration `yaml:"memoryTtl"`
	SharedTTL time.Duration `yaml:"sharedTtl"`
}

// PostgresConfig contains DSN and pooling settings for run history.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// PipelineConfig holds orchestrator timing knobs.
type PipelineConfig struct {
	ErrorResetDelay time.Duration `yaml:"errorResetDelay"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_TOKEN_BUDGET"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.TokenBudget = parsed
		}
	}
	if v := os.Getenv("PLACES_API_KEY"); v != "" {
		cfg.Places.APIKey = v
	}
	if v := os.Getenv("PLACES_BASE_URL"); v != "" {
		cfg.Places.BaseURL = v
	}
	if v := os.Getenv("ROUTING_API_KEY"); v != "" {
		cfg.Routing.APIKey = v
	}
	if v := os.Getenv("ROUTING_BASE_URL"); v != "" {
		cfg.Routing.BaseURL = v
	}
	if v := os.Getenv("ROUTING_OSRM_BASE_URL"); v != "" {
		cfg.Routing.OSRMBaseURL = v
	}
	if v := os.Getenv("CACHE_VALKEY_ENABLED"); v != "" {
		cfg.Cache.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("PIPELINE_ERROR_RESET_DELAY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.ErrorResetDelay = parsed
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.4,
			Timeout:     30 * time.Second,
			TokenBudget: 6000,
		},
		Places: PlacesConfig{
			Timeout: 15 * time.Second,
		},
		Routing: RoutingConfig{
			OSRMBaseURL: "https://router.project-osrm.org",
			Timeout:     15 * time.Second,
		},
		Cache: CacheConfig{
			Search:   CacheTTLConfig{MemoryTTL: 15 * time.Minute, SharedTTL: time.Hour},
			Details:  CacheTTLConfig{MemoryTTL: time.Hour, SharedTTL: 24 * time.Hour},
			Duration: CacheTTLConfig{MemoryTTL: time.Hour, SharedTTL: 7 * 24 * time.Hour},
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
			MinConns: 0,
		},
		Pipeline: PipelineConfig{
			ErrorResetDelay: 5 * time.Second,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.TokenBudget <= 0 {
		return errors.New("llm.tokenBudget must be positive")
	}
	if c.Cache.Valkey.Enabled && strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
		return errors.New("cache.valkey.addr cannot be empty when the shared tier is enabled")
	}
	for name, ttl := range map[string]CacheTTLConfig{
		"search":   c.Cache.Search,
		"details":  c.Cache.Details,
		"duration": c.Cache.Duration,
	} {
		if ttl.MemoryTTL <= 0 || ttl.SharedTTL <= 0 {
			return fmt.Errorf("cache.%s ttls must be positive", name)
		}
	}
	if c.Routing.OSRMBaseURL == "" && c.Routing.APIKey == "" {
		return errors.New("routing needs either an api key or an osrm base url")
	}
	if c.Pipeline.ErrorResetDelay <= 0 {
		return errors.New("pipeline.errorResetDelay must be positive")
	}
	return nil
}
