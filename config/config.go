package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// Session persistence
	Redis RedisConfig

	// Capability ports
	LLM    LLMConfig
	Voyage VoyageConfig

	// Turn-processing engine tuning
	Engine EngineConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port            int
	Mode            string
	RateLimitPerMin int
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type RedisConfig struct {
	URL        string
	SessionTTL time.Duration
}

type VoyageConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// LLMConfig holds configuration for the LLM provider abstraction layer.
type LLMConfig struct {
	Providers       []ProviderConfig
	FallbackEnabled bool
	RetryAttempts   int
	RetryDelay      time.Duration
	MaxTotalTimeout time.Duration
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	Name     string
	Enabled  bool
	Priority int
	APIKey   string
	BaseURL  string
	Model    string
}

// EngineConfig carries the tunable constants of the suggestion engine.
type EngineConfig struct {
	// Topic tracking
	EMAAlpha float64 // smoothing constant for the topic vector

	// Context maintenance
	HistoryThreshold int // recent-window length that triggers compression
	HistoryKeep      int // turns kept after compression
	SummaryMaxChars  int // merged summary budget, truncated from the oldest end

	// Scoring
	WeightProfile float64 // profile-similarity term
	WeightContext float64 // context-similarity (or distance) term
	WeightSafety  float64 // safety placeholder term
	SuggestionCap int     // ranked list truncation

	// External call ceilings
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration

	// Transport behavior
	AutoDeleteOnDisconnect bool
}

// Load loads configuration using Viper.
// Config file name: config.yaml, searched in ./config, ., /etc/app/
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.HTTPServer.RateLimitPerMin = viper.GetInt("http_server.rate_limit_per_min")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	// Redis
	cfg.Redis.URL = viper.GetString("redis.url")
	cfg.Redis.SessionTTL = viper.GetDuration("redis.session_ttl")
	if redisURL := viper.GetString("redis_url"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}

	// Voyage AI
	cfg.Voyage.APIKey = viper.GetString("voyage.api_key")
	cfg.Voyage.Model = viper.GetString("voyage.model")
	cfg.Voyage.BaseURL = viper.GetString("voyage.base_url")
	if voyageKey := viper.GetString("voyage_api_key"); voyageKey != "" {
		cfg.Voyage.APIKey = voyageKey
	}

	// LLM Provider Abstraction
	cfg.LLM.FallbackEnabled = viper.GetBool("llm.fallback_enabled")
	cfg.LLM.RetryAttempts = viper.GetInt("llm.retry_attempts")
	cfg.LLM.RetryDelay = viper.GetDuration("llm.retry_delay")
	cfg.LLM.MaxTotalTimeout = viper.GetDuration("llm.max_total_timeout")

	if viper.IsSet("llm.providers") {
		providersRaw := viper.Get("llm.providers")
		if providersList, ok := providersRaw.([]interface{}); ok {
			for _, p := range providersList {
				if providerMap, ok := p.(map[string]interface{}); ok {
					provider := ProviderConfig{
						Name:     getStringFromMap(providerMap, "name"),
						Enabled:  getBoolFromMap(providerMap, "enabled"),
						Priority: getIntFromMap(providerMap, "priority"),
						APIKey:   expandEnvVar(getStringFromMap(providerMap, "api_key")),
						BaseURL:  getStringFromMap(providerMap, "base_url"),
						Model:    getStringFromMap(providerMap, "model"),
					}
					cfg.LLM.Providers = append(cfg.LLM.Providers, provider)
				}
			}
		}
	}

	// Single-provider shortcut for env-only deployments.
	if len(cfg.LLM.Providers) == 0 {
		if key := viper.GetString("openai_api_key"); key != "" {
			cfg.LLM.Providers = append(cfg.LLM.Providers, ProviderConfig{
				Name:    "openai",
				Enabled: true,
				APIKey:  key,
				BaseURL: viper.GetString("openai_base_url"),
				Model:   viper.GetString("openai_model"),
			})
		}
	}

	// Engine
	cfg.Engine.EMAAlpha = viper.GetFloat64("engine.ema_alpha")
	cfg.Engine.HistoryThreshold = viper.GetInt("engine.history_threshold")
	cfg.Engine.HistoryKeep = viper.GetInt("engine.history_keep")
	cfg.Engine.SummaryMaxChars = viper.GetInt("engine.summary_max_chars")
	cfg.Engine.WeightProfile = viper.GetFloat64("engine.weight_profile")
	cfg.Engine.WeightContext = viper.GetFloat64("engine.weight_context")
	cfg.Engine.WeightSafety = viper.GetFloat64("engine.weight_safety")
	cfg.Engine.SuggestionCap = viper.GetInt("engine.suggestion_cap")
	cfg.Engine.EmbedTimeout = viper.GetDuration("engine.embed_timeout")
	cfg.Engine.GenerateTimeout = viper.GetDuration("engine.generate_timeout")
	cfg.Engine.AutoDeleteOnDisconnect = viper.GetBool("engine.auto_delete_on_disconnect")

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("http_server.rate_limit_per_min", 120)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.mode", "development")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("redis.session_ttl", "24h")

	viper.SetDefault("llm.fallback_enabled", true)
	viper.SetDefault("llm.retry_attempts", 2)
	viper.SetDefault("llm.retry_delay", "500ms")
	viper.SetDefault("llm.max_total_timeout", "45s")

	viper.SetDefault("engine.ema_alpha", 0.3)
	viper.SetDefault("engine.history_threshold", 8)
	viper.SetDefault("engine.history_keep", 5)
	viper.SetDefault("engine.summary_max_chars", 2000)
	viper.SetDefault("engine.weight_profile", 0.5)
	viper.SetDefault("engine.weight_context", 0.4)
	viper.SetDefault("engine.weight_safety", 0.1)
	viper.SetDefault("engine.suggestion_cap", 3)
	viper.SetDefault("engine.embed_timeout", "5s")
	viper.SetDefault("engine.generate_timeout", "15s")
	viper.SetDefault("engine.auto_delete_on_disconnect", true)
}

// expandEnvVar expands environment variables in the format ${VAR_NAME}.
func expandEnvVar(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return os.Getenv(value[2 : len(value)-1])
	}
	return value
}

func getStringFromMap(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getBoolFromMap(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func getIntFromMap(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
