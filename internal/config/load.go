package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SCRY_SERVER_PORT.
const EnvPrefix = "SCRY"

// Load reads configuration from the environment and an optional
// ./config.yaml. Environment variables take precedence over file values.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. An empty path searches the
// working directory for config.yaml and tolerates its absence; an explicit
// path that cannot be read is an error.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Redis.Enabled = cfg.Cache.Backend == "redis"

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags on cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Pipeline.DefaultCount > cfg.Pipeline.MaxCount {
		return fmt.Errorf("config validation failed: pipeline.default_count %d exceeds pipeline.max_count %d",
			cfg.Pipeline.DefaultCount, cfg.Pipeline.MaxCount)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can populate it during
// Unmarshal, including required keys that have no sensible default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 120)
	v.SetDefault("server.shutdown_timeout_seconds", 20)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.complex_model_name", "gemini-2.5-pro")
	v.SetDefault("llm.vision_model_name", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.request_timeout_seconds", 30)
	v.SetDefault("llm.prompt_template_dir", "")

	v.SetDefault("knowledge.backend", "postgres")
	v.SetDefault("knowledge.base_url", "")
	v.SetDefault("knowledge.timeout_seconds", 10)
	v.SetDefault("knowledge.min_confidence", 0.7)
	v.SetDefault("knowledge.min_context_length", 50)
	v.SetDefault("knowledge.result_limit", 10)

	v.SetDefault("cache.backend", "postgres")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.sweep_interval_minutes", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("pipeline.default_count", 5)
	v.SetDefault("pipeline.max_count", 50)
	v.SetDefault("pipeline.min_content_length", 50)
	v.SetDefault("pipeline.max_concepts", 10)
	v.SetDefault("pipeline.min_concept_length", 4)
	v.SetDefault("pipeline.tutor_timeout_seconds", 20)

	v.SetDefault("srs.max_update_attempts", 5)
	v.SetDefault("srs.min_ease_factor", 1.3)
	v.SetDefault("srs.correct_ease_delta", 0.1)
	v.SetDefault("srs.incorrect_ease_delta", -0.2)

	v.SetDefault("analytics.enabled", true)
	v.SetDefault("analytics.queue_size", 256)
	v.SetDefault("analytics.worker_count", 2)
	v.SetDefault("analytics.write_timeout_seconds", 5)
}
