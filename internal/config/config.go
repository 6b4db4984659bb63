package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	SRS       SRSConfig       `mapstructure:"srs"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeoutSeconds     int    `mapstructure:"read_timeout_seconds" validate:"gt=0"`
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds" validate:"gt=0"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=1"`
}

// LLMConfig contains the generative model settings.
type LLMConfig struct {
	GeminiAPIKey          string  `mapstructure:"gemini_api_key" validate:"required"`
	ModelName             string  `mapstructure:"model_name" validate:"required"`
	ComplexModelName      string  `mapstructure:"complex_model_name" validate:"required"`
	VisionModelName       string  `mapstructure:"vision_model_name" validate:"required"`
	Temperature           float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries            int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds     int     `mapstructure:"retry_delay_seconds" validate:"gte=1"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"gte=1"`
	// PromptTemplateDir optionally overrides the embedded prompt templates.
	PromptTemplateDir string `mapstructure:"prompt_template_dir"`
}

// KnowledgeConfig controls the knowledge cache lookup.
type KnowledgeConfig struct {
	Backend          string  `mapstructure:"backend" validate:"oneof=postgres http none"`
	BaseURL          string  `mapstructure:"base_url" validate:"required_if=Backend http"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds" validate:"gte=1"`
	MinConfidence    float64 `mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	MinContextLength int     `mapstructure:"min_context_length" validate:"gte=0"`
	ResultLimit      int     `mapstructure:"result_limit" validate:"gte=1,lte=100"`
}

// CacheConfig controls the fingerprint-keyed context cache.
type CacheConfig struct {
	Backend              string `mapstructure:"backend" validate:"oneof=postgres redis"`
	TTLHours             int    `mapstructure:"ttl_hours" validate:"gte=1"`
	SweepIntervalMinutes int    `mapstructure:"sweep_interval_minutes" validate:"gte=1"`
}

// RedisConfig is used when the cache backend is redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Enabled  bool   `mapstructure:"-"`
}

// PipelineConfig tunes the generation pipeline.
type PipelineConfig struct {
	DefaultCount        int `mapstructure:"default_count" validate:"gte=1,lte=50"`
	MaxCount            int `mapstructure:"max_count" validate:"gte=1,lte=50"`
	MinContentLength    int `mapstructure:"min_content_length" validate:"gte=1"`
	MaxConcepts         int `mapstructure:"max_concepts" validate:"gte=1"`
	MinConceptLength    int `mapstructure:"min_concept_length" validate:"gte=1"`
	TutorTimeoutSeconds int `mapstructure:"tutor_timeout_seconds" validate:"gte=1"`
}

// SRSConfig contains scheduler settings.
type SRSConfig struct {
	MaxUpdateAttempts  int     `mapstructure:"max_update_attempts" validate:"gte=1,lte=20"`
	MinEaseFactor      float64 `mapstructure:"min_ease_factor" validate:"gte=1.3"`
	CorrectEaseDelta   float64 `mapstructure:"correct_ease_delta" validate:"gte=0"`
	IncorrectEaseDelta float64 `mapstructure:"incorrect_ease_delta" validate:"lte=0"`
}

// AnalyticsConfig controls asynchronous event recording.
type AnalyticsConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	QueueSize   int  `mapstructure:"queue_size" validate:"gte=1"`
	WorkerCount int  `mapstructure:"worker_count" validate:"gte=1"`

	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" validate:"gte=1"`
}

// WriteTimeout bounds a single analytics sink write.
func (c AnalyticsConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-attempt model call timeout.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RetryDelay returns the base backoff delay.
func (c LLMConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// TTL returns the cache entry time to live.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SweepInterval returns how often expired cache entries are deleted.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// Timeout returns the knowledge lookup timeout.
func (c KnowledgeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
