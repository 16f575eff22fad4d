package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Generation backends.
const (
	BackendOllama      = "ollama"
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
)

// History queue kinds.
const (
	QueueImmediate = "immediate"
	QueueValkey    = "valkey"
)

// Archive drivers.
const (
	StorageR2     = "r2"
	StorageMemory = "memory"
)

// History stores.
const (
	StoreAuto     = "auto"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Summary    SummaryConfig    `yaml:"summary"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Valkey     ValkeyConfig     `yaml:"valkey"`
	History    HistoryConfig    `yaml:"history"`
	Storage    StorageConfig    `yaml:"storage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// SummaryConfig defines the limits of the summarization pipeline.
type SummaryConfig struct {
	MaxKeywords      int    `yaml:"maxKeywords"`
	MaxPDFSizeMB     int    `yaml:"maxPdfSizeMb"`
	ModelDescription string `yaml:"modelDescription"`
}

// GenerationConfig selects and tunes the text generation backend.
type GenerationConfig struct {
	Backend         string        `yaml:"backend"`
	BaseURL         string        `yaml:"baseUrl"`
	APIKey          string        `yaml:"apiKey"`
	Model           string        `yaml:"model"`
	MaxOutputLength int           `yaml:"maxOutputLength"`
	MinOutputLength int           `yaml:"minOutputLength"`
	MaxTokens       int           `yaml:"maxTokens"`
	Temperature     float32       `yaml:"temperature"`
	Timeout         time.Duration `yaml:"timeout"`
	HealthTimeout   time.Duration `yaml:"healthTimeout"`
	MaxInputChars   int           `yaml:"maxInputChars"`
	MaxInputTokens  int           `yaml:"maxInputTokens"`
}

// AuthConfig configures JWT issuance and the session cookie.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
	CookieName      string        `yaml:"cookieName"`
	CookieSecure    bool          `yaml:"cookieSecure"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
	Migrate  bool   `yaml:"migrate"`
}

// MongoConfig locates the history collection of the document store.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// ValkeyConfig contains connection information for the keyword trend store and the history queue.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// HistoryConfig tunes the activity recorder.
type HistoryConfig struct {
	Store        string        `yaml:"store"`
	Queue        string        `yaml:"queue"`
	QueueKey     string        `yaml:"queueKey"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	ErrorBuffer  int           `yaml:"errorBuffer"`
}

// StorageConfig configures the optional upload archive.
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Driver    string `yaml:"driver"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// MetricsConfig exposes the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	// variables already present in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

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

// applyEnvOverrides reads each setting from the first non-empty variable. Legacy names come last.
func applyEnvOverrides(cfg *Config) {
	envString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	if v := firstEnv("PORT"); v != "" && os.Getenv("HTTP_ADDRESS") == "" {
		cfg.HTTP.Address = ":" + strings.TrimPrefix(v, ":")
	}
	envDuration(&cfg.HTTP.ReadTimeout, "HTTP_READ_TIMEOUT")
	envDuration(&cfg.HTTP.WriteTimeout, "HTTP_WRITE_TIMEOUT")
	envList(&cfg.HTTP.AllowedOrigins, "HTTP_ALLOWED_ORIGINS", "CORS_ORIGIN")
	envBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	envInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	envInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	envBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	envInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	envDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	envString(&cfg.Log.Level, "LOG_LEVEL")

	envInt(&cfg.Summary.MaxKeywords, "SUMMARY_MAX_KEYWORDS")
	envInt(&cfg.Summary.MaxPDFSizeMB, "SUMMARY_MAX_PDF_SIZE_MB", "PDF_MAX_SIZE_MB")
	envString(&cfg.Summary.ModelDescription, "SUMMARY_MODEL_DESCRIPTION")

	envString(&cfg.Generation.Backend, "GENERATION_BACKEND")
	cfg.Generation.Backend = strings.ToLower(strings.TrimSpace(cfg.Generation.Backend))
	switch cfg.Generation.Backend {
	case BackendHuggingFace:
		envString(&cfg.Generation.BaseURL, "GENERATION_BASE_URL", "HUGGINGFACE_BASE_URL")
		envString(&cfg.Generation.APIKey, "GENERATION_API_KEY", "HUGGINGFACE_API_KEY")
		envString(&cfg.Generation.Model, "GENERATION_MODEL", "HUGGINGFACE_MODEL")
	case BackendOpenAI:
		envString(&cfg.Generation.BaseURL, "GENERATION_BASE_URL", "LLM_BASE_URL")
		envString(&cfg.Generation.APIKey, "GENERATION_API_KEY", "LLM_API_KEY")
		envString(&cfg.Generation.Model, "GENERATION_MODEL", "LLM_MODEL")
	default:
		envString(&cfg.Generation.BaseURL, "GENERATION_BASE_URL", "OLLAMA_BASE_URL")
		envString(&cfg.Generation.APIKey, "GENERATION_API_KEY")
		envString(&cfg.Generation.Model, "GENERATION_MODEL", "OLLAMA_MODEL")
	}
	envInt(&cfg.Generation.MaxOutputLength, "GENERATION_MAX_OUTPUT_LENGTH", "SUMMARY_MAX_LENGTH")
	envInt(&cfg.Generation.MinOutputLength, "GENERATION_MIN_OUTPUT_LENGTH", "SUMMARY_MIN_LENGTH")
	envInt(&cfg.Generation.MaxTokens, "GENERATION_MAX_TOKENS", "SUMMARY_MAX_TOKENS")
	envFloat32(&cfg.Generation.Temperature, "GENERATION_TEMPERATURE", "OLLAMA_TEMPERATURE")
	envDuration(&cfg.Generation.Timeout, "GENERATION_TIMEOUT")
	envDuration(&cfg.Generation.HealthTimeout, "GENERATION_HEALTH_TIMEOUT")
	envInt(&cfg.Generation.MaxInputChars, "GENERATION_MAX_INPUT_CHARS")
	envInt(&cfg.Generation.MaxInputTokens, "GENERATION_MAX_INPUT_TOKENS")

	envString(&cfg.Auth.Secret, "AUTH_SECRET", "JWT_SECRET")
	envDuration(&cfg.Auth.TokenTTL, "AUTH_TOKEN_TTL")
	envDuration(&cfg.Auth.RefreshTokenTTL, "AUTH_REFRESH_TOKEN_TTL")
	envString(&cfg.Auth.CookieName, "AUTH_COOKIE_NAME")
	envBool(&cfg.Auth.CookieSecure, "AUTH_COOKIE_SECURE")
	if strings.EqualFold(os.Getenv("NODE_ENV"), "production") || strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		cfg.Auth.CookieSecure = true
	}

	envString(&cfg.Postgres.DSN, "POSTGRES_DSN", "DATABASE_URL")
	envInt32(&cfg.Postgres.MaxConns, "POSTGRES_MAX_CONNS")
	envInt32(&cfg.Postgres.MinConns, "POSTGRES_MIN_CONNS")
	envBool(&cfg.Postgres.Migrate, "POSTGRES_MIGRATE")

	envString(&cfg.Mongo.URI, "MONGO_URI")
	envString(&cfg.Mongo.Database, "MONGO_DATABASE")
	envString(&cfg.Mongo.Collection, "MONGO_COLLECTION")

	envBool(&cfg.Valkey.Enabled, "VALKEY_ENABLED")
	envString(&cfg.Valkey.Addr, "VALKEY_ADDR", "REDIS_URL")
	envString(&cfg.Valkey.Prefix, "VALKEY_PREFIX")

	envString(&cfg.History.Store, "HISTORY_STORE")
	envString(&cfg.History.Queue, "HISTORY_QUEUE")
	envString(&cfg.History.QueueKey, "HISTORY_QUEUE_KEY")
	envDuration(&cfg.History.WriteTimeout, "HISTORY_WRITE_TIMEOUT")
	envInt(&cfg.History.ErrorBuffer, "HISTORY_ERROR_BUFFER")

	envBool(&cfg.Storage.Enabled, "STORAGE_ENABLED")
	envString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	envString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT", "R2_ENDPOINT")
	envString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY", "R2_ACCESS_KEY_ID")
	envString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY", "R2_SECRET_ACCESS_KEY")
	envString(&cfg.Storage.Bucket, "STORAGE_BUCKET", "R2_BUCKET")
	envString(&cfg.Storage.Region, "STORAGE_REGION")

	envBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
	envString(&cfg.Metrics.Path, "METRICS_PATH")
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/metrics",
				},
			},
		},
		Log: LogConfig{Level: "info"},
		Summary: SummaryConfig{
			MaxKeywords:      10,
			MaxPDFSizeMB:     10,
			ModelDescription: "Modèle de langage utilisé pour résumer des textes et des documents PDF en français",
		},
		Generation: GenerationConfig{
			Backend:         BackendOllama,
			MaxOutputLength: 150,
			MinOutputLength: 30,
			MaxTokens:       500,
			Temperature:     0.3,
			Timeout:         60 * time.Second,
			HealthTimeout:   5 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:        7 * 24 * time.Hour,
			RefreshTokenTTL: 30 * 24 * time.Hour,
			CookieName:      "jwt",
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
			MinConns: 0,
			Migrate:  true,
		},
		Mongo: MongoConfig{
			Database:   "pdf_summarizer",
			Collection: "histories",
		},
		Valkey: ValkeyConfig{
			Prefix: "summarizer",
		},
		History: HistoryConfig{
			Store:        StoreAuto,
			Queue:        QueueImmediate,
			QueueKey:     "summarizer:history",
			WriteTimeout: 5 * time.Second,
			ErrorBuffer:  64,
		},
		Storage: StorageConfig{
			Driver: StorageR2,
			Region: "auto",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.Summary.MaxKeywords <= 0 {
		return errors.New("summary.maxKeywords must be positive")
	}
	if c.Summary.MaxPDFSizeMB <= 0 {
		return errors.New("summary.maxPdfSizeMb must be positive")
	}
	switch c.Generation.Backend {
	case BackendOllama:
	case BackendHuggingFace, BackendOpenAI:
		if strings.TrimSpace(c.Generation.APIKey) == "" {
			return fmt.Errorf("generation.apiKey is required for the %s backend", c.Generation.Backend)
		}
	default:
		return fmt.Errorf("generation.backend %q is not supported", c.Generation.Backend)
	}
	if c.Generation.MaxOutputLength <= 0 || c.Generation.MinOutputLength < 0 {
		return errors.New("generation output lengths must be positive")
	}
	if c.Generation.MinOutputLength > c.Generation.MaxOutputLength {
		return errors.New("generation.minOutputLength cannot exceed generation.maxOutputLength")
	}
	if c.Generation.Timeout <= 0 {
		return errors.New("generation.timeout must be positive")
	}
	if c.Generation.Temperature < 0 {
		return errors.New("generation.temperature cannot be negative")
	}
	if len(strings.TrimSpace(c.Auth.Secret)) < 16 {
		return errors.New("auth.secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("auth token ttls must be positive")
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		return errors.New("auth.cookieName cannot be empty")
	}
	switch c.History.Store {
	case StoreAuto, StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return errors.New("postgres.dsn is required when history.store is postgres")
		}
	case StoreMongo:
		if strings.TrimSpace(c.Mongo.URI) == "" {
			return errors.New("mongo.uri is required when history.store is mongo")
		}
	default:
		return fmt.Errorf("history.store %q is not supported", c.History.Store)
	}
	switch c.History.Queue {
	case QueueImmediate:
	case QueueValkey:
		if !c.Valkey.Enabled {
			return errors.New("history.queue valkey requires valkey.enabled")
		}
	default:
		return fmt.Errorf("history.queue %q is not supported", c.History.Queue)
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Storage.Enabled {
		switch c.Storage.Driver {
		case StorageMemory:
		case StorageR2:
			if strings.TrimSpace(c.Storage.Endpoint) == "" || strings.TrimSpace(c.Storage.Bucket) == "" {
				return errors.New("storage.endpoint and storage.bucket are required for the r2 driver")
			}
		default:
			return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func envString(dst *string, names ...string) {
	if v := firstEnv(names...); v != "" {
		*dst = v
	}
}

func envList(dst *[]string, names ...string) {
	v := firstEnv(names...)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func envInt(dst *int, names ...string) {
	if v := firstEnv(names...); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func envInt32(dst *int32, names ...string) {
	if v := firstEnv(names...); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(parsed)
		}
	}
}

func envFloat32(dst *float32, names ...string) {
	if v := firstEnv(names...); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			*dst = float32(parsed)
		}
	}
}

func envBool(dst *bool, names ...string) {
	if v := firstEnv(names...); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func envDuration(dst *time.Duration, names ...string) {
	if v := firstEnv(names...); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}
