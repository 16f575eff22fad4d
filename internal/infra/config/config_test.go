package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-secret"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, BackendOllama, cfg.Generation.Backend)
	require.Equal(t, 150, cfg.Generation.MaxOutputLength)
	require.Equal(t, 30, cfg.Generation.MinOutputLength)
	require.Equal(t, 500, cfg.Generation.MaxTokens)
	require.InDelta(t, 0.3, cfg.Generation.Temperature, 1e-6)
	require.Equal(t, 60*time.Second, cfg.Generation.Timeout)
	require.Equal(t, 10, cfg.Summary.MaxPDFSizeMB)
	require.Equal(t, 10, cfg.Summary.MaxKeywords)
	require.Equal(t, "jwt", cfg.Auth.CookieName)
	require.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, testSecret, cfg.Auth.Secret)
	require.Equal(t, QueueImmediate, cfg.History.Queue)
	require.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_LegacyEnvironmentNames(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("OLLAMA_MODEL", "mistral:7b")
	t.Setenv("OLLAMA_TEMPERATURE", "0.5")
	t.Setenv("SUMMARY_MAX_TOKENS", "300")
	t.Setenv("SUMMARY_MAX_LENGTH", "200")
	t.Setenv("SUMMARY_MIN_LENGTH", "40")
	t.Setenv("PDF_MAX_SIZE_MB", "5")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://ollama:11434", cfg.Generation.BaseURL)
	require.Equal(t, "mistral:7b", cfg.Generation.Model)
	require.InDelta(t, 0.5, cfg.Generation.Temperature, 1e-6)
	require.Equal(t, 300, cfg.Generation.MaxTokens)
	require.Equal(t, 200, cfg.Generation.MaxOutputLength)
	require.Equal(t, 40, cfg.Generation.MinOutputLength)
	require.Equal(t, 5, cfg.Summary.MaxPDFSizeMB)
	require.Equal(t, "mongodb://mongo:27017", cfg.Mongo.URI)
}

func TestLoad_HuggingFaceBackend(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("GENERATION_BACKEND", "HuggingFace")
	t.Setenv("HUGGINGFACE_API_KEY", "hf_test")
	t.Setenv("HUGGINGFACE_MODEL", "facebook/bart-large-cnn")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, BackendHuggingFace, cfg.Generation.Backend)
	require.Equal(t, "hf_test", cfg.Generation.APIKey)
	require.Equal(t, "facebook/bart-large-cnn", cfg.Generation.Model)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
http:
  address: ":9090"
summary:
  maxKeywords: 5
generation:
  backend: openai
  apiKey: sk-file
  model: gpt-4o-mini
auth:
  secret: file-secret-0123456789
history:
  queue: immediate
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("HTTP_ADDRESS", ":7070")
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.HTTP.Address)
	require.Equal(t, 5, cfg.Summary.MaxKeywords)
	require.Equal(t, BackendOpenAI, cfg.Generation.Backend)
	require.Equal(t, "sk-file", cfg.Generation.APIKey)
	require.Equal(t, "file-secret-0123456789", cfg.Auth.Secret)
	// untouched sections keep their defaults
	require.Equal(t, 150, cfg.Generation.MaxOutputLength)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults with secret", func(*Config) {}, true},
		{"missing secret", func(c *Config) { c.Auth.Secret = "" }, false},
		{"short secret", func(c *Config) { c.Auth.Secret = "short" }, false},
		{"unknown backend", func(c *Config) { c.Generation.Backend = "gemini" }, false},
		{"hosted backend without key", func(c *Config) { c.Generation.Backend = BackendHuggingFace }, false},
		{"min above max", func(c *Config) { c.Generation.MinOutputLength = 200 }, false},
		{"zero pdf size", func(c *Config) { c.Summary.MaxPDFSizeMB = 0 }, false},
		{"valkey queue without valkey", func(c *Config) { c.History.Queue = QueueValkey }, false},
		{"valkey queue with valkey", func(c *Config) {
			c.History.Queue = QueueValkey
			c.Valkey.Enabled = true
			c.Valkey.Addr = "localhost:6379"
		}, true},
		{"postgres store without dsn", func(c *Config) { c.History.Store = StorePostgres }, false},
		{"r2 without bucket", func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Endpoint = "https://acc.r2.cloudflarestorage.com"
		}, false},
		{"memory archive", func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Driver = StorageMemory
		}, true},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			cfg.Auth.Secret = testSecret
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}
