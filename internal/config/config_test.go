package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// clearEnv blanks every override variable so the host environment cannot
// leak into a test. Empty variables are treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
}

func newTestLoader() ConfigLoader {
	return NewConfigLoader(NewValidator(), WithEnvFiles())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.User)
	assert.Equal(t, 50, cfg.Neo4j.MaxPoolSize)
	assert.Equal(t, 30*time.Second, cfg.Neo4j.ConnectionTimeout)

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 5*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)

	assert.Equal(t, "pattern", cfg.Extractor.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.Metrics.Enabled)

	assert.NoError(t, NewValidator().Validate(cfg))
}

func TestLoadValidConfig(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
neo4j:
  uri: neo4j+s://graph.example.com:7687
  user: auditor
  password: s3cret
  database: contracts
  max_pool_size: 20
  connection_timeout: 10s

extractor:
  type: LLM
  api_key: sk-file
  model: gpt-4o
  base_url: https://llm.example.com/v1
  temperature: 0.2

audit:
  min_severity: HIGH

logging:
  level: debug
  format: text
  output: stdout

metrics:
  enabled: true
  address: 127.0.0.1:9464
  path: /metrics
`)

	cfg, err := newTestLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "neo4j+s://graph.example.com:7687", cfg.Neo4j.URI)
	assert.Equal(t, "auditor", cfg.Neo4j.User)
	assert.Equal(t, "contracts", cfg.Neo4j.Database)
	assert.Equal(t, 20, cfg.Neo4j.MaxPoolSize)
	assert.Equal(t, 10*time.Second, cfg.Neo4j.ConnectionTimeout)
	assert.Equal(t, 5*time.Second, cfg.Neo4j.MaxTransactionRetryTime, "unset keys keep defaults")

	assert.Equal(t, "llm", cfg.Extractor.Type)
	assert.Equal(t, "gpt-4o", cfg.Extractor.Model)
	assert.InDelta(t, 0.2, cfg.Extractor.Temperature, 1e-6)
	assert.Equal(t, contract.SeverityHigh, cfg.Audit.Severity())

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, DefaultConfig().Retry, cfg.Retry)
}

func TestLoad_EnvInterpolation(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLAUSEGRAPH_TEST_PASSWORD", "from-env")
	path := writeConfig(t, `
neo4j:
  uri: bolt://localhost:7687
  user: neo4j
  password: ${CLAUSEGRAPH_TEST_PASSWORD}
  database: ${CLAUSEGRAPH_TEST_UNSET}
`)

	cfg, err := newTestLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Neo4j.Password)
	assert.Equal(t, "${CLAUSEGRAPH_TEST_UNSET}", cfg.Neo4j.Database, "unset variables stay literal")
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEO4J_URI", "bolt://override:7687")
	t.Setenv("NEO4J_PASSWORD", "env-password")
	t.Setenv("LOG_LEVEL", "warn")
	path := writeConfig(t, `
neo4j:
  uri: bolt://file:7687
  password: file-password
logging:
  level: debug
`)

	cfg, err := newTestLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt://override:7687", cfg.Neo4j.URI)
	assert.Equal(t, "env-password", cfg.Neo4j.Password)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "neo4j", cfg.Neo4j.User)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("CLAUSEGRAPH_DOTENV_KEY=sk-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CLAUSEGRAPH_DOTENV_KEY") })

	path := writeConfig(t, `
extractor:
  type: llm
  api_key: ${CLAUSEGRAPH_DOTENV_KEY}
`)

	cfg, err := NewConfigLoader(NewValidator(), WithEnvFiles(envPath, filepath.Join(dir, "missing.env"))).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", cfg.Extractor.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := newTestLoader().Load(missing)
	assert.Equal(t, types.CONFIG_NOT_FOUND, types.CodeOf(err))

	t.Setenv("NEO4J_DATABASE", "from-env")
	cfg, err := newTestLoader().LoadWithDefaults(missing)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Neo4j.Database)
	assert.Equal(t, DefaultConfig().Neo4j.URI, cfg.Neo4j.URI)

	cfg, err = newTestLoader().LoadWithDefaults("")
	require.NoError(t, err)
	assert.Equal(t, "pattern", cfg.Extractor.Type)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "neo4j: [unterminated\n")

	_, err := newTestLoader().Load(path)
	assert.Equal(t, types.CONFIG_PARSE_FAILED, types.CodeOf(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"http uri", func(c *Config) { c.Neo4j.URI = "http://localhost:7474" }, "neo4j.uri must be a bolt://"},
		{"missing user", func(c *Config) { c.Neo4j.User = "" }, "neo4j.user is required"},
		{"pool size", func(c *Config) { c.Neo4j.MaxPoolSize = 0 }, "neo4j.max_pool_size must be at least 1"},
		{"short timeout", func(c *Config) { c.Neo4j.ConnectionTimeout = time.Millisecond }, "neo4j.connection_timeout must be at least 1s"},
		{"attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts must be at least 1"},
		{"delays", func(c *Config) { c.Retry.MaxDelay = 10 * time.Millisecond }, "retry.max_delay"},
		{"extractor type", func(c *Config) { c.Extractor.Type = "gpt" }, "extractor.type must be one of [pattern llm]"},
		{"llm without key", func(c *Config) { c.Extractor.Type = "llm" }, "extractor.api_key is required"},
		{"base url", func(c *Config) { c.Extractor.BaseURL = "not a url" }, "extractor.base_url must be a valid URL"},
		{"severity", func(c *Config) { c.Audit.MinSeverity = "urgent" }, "audit.min_severity must be one of"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging: invalid log level"},
		{"tracing provider", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Provider = "zipkin"
		}, "tracing: invalid tracing provider"},
		{"metrics path", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Path = "metrics"
		}, "metrics: invalid metrics path"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := v.Validate(cfg)
			require.Error(t, err)
			assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	assert.Error(t, v.Validate(nil))
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Neo4j.User = ""
	cfg.Extractor.Type = "llm"

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neo4j.user is required")
	assert.Contains(t, err.Error(), "extractor.api_key is required")
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Neo4j.Database = "contracts"
	cfg.Extractor.APIKey = "sk-test"

	client := cfg.Neo4j.ClientConfig()
	assert.Equal(t, cfg.Neo4j.URI, client.URI)
	assert.Equal(t, cfg.Neo4j.User, client.Username)
	assert.Equal(t, "contracts", client.Database)
	assert.Equal(t, 50, client.MaxConnectionPoolSize)
	assert.NoError(t, client.Validate())

	policy := cfg.Retry.Policy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, policy.BaseDelay)

	llm := cfg.LLMConfig()
	assert.Equal(t, "sk-test", llm.APIKey)
	assert.Equal(t, policy, llm.Retry)
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extractor.APIKey = "sk-secret"

	shown := cfg.Redacted()
	assert.Equal(t, "[REDACTED]", shown.Neo4j.Password)
	assert.Equal(t, "[REDACTED]", shown.Extractor.APIKey)
	assert.Equal(t, "password", cfg.Neo4j.Password, "original untouched")
	assert.Equal(t, "sk-secret", cfg.Extractor.APIKey)
}

func TestCamelToSnake(t *testing.T) {
	tests := map[string]string{
		"MaxPoolSize":             "max_pool_size",
		"URI":                     "uri",
		"APIKey":                  "api_key",
		"BaseURL":                 "base_url",
		"Neo4j":                   "neo4j",
		"MaxTransactionRetryTime": "max_transaction_retry_time",
	}
	for in, want := range tests {
		assert.Equal(t, want, camelToSnake(in), in)
	}
}
