package config

import (
	"time"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/extract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/graph"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/observability"
)

// Config is the root configuration for clausegraph.
type Config struct {
	Neo4j     Neo4jConfig                 `mapstructure:"neo4j" yaml:"neo4j" validate:"required"`
	Retry     RetryConfig                 `mapstructure:"retry" yaml:"retry"`
	Extractor ExtractorConfig             `mapstructure:"extractor" yaml:"extractor"`
	Audit     AuditConfig                 `mapstructure:"audit" yaml:"audit"`
	Logging   observability.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing   observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics   observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// Neo4jConfig contains graph database connection settings.
type Neo4jConfig struct {
	URI                     string        `mapstructure:"uri" yaml:"uri" validate:"required,neo4juri"`
	User                    string        `mapstructure:"user" yaml:"user" validate:"required"`
	Password                string        `mapstructure:"password" yaml:"password" validate:"required"`
	Database                string        `mapstructure:"database" yaml:"database"`
	MaxPoolSize             int           `mapstructure:"max_pool_size" yaml:"max_pool_size" validate:"min=1,max=1000"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout" validate:"min=1s"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time" yaml:"max_transaction_retry_time" validate:"min=0"`
}

// RetryConfig bounds retries of transient graph and LLM failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"min=1,max=10"`
	BaseDelay   time.Duration `mapstructure:"base_delay" yaml:"base_delay" validate:"min=1ms"`
	MaxDelay    time.Duration `mapstructure:"max_delay" yaml:"max_delay" validate:"min=1ms"`
	Multiplier  float64       `mapstructure:"multiplier" yaml:"multiplier" validate:"min=1"`
}

// ExtractorConfig selects and configures the extractor.
type ExtractorConfig struct {
	Type        string        `mapstructure:"type" yaml:"type" validate:"oneof=pattern llm"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=0"`

	// RequestsPerMinute caps LLM calls. Zero means unlimited.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute" validate:"min=0"`
}

// AuditConfig contains pipeline settings.
type AuditConfig struct {
	// MinSeverity filters reported risks. Empty reports every severity.
	MinSeverity string `mapstructure:"min_severity" yaml:"min_severity" validate:"omitempty,oneof=low medium high critical"`
}

// ClientConfig converts the Neo4j settings for the connection pool.
func (c Neo4jConfig) ClientConfig() graph.ClientConfig {
	return graph.ClientConfig{
		URI:                     c.URI,
		Username:                c.User,
		Password:                c.Password,
		Database:                c.Database,
		MaxConnectionPoolSize:   c.MaxPoolSize,
		ConnectionTimeout:       c.ConnectionTimeout,
		MaxTransactionRetryTime: c.MaxTransactionRetryTime,
	}
}

// Policy converts the retry settings.
func (c RetryConfig) Policy() graph.RetryPolicy {
	return graph.RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		MaxDelay:    c.MaxDelay,
		Multiplier:  c.Multiplier,
	}
}

// LLMConfig converts the extractor settings for the LLM extractor.
func (c *Config) LLMConfig() extract.LLMConfig {
	return extract.LLMConfig{
		APIKey:      c.Extractor.APIKey,
		Model:       c.Extractor.Model,
		BaseURL:     c.Extractor.BaseURL,
		Timeout:     c.Extractor.Timeout,
		Temperature: c.Extractor.Temperature,
		MaxTokens:   c.Extractor.MaxTokens,
		Retry:       c.Retry.Policy(),

		RequestsPerMinute: c.Extractor.RequestsPerMinute,
	}
}

// Severity returns the risk threshold, or "" when unset.
func (c AuditConfig) Severity() contract.Severity {
	return contract.Severity(c.MinSeverity)
}

const redacted = "[REDACTED]"

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Neo4j.Password != "" {
		out.Neo4j.Password = redacted
	}
	if out.Extractor.APIKey != "" {
		out.Extractor.APIKey = redacted
	}
	return &out
}
