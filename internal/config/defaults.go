package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/extract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/observability"
)

// DefaultConfig returns a Config with sensible default values for a local
// Neo4j and the offline pattern extractor.
func DefaultConfig() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			URI:                     "bolt://localhost:7687",
			User:                    "neo4j",
			Password:                "password",
			MaxPoolSize:             50,
			ConnectionTimeout:       30 * time.Second,
			MaxTransactionRetryTime: 5 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			Multiplier:  2,
		},
		Extractor: ExtractorConfig{
			Type:      "pattern",
			Model:     extract.DefaultModel,
			Timeout:   60 * time.Second,
			MaxTokens: 4096,
		},
		Logging: observability.LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Tracing: observability.TracingConfig{
			Enabled:     false,
			Provider:    "noop",
			ServiceName: "clausegraph",
			SampleRate:  1.0,
		},
		Metrics: observability.MetricsConfig{
			Enabled: false,
			Address: ":9464",
			Path:    "/metrics",
		},
	}
}

// DefaultHomeDir returns ~/.clausegraph, or a directory under the temp dir
// when the user home cannot be determined.
func DefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".clausegraph")
	}
	return filepath.Join(userHome, ".clausegraph")
}

// DefaultConfigPath returns the config file path for a home directory.
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}
