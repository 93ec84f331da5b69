package observability

import (
	"fmt"
	"strings"
)

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Provider    string  `yaml:"provider" mapstructure:"provider"`
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRate  float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"` // plaintext gRPC to the collector
}

var tracingProviders = []string{"otlp", "stdout", "noop"}

// Validate validates the TracingConfig fields.
// Returns an error if Provider is not otlp, stdout or noop, if SampleRate is
// outside [0, 1], or if otlp is selected without an endpoint.
func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	provider := strings.ToLower(c.Provider)
	if !contains(tracingProviders, provider) {
		return fmt.Errorf("invalid tracing provider: %s (must be one of: %s)", c.Provider, strings.Join(tracingProviders, ", "))
	}

	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("invalid sample rate: %f (must be between 0.0 and 1.0)", c.SampleRate)
	}

	if provider == "otlp" && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required for the otlp provider")
	}

	return nil
}

// MetricsConfig contains metrics export configuration. Metrics are exposed
// in Prometheus format on Address at Path while the process runs.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Address string `yaml:"address" mapstructure:"address"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// Validate validates the MetricsConfig fields.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Address == "" {
		return fmt.Errorf("metrics address is required when metrics are enabled")
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("invalid metrics path: %q (must start with '/')", c.Path)
	}
	return nil
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// Validate validates the LoggingConfig fields.
// Output must be stdout, stderr or an absolute file path.
func (c *LoggingConfig) Validate() error {
	if !contains(logLevels, strings.ToLower(c.Level)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Level, strings.Join(logLevels, ", "))
	}

	if !contains(logFormats, strings.ToLower(c.Format)) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.Format, strings.Join(logFormats, ", "))
	}

	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	output := strings.ToLower(c.Output)
	if output != "stdout" && output != "stderr" && !strings.HasPrefix(c.Output, "/") {
		return fmt.Errorf("invalid log output: %s (must be 'stdout', 'stderr', or an absolute file path)", c.Output)
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
