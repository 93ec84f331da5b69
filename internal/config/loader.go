package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// envBindings maps config keys to the environment variables that override
// them. Overrides win over the file and over defaults.
var envBindings = map[string]string{
	"neo4j.uri":          "NEO4J_URI",
	"neo4j.user":         "NEO4J_USER",
	"neo4j.password":     "NEO4J_PASSWORD",
	"neo4j.database":     "NEO4J_DATABASE",
	"extractor.api_key":  "OPENAI_API_KEY",
	"extractor.model":    "OPENAI_MODEL",
	"extractor.base_url": "OPENAI_BASE_URL",
	"logging.level":      "LOG_LEVEL",
}

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// LoaderOption configures a loader.
type LoaderOption func(*viperConfigLoader)

// WithEnvFiles loads the given dotenv files before reading the config.
// Missing files are skipped. Variables already set in the environment are
// not overwritten.
func WithEnvFiles(paths ...string) LoaderOption {
	return func(l *viperConfigLoader) {
		l.envFiles = paths
	}
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
	envFiles  []string
}

// NewConfigLoader creates a new ConfigLoader instance. By default it loads
// ".env" from the working directory when present.
func NewConfigLoader(validator ConfigValidator, opts ...LoaderOption) ConfigLoader {
	l := &viperConfigLoader{
		validator: validator,
		envFiles:  []string{".env"},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration from the specified file path on top of the
// defaults. Returns CONFIG_NOT_FOUND if the file doesn't exist.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, types.WrapError(types.CONFIG_NOT_FOUND, "config file not found", err).WithDetail("path", path)
	}
	return l.load(path)
}

// LoadWithDefaults loads configuration from the specified file path.
// If path is empty or the file doesn't exist, defaults plus environment
// overrides are used.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if path == "" {
		return l.load("")
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return l.load("")
	}
	return l.load(path)
}

func (l *viperConfigLoader) load(path string) (*Config, error) {
	if err := l.loadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to read config file", err).WithDetail("path", path)
		}
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to bind environment", err)
		}
	}

	// Interpolate ${VAR} references across the merged settings, then decode
	// on top of the defaults so absent keys keep their default values.
	settings, _ := interpolateEnvVars(v.AllSettings()).(map[string]any)
	merged := viper.New()
	if err := merged.MergeConfigMap(settings); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to merge settings", err)
	}

	cfg := DefaultConfig()
	if err := merged.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}
	cfg.Extractor.Type = strings.ToLower(cfg.Extractor.Type)
	cfg.Audit.MinSeverity = strings.ToLower(cfg.Audit.MinSeverity)

	if err := l.validator.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *viperConfigLoader) loadEnvFiles() error {
	for _, path := range l.envFiles {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to load env file", err).WithDetail("path", path)
		}
	}
	return nil
}

// interpolateEnvVars recursively interpolates environment variables in the config map.
// Supports ${VAR_NAME} syntax.
func interpolateEnvVars(data any) any {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = interpolateEnvVars(value)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, value := range v {
			result[i] = interpolateEnvVars(value)
		}
		return result
	case string:
		return interpolateString(v)
	default:
		return v
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR_NAME} with environment variable values.
// Unset variables are left as written.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if envValue := os.Getenv(varName); envValue != "" {
			return envValue
		}
		return match
	})
}
