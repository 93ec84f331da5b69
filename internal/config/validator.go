package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/graph"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

// validatorImpl implements ConfigValidator using go-playground/validator.
type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a new ConfigValidator instance with the neo4juri
// tag registered.
func NewValidator() ConfigValidator {
	v := validator.New()
	_ = v.RegisterValidation("neo4juri", func(fl validator.FieldLevel) bool {
		return graph.IsSupportedURI(fl.Field().String())
	})
	return &validatorImpl{validate: v}
}

// Validate validates the configuration and returns every problem found in
// a single CONFIG_VALIDATION_FAILED error.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	var problems []string
	if err := v.validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}
		for _, e := range validationErrs {
			problems = append(problems, formatValidationError(e))
		}
	}

	if cfg.Extractor.Type == "llm" && strings.TrimSpace(cfg.Extractor.APIKey) == "" {
		problems = append(problems, "extractor.api_key is required when extractor.type is 'llm' (set OPENAI_API_KEY)")
	}
	if cfg.Retry.MaxDelay < cfg.Retry.BaseDelay {
		problems = append(problems, fmt.Sprintf("retry.max_delay (%s) must not be less than retry.base_delay (%s)",
			cfg.Retry.MaxDelay, cfg.Retry.BaseDelay))
	}
	if err := cfg.Logging.Validate(); err != nil {
		problems = append(problems, "logging: "+err.Error())
	}
	if err := cfg.Tracing.Validate(); err != nil {
		problems = append(problems, "tracing: "+err.Error())
	}
	if err := cfg.Metrics.Validate(); err != nil {
		problems = append(problems, "metrics: "+err.Error())
	}

	if len(problems) == 0 {
		return nil
	}
	return types.NewError(types.CONFIG_VALIDATION_FAILED,
		"configuration validation failed:\n  - "+strings.Join(problems, "\n  - ")).
		WithDetail("problems", problems)
}

// formatValidationError formats a single validation error with field path and details.
func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldPath)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", fieldPath, e.Param(), e.Value())
	case "url":
		return fmt.Sprintf("%s must be a valid URL (got: %v)", fieldPath, e.Value())
	case "neo4juri":
		return fmt.Sprintf("%s must be a bolt://, bolt+s://, bolt+ssc://, neo4j://, neo4j+s:// or neo4j+ssc:// URI (got: %v)", fieldPath, e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", fieldPath, e.Tag(), e.Value())
	}
}

// formatFieldPath converts validator namespace to a more readable field path.
// Example: "Config.Neo4j.MaxPoolSize" -> "neo4j.max_pool_size"
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 1 {
		return namespace
	}

	result := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		result = append(result, camelToSnake(parts[i]))
	}

	return strings.Join(result, ".")
}

// camelToSnake converts CamelCase to snake_case. Runs of capitals such as
// "URI" or "APIKey" stay together.
func camelToSnake(s string) string {
	runes := []rune(s)
	var result strings.Builder
	for i, r := range runes {
		if i > 0 && isUpper(r) {
			prevLower := !isUpper(runes[i-1])
			nextLower := i+1 < len(runes) && !isUpper(runes[i+1])
			if prevLower || nextLower {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
