package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for audit errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// OBSERVABILITY_INIT_FAILED means a tracing, metrics or logging backend
// could not be set up.
const OBSERVABILITY_INIT_FAILED ErrorCode = "OBSERVABILITY_INIT_FAILED"

// Audit error codes. Every failure raised by the graph layer or the
// pipeline carries exactly one of these.
const (
	// VALIDATION_FAILED is permanent: input was rejected before any I/O.
	VALIDATION_FAILED ErrorCode = "VALIDATION_FAILED"

	// DATABASE_CONNECTION_FAILED covers an unreachable database and
	// transient failures that outlived the retry policy.
	DATABASE_CONNECTION_FAILED ErrorCode = "DATABASE_CONNECTION_FAILED"

	// GRAPH_BUILD_FAILED means a specific write failed (missing endpoint,
	// constraint violation).
	GRAPH_BUILD_FAILED ErrorCode = "GRAPH_BUILD_FAILED"

	// COMPLIANCE_CHECK_FAILED means an analysis query failed.
	COMPLIANCE_CHECK_FAILED ErrorCode = "COMPLIANCE_CHECK_FAILED"

	// EXTRACTION_FAILED means the contract extractor failed.
	EXTRACTION_FAILED ErrorCode = "EXTRACTION_FAILED"
)

// Sentinels for errors.Is matching. AuditError.Is compares codes only, so
// any AuditError with the same code matches its sentinel.
var (
	ErrValidation         = &AuditError{Code: VALIDATION_FAILED}
	ErrDatabaseConnection = &AuditError{Code: DATABASE_CONNECTION_FAILED}
	ErrGraphBuild         = &AuditError{Code: GRAPH_BUILD_FAILED}
	ErrComplianceCheck    = &AuditError{Code: COMPLIANCE_CHECK_FAILED}
	ErrExtraction         = &AuditError{Code: EXTRACTION_FAILED}
)

// AuditError is the root error kind. It carries an error code, a message,
// an optional cause, a retryability hint and free-form details for
// debugging.
type AuditError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]any
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *AuditError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *AuditError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AuditError with the same Code.
func (e *AuditError) Is(target error) bool {
	var auditErr *AuditError
	if errors.As(target, &auditErr) {
		return e.Code == auditErr.Code
	}
	return false
}

// WithDetail attaches a debugging detail and returns the error for chaining.
func (e *AuditError) WithDetail(key string, value any) *AuditError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewError creates a new non-retryable AuditError with the given code and message.
func NewError(code ErrorCode, message string) *AuditError {
	return &AuditError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable AuditError with the given code and message.
// Use this for transient errors that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *AuditError {
	return &AuditError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable AuditError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *AuditError {
	return &AuditError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapRetryableError creates a new retryable AuditError that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *AuditError {
	return &AuditError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// NewValidationError reports a rejected input field.
func NewValidationError(field, value, message string) *AuditError {
	err := NewError(VALIDATION_FAILED, message).WithDetail("field", field)
	if value != "" {
		err.WithDetail("value", value)
	}
	return err
}

// NewDatabaseConnectionError reports an unreachable database. The error is
// retryable so the retry policy will try again before surfacing it.
func NewDatabaseConnectionError(uri string, cause error) *AuditError {
	err := WrapRetryableError(DATABASE_CONNECTION_FAILED, "failed to reach graph database", cause)
	if uri != "" {
		err.WithDetail("uri", uri)
	}
	return err
}

// NewGraphBuildError reports a failed graph write for the given element.
func NewGraphBuildError(nodeType, nodeID, message string, cause error) *AuditError {
	err := WrapError(GRAPH_BUILD_FAILED, message, cause)
	if nodeType != "" {
		err.WithDetail("node_type", nodeType)
	}
	if nodeID != "" {
		err.WithDetail("node_id", nodeID)
	}
	return err
}

// NewComplianceCheckError reports a failed analysis query.
func NewComplianceCheckError(query string, cause error) *AuditError {
	return WrapError(COMPLIANCE_CHECK_FAILED, fmt.Sprintf("%s query failed", query), cause).
		WithDetail("query", query)
}

// NewExtractionError reports an extractor failure. The text sample is
// truncated to 100 characters.
func NewExtractionError(message, textSample string, cause error) *AuditError {
	err := WrapError(EXTRACTION_FAILED, message, cause)
	if textSample != "" {
		if runes := []rune(textSample); len(runes) > 100 {
			textSample = string(runes[:100]) + "..."
		}
		err.WithDetail("text_sample", textSample)
	}
	return err
}

// IsRetryable reports whether any AuditError in err's chain is marked retryable.
func IsRetryable(err error) bool {
	var auditErr *AuditError
	if errors.As(err, &auditErr) {
		return auditErr.Retryable
	}
	return false
}

// CodeOf returns the code of the first AuditError in err's chain, or the
// empty code if there is none.
func CodeOf(err error) ErrorCode {
	var auditErr *AuditError
	if errors.As(err, &auditErr) {
		return auditErr.Code
	}
	return ""
}
