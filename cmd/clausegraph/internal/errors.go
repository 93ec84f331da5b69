package internal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates a general error
	ExitError = 1
	// ExitCriticalRisks indicates the audit reported critical risks and
	// --fail-on-critical was set
	ExitCriticalRisks = 2
	// ExitTimeout indicates the operation timed out
	ExitTimeout = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
	// ExitExtractionError indicates the extractor failed
	ExitExtractionError = 11
	// ExitDatabaseError indicates a graph database error
	ExitDatabaseError = 12
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// HandleError prints err to the command's error output and returns the
// exit code for it.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil {
			// Validation problems are the message users need; show them always.
			if types.CodeOf(cliErr.Cause) == types.CONFIG_VALIDATION_FAILED || isVerbose(cmd) {
				cmd.PrintErrln("Cause:", cliErr.Cause)
			}
		}
		return cliErr.Code
	}

	var auditErr *types.AuditError
	if errors.As(err, &auditErr) {
		cmd.PrintErrln("Error:", auditErr.Error())
		if isVerbose(cmd) && len(auditErr.Details) > 0 {
			cmd.PrintErrln("Details:")
			for k, v := range auditErr.Details {
				cmd.PrintErrf("  %s: %v\n", k, v)
			}
		}
		return ExitCodeFor(auditErr.Code)
	}

	cmd.PrintErrln("Error:", err)
	return ExitError
}

// ExitCodeFor maps an error code to a CLI exit code.
func ExitCodeFor(code types.ErrorCode) int {
	switch code {
	case types.CONFIG_LOAD_FAILED,
		types.CONFIG_PARSE_FAILED,
		types.CONFIG_VALIDATION_FAILED,
		types.CONFIG_NOT_FOUND,
		types.OBSERVABILITY_INIT_FAILED:
		return ExitConfigError
	case types.EXTRACTION_FAILED:
		return ExitExtractionError
	case types.DATABASE_CONNECTION_FAILED,
		types.COMPLIANCE_CHECK_FAILED:
		return ExitDatabaseError
	default:
		return ExitError
	}
}

func isVerbose(cmd *cobra.Command) bool {
	flag := cmd.Flag("verbose")
	return flag != nil && flag.Changed
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag
// This is used for panic recovery to determine if stack traces should be shown
func IsVerbose() bool {
	if os.Getenv("CLAUSEGRAPH_VERBOSE") != "" {
		return true
	}

	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}

	return false
}
