// Package exit describes how the command line terminates.
package exit

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes.
const (
	CodeSuccess = 0
	// CodeFailure reports documents that failed validation.
	CodeFailure = 1
	// CodeError reports invalid input, specifications or configuration.
	CodeError = 2
)

// Result holds the output destination and exit code for program termination.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
}

// Print writes the result message to the configured output destination.
func (r *Result) Print() {
	if r.Message == "" {
		return
	}
	fmt.Fprint(r.Output, r.Message)
}

// Success creates a result that exits with 0.
func Success(message string) *Result {
	return &Result{Output: os.Stdout, ExitCode: CodeSuccess, Message: message}
}

// Failure creates a result for documents that did not validate.
func Failure(message string) *Result {
	return &Result{Output: os.Stderr, ExitCode: CodeFailure, Message: message}
}

// Error creates a result for a fatal error.
func Error(message string) *Result {
	return &Result{Output: os.Stderr, ExitCode: CodeError, Message: message}
}

// Errorf creates a fatal error result with formatted message.
func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// FailureError marks an error as a validation failure rather than a fault.
type FailureError struct {
	Failed int
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%d document(s) failed validation", e.Failed)
}

// FromError maps err to a result: nil succeeds, a *FailureError fails and
// anything else is a fatal error.
func FromError(err error) *Result {
	if err == nil {
		return Success("")
	}

	var failure *FailureError
	if errors.As(err, &failure) {
		return Failure(fmt.Sprintf("Error: %v\n", err))
	}
	return Errorf("Error: %v\n", err)
}
