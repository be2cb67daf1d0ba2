package util

import (
	"errors"
	"fmt"
	"os"
)

// Standard exit codes aligned with spectre tools family
const (
	// ExitOK indicates successful execution or a graceful shutdown
	ExitOK = 0

	// ExitPolicyFail indicates a one-shot status check found failed workloads
	ExitPolicyFail = 1

	// ExitInvalidInput indicates validation errors or invalid parameters
	ExitInvalidInput = 2

	// ExitRuntimeError indicates credential loading, I/O or API failures
	ExitRuntimeError = 3
)

// ExitError carries the process exit code for an error returned from a
// command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// WithExitCode attaches code to err. A nil err stays nil.
func WithExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps an error to the process exit code. Errors without an
// attached code are runtime errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitRuntimeError
}

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError prints an error message to stderr and exits with the given code
func ExitWithError(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	Exit(code)
}
