// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"networkbuster-cli/internal/install"
	"networkbuster-cli/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE
// handlers, so the failing external tool's status propagates unchanged.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeError lifts an external tool's exit status out of a pipeline
// failure, so the process exits with the failing step's code instead of
// a generic 1. Errors without a step exit status pass through unchanged.
func exitCodeError(err error) error {
	var serr *install.StepError
	if errors.As(err, &serr) && !serr.ExitCode.IsSuccess() {
		return &ExitError{Code: serr.ExitCode, Err: err}
	}
	return err
}
