// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"crossforge-cli/internal/platform"
	"crossforge-cli/internal/provision"
)

// Exit codes. Scripts and CI pipelines dispatch on these, so each terminal
// provisioning failure gets a stable code of its own.
const (
	ExitOK                   = 0
	ExitFailure              = 1
	ExitUsage                = 2
	ExitBaseImageUnavailable = 3
	ExitIndexRefreshFailed   = 4
	ExitPackageInstallFailed = 5
	ExitTimeout              = 6
	ExitCanceled             = 7
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
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

// exitCodeFor maps an error to its stable exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, provision.ErrBaseImageUnavailable):
		return ExitBaseImageUnavailable
	case errors.Is(err, provision.ErrIndexRefreshFailed):
		return ExitIndexRefreshFailed
	case errors.Is(err, provision.ErrPackageInstallFailed):
		return ExitPackageInstallFailed
	case errors.Is(err, provision.ErrTimeout):
		return ExitTimeout
	case errors.Is(err, provision.ErrCanceled):
		return ExitCanceled
	case errors.Is(err, platform.ErrInvalidDescriptor):
		return ExitUsage
	default:
		return ExitFailure
	}
}
