// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"

	"crossforge-cli/internal/container"
	"crossforge-cli/internal/platform"
)

// Kind classifies terminal provisioning failures. Every kind is fatal for
// the run; orchestrators decide whether to retry the whole run.
type Kind string

const (
	// KindBaseImageUnavailable means the base image could not be resolved
	// or pulled. Never retried internally.
	KindBaseImageUnavailable Kind = "base_image_unavailable"

	// KindIndexRefreshFailed means the package index could not be
	// refreshed, even after the single automatic retry.
	KindIndexRefreshFailed Kind = "index_refresh_failed"

	// KindPackageInstallFailed means the atomic install failed. Never
	// retried: a failed install usually indicates an unmet dependency or
	// a missing package, not transience.
	KindPackageInstallFailed Kind = "package_install_failed"

	// KindTimeout means a network-bound step exceeded the caller-supplied
	// deadline.
	KindTimeout Kind = "timeout"

	// KindCanceled means the caller canceled the run. The partially
	// provisioned environment is discarded, never reused.
	KindCanceled Kind = "canceled"
)

var (
	// ErrBaseImageUnavailable is the sentinel error for KindBaseImageUnavailable.
	ErrBaseImageUnavailable = errors.New("base image unavailable")

	// ErrIndexRefreshFailed is the sentinel error for KindIndexRefreshFailed.
	ErrIndexRefreshFailed = errors.New("package index refresh failed")

	// ErrPackageInstallFailed is the sentinel error for KindPackageInstallFailed.
	ErrPackageInstallFailed = errors.New("package install failed")

	// ErrTimeout is the sentinel error for KindTimeout.
	ErrTimeout = errors.New("provisioning deadline exceeded")

	// ErrCanceled is the sentinel error for KindCanceled.
	ErrCanceled = errors.New("provisioning canceled")
)

// EnvironmentError is the structured failure of a provisioning run.
type EnvironmentError struct {
	// Kind classifies the failure.
	Kind Kind

	// Image is the base image involved, when relevant.
	Image container.ImageTag

	// Package identifies the first failing package for
	// KindPackageInstallFailed, when the underlying tool reports one.
	Package platform.PackageName

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *EnvironmentError) Error() string {
	var msg string
	switch e.Kind {
	case KindBaseImageUnavailable:
		msg = fmt.Sprintf("base image %q unavailable", e.Image)
	case KindIndexRefreshFailed:
		msg = "package index refresh failed after retry"
	case KindPackageInstallFailed:
		if e.Package != "" {
			msg = fmt.Sprintf("package install failed (first failing package: %s)", e.Package)
		} else {
			msg = "package install failed"
		}
	case KindTimeout:
		msg = "provisioning deadline exceeded"
	case KindCanceled:
		msg = "provisioning canceled"
	default:
		msg = fmt.Sprintf("provisioning failed (%s)", e.Kind)
	}

	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the kind sentinel and the underlying cause so callers can
// match either with errors.Is.
func (e *EnvironmentError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k Kind) sentinel() error {
	switch k {
	case KindBaseImageUnavailable:
		return ErrBaseImageUnavailable
	case KindIndexRefreshFailed:
		return ErrIndexRefreshFailed
	case KindPackageInstallFailed:
		return ErrPackageInstallFailed
	case KindTimeout:
		return ErrTimeout
	case KindCanceled:
		return ErrCanceled
	default:
		return errors.New(string(k))
	}
}

// classifyKind maps context expiry onto the Timeout/Canceled kinds so a
// step that died because the caller's deadline passed is not misreported
// as a step-level failure.
func classifyKind(ctx context.Context, err error, fallback Kind) Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return KindCanceled
	default:
		return fallback
	}
}
