// SPDX-License-Identifier: MPL-2.0

// Package platform defines the platform descriptor: the declarative input
// that names a base OS image, a cross-compilation target triple, and the
// packages that make up the toolchain.
package platform

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnpinnedImageRef is the sentinel error wrapped by InvalidImageRefError.
	ErrUnpinnedImageRef = errors.New("unpinned image reference")

	// ErrUnknownTargetTriple is the sentinel error wrapped by UnknownTargetTripleError.
	ErrUnknownTargetTriple = errors.New("unknown target triple")

	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")

	// ErrEmptyPackageList is returned when a descriptor lists no packages.
	ErrEmptyPackageList = errors.New("package list must not be empty")

	// ErrInvalidDescriptor is the sentinel error wrapped by InvalidDescriptorError.
	ErrInvalidDescriptor = errors.New("invalid platform descriptor")
)

// packageNamePattern follows Debian source/binary package naming: at least
// two characters, starting with an alphanumeric.
var packageNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)

type (
	// ImageRef references a base OS image. A valid reference is pinned:
	// it carries an explicit tag ("ubuntu:jammy") or a digest
	// ("ubuntu@sha256:..."), never a bare repository name.
	ImageRef string

	// InvalidImageRefError is returned when an ImageRef is empty or unpinned.
	InvalidImageRefError struct {
		Value  ImageRef
		Reason string
	}

	// PackageName is the name of a package to install in the environment.
	PackageName string

	// InvalidPackageNameError is returned when a PackageName is empty or malformed.
	InvalidPackageNameError struct {
		Value PackageName
	}

	// PlatformDescriptor identifies a cross-compilation target environment.
	// It is constructed once per provisioning run and never mutated.
	PlatformDescriptor struct {
		// Name is the target's name in the forgefile (optional for
		// descriptors built programmatically).
		Name string

		// BaseImage is the pinned OS image the environment starts from.
		BaseImage ImageRef

		// TargetTriple names the architecture/OS/ABI the installed
		// toolchain produces code for.
		TargetTriple TargetTriple

		// Packages are installed in the given order, as one atomic
		// package-manager request.
		Packages []PackageName

		// NonInteractive suppresses package-manager prompts. It defaults
		// to true and exists as an explicit field (rather than ambient
		// process state) so the behavior is testable per run.
		NonInteractive bool
	}

	// InvalidDescriptorError aggregates the field validation failures of a
	// PlatformDescriptor. It wraps the individual errors for inspection.
	InvalidDescriptorError struct {
		Name      string
		FieldErrs []error
	}
)

// Error implements the error interface.
func (e *InvalidImageRefError) Error() string {
	return fmt.Sprintf("invalid base image reference %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrUnpinnedImageRef so callers can use errors.Is.
func (e *InvalidImageRefError) Unwrap() error { return ErrUnpinnedImageRef }

// Validate returns an error unless the reference is non-empty and pinned
// by tag or digest.
func (r ImageRef) Validate() error {
	s := string(r)
	if strings.TrimSpace(s) == "" {
		return &InvalidImageRefError{Value: r, Reason: "reference is empty"}
	}
	if strings.ContainsAny(s, " \t\n") {
		return &InvalidImageRefError{Value: r, Reason: "reference contains whitespace"}
	}

	// Digest-pinned references are always acceptable.
	if strings.Contains(s, "@") {
		return nil
	}

	// Otherwise require an explicit tag. The colon must come after the last
	// slash so a registry port ("localhost:5000/ubuntu") doesn't count.
	lastSegment := s[strings.LastIndex(s, "/")+1:]
	if !strings.Contains(lastSegment, ":") {
		return &InvalidImageRefError{Value: r, Reason: "missing tag or digest; pin the image (e.g. ubuntu:jammy)"}
	}
	if strings.HasSuffix(lastSegment, ":") {
		return &InvalidImageRefError{Value: r, Reason: "empty tag"}
	}
	return nil
}

// String returns the string representation of the ImageRef.
func (r ImageRef) String() string { return string(r) }

// Error implements the error interface.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q", e.Value)
}

// Unwrap returns ErrInvalidPackageName so callers can use errors.Is.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// Validate returns an error unless the name is a plausible package name.
func (p PackageName) Validate() error {
	if !packageNamePattern.MatchString(string(p)) {
		return &InvalidPackageNameError{Value: p}
	}
	return nil
}

// String returns the string representation of the PackageName.
func (p PackageName) String() string { return string(p) }

// Error implements the error interface.
func (e *InvalidDescriptorError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	msgs := make([]string, 0, len(e.FieldErrs))
	for _, err := range e.FieldErrs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("platform descriptor %s: %s", name, strings.Join(msgs, "; "))
}

// Unwrap returns the field errors plus ErrInvalidDescriptor so callers can
// match either the aggregate or any individual failure with errors.Is.
func (e *InvalidDescriptorError) Unwrap() []error {
	return append([]error{ErrInvalidDescriptor}, e.FieldErrs...)
}

// Validate checks all descriptor invariants: pinned base image, recognized
// target triple, and a non-empty list of well-formed, duplicate-free
// packages. All field failures are reported together.
func (d *PlatformDescriptor) Validate() error {
	var fieldErrs []error

	if err := d.BaseImage.Validate(); err != nil {
		fieldErrs = append(fieldErrs, err)
	}
	if err := d.TargetTriple.Validate(); err != nil {
		fieldErrs = append(fieldErrs, err)
	}

	if len(d.Packages) == 0 {
		fieldErrs = append(fieldErrs, ErrEmptyPackageList)
	}
	seen := make(map[PackageName]bool, len(d.Packages))
	for _, pkg := range d.Packages {
		if err := pkg.Validate(); err != nil {
			fieldErrs = append(fieldErrs, err)
			continue
		}
		if seen[pkg] {
			fieldErrs = append(fieldErrs, fmt.Errorf("duplicate package %q", pkg))
		}
		seen[pkg] = true
	}

	if len(fieldErrs) > 0 {
		return &InvalidDescriptorError{Name: d.Name, FieldErrs: fieldErrs}
	}
	return nil
}

// PackageStrings returns the package list as plain strings, preserving order.
func (d *PlatformDescriptor) PackageStrings() []string {
	out := make([]string, len(d.Packages))
	for i, p := range d.Packages {
		out[i] = string(p)
	}
	return out
}
