// SPDX-License-Identifier: MPL-2.0

// Package provision turns a platform descriptor into a ready-to-use
// cross-compilation container image. Runs are deterministic: the same
// descriptor always maps to the same image tag, and a previously
// provisioned tag is reused instead of rebuilt.
package provision

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"crossforge-cli/internal/container"
	"crossforge-cli/internal/platform"
)

type (
	// Provisioner materializes the environment described by a platform
	// descriptor as a local container image.
	Provisioner interface {
		// Provision creates (or reuses) the environment image for the
		// descriptor. Step failures are reported as *EnvironmentError;
		// an invalid descriptor is rejected up front with its own
		// validation error.
		Provision(ctx context.Context, desc *platform.PlatformDescriptor) (*Result, error)
	}

	// Result describes a finished provisioning run.
	Result struct {
		// Success reports whether the environment is usable.
		Success bool

		// ImageTag is the provisioned environment image. Empty on failure.
		ImageTag container.ImageTag

		// Cached reports that an existing image satisfied the descriptor
		// and no engine work was performed.
		Cached bool

		// FailedPackage names the first failing package when the install
		// step failed and the package manager identified one.
		FailedPackage platform.PackageName

		// Logs is the combined output of the provisioning steps, in
		// execution order.
		Logs string
	}
)

// New returns the provisioner selected by the config's strategy.
func New(engine container.Engine, cfg *Config) (Provisioner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Strategy.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Strategy {
	case StrategyBuild:
		return NewBuildProvisioner(engine, cfg), nil
	default:
		return NewStepProvisioner(engine, cfg), nil
	}
}

// CacheTag derives the deterministic image tag for a descriptor:
// <prefix>/<triple>:<sha256 of the descriptor's identity, 12 hex chars>.
// Two descriptors produce the same tag iff they request the same base
// image, triple, interactivity mode, and package sequence (order matters:
// a reordered package list is a different environment).
func CacheTag(cfg *Config, desc *platform.PlatformDescriptor) container.ImageTag {
	h := sha256.New()
	fmt.Fprintf(h, "base=%s\n", desc.BaseImage)
	fmt.Fprintf(h, "triple=%s\n", desc.TargetTriple)
	fmt.Fprintf(h, "noninteractive=%t\n", desc.NonInteractive)
	for _, pkg := range desc.Packages {
		fmt.Fprintf(h, "pkg=%s\n", pkg)
	}

	digest := fmt.Sprintf("%x", h.Sum(nil))[:12]
	tag := fmt.Sprintf("%s/%s:%s", cfg.TagPrefix, strings.ToLower(string(desc.TargetTriple)), digest)
	if cfg.TagSuffix != "" {
		tag += "-" + cfg.TagSuffix
	}
	return container.ImageTag(tag)
}
