// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"regexp"

	"crossforge-cli/internal/platform"
)

// indexRefreshCommand is the package index refresh step.
func indexRefreshCommand() []string {
	return []string{"apt-get", "update"}
}

// installCommand builds the single atomic install invocation. All packages
// go into one request, in descriptor order; --no-install-recommends keeps
// the environment minimal and reproducible.
func installCommand(desc *platform.PlatformDescriptor) []string {
	cmd := []string{"apt-get", "install", "--yes", "--no-install-recommends"}
	return append(cmd, desc.PackageStrings()...)
}

// aptEnv returns the environment for apt steps. The non-interactive
// frontend is driven by the descriptor field rather than ambient process
// state so each run's behavior is explicit.
func aptEnv(desc *platform.PlatformDescriptor) map[string]string {
	if !desc.NonInteractive {
		return nil
	}
	return map[string]string{"DEBIAN_FRONTEND": "noninteractive"}
}

var (
	unknownPackagePattern = regexp.MustCompile(`E: Unable to locate package (\S+)`)
	noCandidatePattern    = regexp.MustCompile(`E: Package '([^']+)' has no installation candidate`)
)

// firstFailedPackage extracts the first package apt-get reported as
// failing from the captured install output. Returns "" when the output
// does not name one (e.g. a dependency conflict spanning packages).
func firstFailedPackage(output string) platform.PackageName {
	if m := unknownPackagePattern.FindStringSubmatch(output); m != nil {
		return platform.PackageName(m[1])
	}
	if m := noCandidatePattern.FindStringSubmatch(output); m != nil {
		return platform.PackageName(m[1])
	}
	return ""
}
