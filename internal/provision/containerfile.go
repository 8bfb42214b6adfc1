// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"crossforge-cli/internal/platform"
)

// RenderContainerfile renders the descriptor as a Containerfile with a
// single RUN layer: refresh the index, install every package in one atomic
// request, then drop the index lists so the image doesn't carry stale
// metadata. Output is deterministic for a given descriptor.
func RenderContainerfile(desc *platform.PlatformDescriptor) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "FROM %s\n", desc.BaseImage)
	if desc.NonInteractive {
		b.WriteString("ENV DEBIAN_FRONTEND=noninteractive\n")
	}

	install, err := quoteCommand(installCommand(desc))
	if err != nil {
		return "", fmt.Errorf("failed to render install command: %w", err)
	}
	refresh, err := quoteCommand(indexRefreshCommand())
	if err != nil {
		return "", fmt.Errorf("failed to render refresh command: %w", err)
	}

	fmt.Fprintf(&b, "RUN %s && \\\n    %s && \\\n    rm -rf /var/lib/apt/lists/*\n", refresh, install)
	fmt.Fprintf(&b, "LABEL %s=%q\n", tripleLabel, desc.TargetTriple)

	return b.String(), nil
}

// tripleLabel marks provisioned images with the toolchain target they carry.
const tripleLabel = "dev.crossforge.target-triple"

// quoteCommand joins an argv into a shell-safe command line.
func quoteCommand(argv []string) (string, error) {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %q: %w", arg, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}
