// SPDX-License-Identifier: MPL-2.0

package platform

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"crossforge-cli/internal/cueutil"
)

// DefaultForgefileName is the descriptor file crossforge looks for in the
// working directory when no --file flag is given.
const DefaultForgefileName = "forgefile.cue"

//go:embed forgefile_schema.cue
var forgefileSchema string

type (
	// Forgefile is a parsed descriptor file holding one or more named
	// platform targets.
	Forgefile struct {
		// FilePath is where the forgefile was loaded from.
		FilePath string

		// Targets are the descriptors in file order.
		Targets []PlatformDescriptor
	}

	// forgefileDoc mirrors the CUE schema for decoding.
	forgefileDoc struct {
		Targets []targetDoc `json:"targets"`
	}

	targetDoc struct {
		Name           string   `json:"name"`
		BaseImage      string   `json:"base_image"`
		TargetTriple   string   `json:"target_triple"`
		Packages       []string `json:"packages"`
		NonInteractive bool     `json:"non_interactive"`
	}
)

// LoadForgefile reads and validates a forgefile. Every target must pass
// descriptor validation and target names must be unique.
func LoadForgefile(path string) (*Forgefile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forgefile: %w", err)
	}

	doc, err := cueutil.Decode[forgefileDoc](forgefileSchema, data, "#Forgefile", path)
	if err != nil {
		return nil, err
	}

	ff := &Forgefile{FilePath: path}
	seen := make(map[string]bool, len(doc.Targets))
	for _, t := range doc.Targets {
		if seen[t.Name] {
			return nil, fmt.Errorf("%s: duplicate target name %q", path, t.Name)
		}
		seen[t.Name] = true

		desc := PlatformDescriptor{
			Name:           t.Name,
			BaseImage:      ImageRef(t.BaseImage),
			TargetTriple:   TargetTriple(t.TargetTriple),
			NonInteractive: t.NonInteractive,
		}
		for _, p := range t.Packages {
			desc.Packages = append(desc.Packages, PackageName(p))
		}

		if err := desc.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		ff.Targets = append(ff.Targets, desc)
	}

	return ff, nil
}

// Target returns the descriptor with the given name.
func (f *Forgefile) Target(name string) (*PlatformDescriptor, error) {
	for i := range f.Targets {
		if f.Targets[i].Name == name {
			return &f.Targets[i], nil
		}
	}
	return nil, fmt.Errorf("target %q not found in %s (available: %s)",
		name, f.FilePath, strings.Join(f.TargetNames(), ", "))
}

// TargetNames returns the target names in file order.
func (f *Forgefile) TargetNames() []string {
	names := make([]string, len(f.Targets))
	for i := range f.Targets {
		names[i] = f.Targets[i].Name
	}
	return names
}

// ScaffoldCUE renders a starter forgefile for the given triple, preloading
// the packages a C/C++ cross build against OpenSSL typically needs.
func ScaffoldCUE(triple TargetTriple) string {
	var sb strings.Builder

	sb.WriteString("// crossforge platform descriptors.\n")
	sb.WriteString("// Each target provisions one cross-compilation environment.\n\n")
	sb.WriteString("targets: [\n")
	sb.WriteString("\t{\n")
	fmt.Fprintf(&sb, "\t\tname:          %q\n", string(triple))
	sb.WriteString("\t\tbase_image:    \"ubuntu:jammy\"\n")
	fmt.Fprintf(&sb, "\t\ttarget_triple: %q\n", string(triple))
	sb.WriteString("\t\tpackages: [\n")
	fmt.Fprintf(&sb, "\t\t\t%q,\n", string(triple.CompilerPackage()))
	fmt.Fprintf(&sb, "\t\t\t%q,\n", string(triple.LibcDevPackage()))
	sb.WriteString("\t\t\t\"libssl-dev\",\n")
	sb.WriteString("\t\t\t\"pkg-config\",\n")
	sb.WriteString("\t\t]\n")
	sb.WriteString("\t},\n")
	sb.WriteString("]\n")

	return sb.String()
}
