// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"fmt"
	"sort"
	"strings"
)

// TargetTriple identifies the CPU architecture, vendor, and OS/ABI a
// cross-compiler produces code for (e.g. "x86_64-linux-gnu").
type TargetTriple string

// UnknownTargetTripleError is returned when a TargetTriple is not in the
// recognized cross-toolchain table.
type UnknownTargetTripleError struct {
	Value TargetTriple
}

// tripleInfo describes how a triple surfaces in Debian/Ubuntu packaging.
type tripleInfo struct {
	// toolchainSpelling is the triple as it appears in toolchain package
	// names, where underscores become hyphens (x86_64 -> x86-64).
	toolchainSpelling string

	// debianArch is the Debian architecture name used by -cross library
	// packages (libc6-dev-<arch>-cross).
	debianArch string
}

// knownTriples is the table of target triples Debian/Ubuntu ship cross
// toolchains for.
var knownTriples = map[TargetTriple]tripleInfo{
	"x86_64-linux-gnu":        {"x86-64-linux-gnu", "amd64"},
	"i686-linux-gnu":          {"i686-linux-gnu", "i386"},
	"aarch64-linux-gnu":       {"aarch64-linux-gnu", "arm64"},
	"arm-linux-gnueabi":       {"arm-linux-gnueabi", "armel"},
	"arm-linux-gnueabihf":     {"arm-linux-gnueabihf", "armhf"},
	"riscv64-linux-gnu":       {"riscv64-linux-gnu", "riscv64"},
	"powerpc64le-linux-gnu":   {"powerpc64le-linux-gnu", "ppc64el"},
	"s390x-linux-gnu":         {"s390x-linux-gnu", "s390x"},
	"mips64el-linux-gnuabi64": {"mips64el-linux-gnuabi64", "mips64el"},
}

// Error implements the error interface.
func (e *UnknownTargetTripleError) Error() string {
	return fmt.Sprintf("unknown target triple %q (known: %s)", e.Value, strings.Join(KnownTriples(), ", "))
}

// Unwrap returns ErrUnknownTargetTriple so callers can use errors.Is.
func (e *UnknownTargetTripleError) Unwrap() error { return ErrUnknownTargetTriple }

// Validate returns an error unless the triple is a recognized
// cross-toolchain identifier.
func (t TargetTriple) Validate() error {
	if _, ok := knownTriples[t]; !ok {
		return &UnknownTargetTripleError{Value: t}
	}
	return nil
}

// String returns the string representation of the TargetTriple.
func (t TargetTriple) String() string { return string(t) }

// ToolchainSpelling returns the triple as it appears in toolchain package
// names: Debian replaces underscores with hyphens, so the g++ cross
// compiler for x86_64-linux-gnu is packaged as g++-x86-64-linux-gnu.
func (t TargetTriple) ToolchainSpelling() string {
	if info, ok := knownTriples[t]; ok {
		return info.toolchainSpelling
	}
	return strings.ReplaceAll(string(t), "_", "-")
}

// DebianArch returns the Debian architecture name for this triple, used by
// cross library packages such as libc6-dev-amd64-cross. Empty for unknown
// triples.
func (t TargetTriple) DebianArch() string {
	return knownTriples[t].debianArch
}

// LibcDevPackage returns the package providing C library development
// headers for this target architecture.
func (t TargetTriple) LibcDevPackage() PackageName {
	return PackageName("libc6-dev-" + t.DebianArch() + "-cross")
}

// CompilerPackage returns the package name of the C++ cross compiler for
// this triple.
func (t TargetTriple) CompilerPackage() PackageName {
	return PackageName("g++-" + t.ToolchainSpelling())
}

// CompilerBinary returns the name of the cross g++ binary the provisioned
// environment exposes (triples keep their canonical spelling in binary names).
func (t TargetTriple) CompilerBinary() string {
	return string(t) + "-g++"
}

// KnownTriples returns the recognized triples in sorted order.
func KnownTriples() []string {
	names := make([]string, 0, len(knownTriples))
	for t := range knownTriples {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}
