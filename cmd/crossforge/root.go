// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for crossforge.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"crossforge-cli/internal/config"
	"crossforge-cli/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// appCfg is the loaded configuration; defaults apply if loading failed.
	appCfg = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "crossforge",
		Short: "Deterministic cross-compilation environments in containers",
		Long: TitleStyle.Render("crossforge") + SubtitleStyle.Render(" - deterministic cross-compilation environments") + `

crossforge turns a declarative platform description - a pinned base
image, a target triple, and an ordered package list - into a ready-to-use
cross-compilation container image. Identical descriptions always map to
the same image, so repeated runs reuse previous work.

Targets are defined in a 'forgefile.cue' using CUE format.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'crossforge init' to scaffold a forgefile
  2. Adjust the base image, triple, and packages
  3. Run 'crossforge provision <target>'

` + SubtitleStyle.Render("Examples:") + `
  crossforge targets             List targets in the forgefile
  crossforge provision arm64     Provision the 'arm64' target
  crossforge plan arm64          Show what provisioning would do
  crossforge clean --all         Remove all provisioned images`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/crossforge/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(enginesCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	cfg, err := config.NewProvider().Load(context.Background(), config.LoadOptions{
		ConfigFilePath: cfgFile,
	})
	if err != nil {
		// Surface config loading errors but keep running on defaults
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}

	appCfg = cfg

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
