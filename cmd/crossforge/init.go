// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crossforge-cli/internal/platform"
)

var (
	initTriple string
	initForce  bool

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a starter forgefile in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd)
		},
	}
)

func init() {
	initCmd.Flags().StringVar(&initTriple, "triple", "aarch64-linux-gnu", "target triple for the starter target")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing forgefile")
}

func runInit(cmd *cobra.Command) error {
	stdout := cmd.OutOrStdout()

	triple := platform.TargetTriple(initTriple)
	if err := triple.Validate(); err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	path := platform.DefaultForgefileName
	if _, err := os.Stat(path); err == nil && !initForce {
		return &ExitError{
			Code: ExitUsage,
			Err:  fmt.Errorf("%s already exists (use --force to overwrite)", path),
		}
	}

	if err := os.WriteFile(path, []byte(platform.ScaffoldCUE(triple)), 0o644); err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to write forgefile: %w", err)}
	}

	fmt.Fprintf(stdout, "%s created %s for %s\n", SuccessStyle.Render("✓"), TagStyle.Render(path), triple)
	fmt.Fprintln(stdout, SubtitleStyle.Render("next: adjust the package list, then run 'crossforge provision "+string(triple)+"'"))
	return nil
}
