// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"crossforge-cli/internal/platform"
)

var (
	targetsFile      string
	targetsSupported bool

	targetsCmd = &cobra.Command{
		Use:   "targets",
		Short: "List targets defined in the forgefile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(cmd)
		},
	}
)

func init() {
	targetsCmd.Flags().StringVarP(&targetsFile, "file", "f", "", "forgefile path (default ./forgefile.cue)")
	targetsCmd.Flags().BoolVar(&targetsSupported, "supported", false, "list the supported target triples instead")
}

func runTargets(cmd *cobra.Command) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if targetsSupported {
		fmt.Fprintln(stdout, TitleStyle.Render("Supported target triples:"))
		for _, triple := range platform.KnownTriples() {
			fmt.Fprintf(stdout, "  %s\n", triple)
		}
		return nil
	}

	ff, err := resolveForgefile(targetsFile, stderr)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	fmt.Fprintln(stdout, TitleStyle.Render("Targets in ")+ff.FilePath+":")
	for _, desc := range ff.Targets {
		fmt.Fprintf(stdout, "  %s  %s  %s  (%d packages)\n",
			TagStyle.Render(desc.Name),
			desc.TargetTriple,
			SubtitleStyle.Render(string(desc.BaseImage)),
			len(desc.Packages))
	}
	return nil
}
