// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"crossforge-cli/internal/issue"
	"crossforge-cli/internal/provision"
)

var (
	planFile string

	planCmd = &cobra.Command{
		Use:   "plan <target>",
		Short: "Show what provisioning a target would do",
		Long: `Show the provisioning plan for a target without touching the engine:
the cache tag the image would get, the packages in install order, and
the rendered Containerfile the build strategy would use.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0])
		},
	}
)

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "forgefile path (default ./forgefile.cue)")
}

func runPlan(cmd *cobra.Command, target string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	ff, err := resolveForgefile(planFile, stderr)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	desc, err := ff.Target(target)
	if err != nil {
		renderIssue(stderr, issue.TargetNotFoundId)
		return &ExitError{Code: ExitUsage, Err: err}
	}

	cfg := provision.DefaultConfig()
	tag := provision.CacheTag(cfg, desc)

	fmt.Fprintln(stdout, TitleStyle.Render("Target: ")+desc.Name)
	fmt.Fprintln(stdout, SubtitleStyle.Render("base image:    ")+string(desc.BaseImage))
	fmt.Fprintln(stdout, SubtitleStyle.Render("target triple: ")+string(desc.TargetTriple))
	fmt.Fprintln(stdout, SubtitleStyle.Render("cross g++:     ")+desc.TargetTriple.CompilerBinary())
	fmt.Fprintln(stdout, SubtitleStyle.Render("image tag:     ")+TagStyle.Render(string(tag)))

	fmt.Fprintln(stdout, SubtitleStyle.Render("packages (install order):"))
	for _, pkg := range desc.Packages {
		fmt.Fprintf(stdout, "  - %s\n", pkg)
	}

	containerfile, err := provision.RenderContainerfile(desc)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	fmt.Fprintln(stdout, SubtitleStyle.Render("containerfile (build strategy):"))
	fmt.Fprintln(stdout, containerfile)

	return nil
}
