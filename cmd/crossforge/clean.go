// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"crossforge-cli/internal/container"
	"crossforge-cli/internal/provision"
)

var (
	cleanAll bool

	cleanCmd = &cobra.Command{
		Use:   "clean [image-tag...]",
		Short: "Remove provisioned environment images",
		Long: `Remove provisioned environment images. Pass image tags explicitly, or
--all to remove every image crossforge has provisioned. Removed
environments are rebuilt from scratch on the next provision run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cleanAll == (len(args) > 0) {
				return fmt.Errorf("name image tags or pass --all")
			}
			return runClean(cmd, args)
		},
	}
)

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "remove every provisioned image")
}

func runClean(cmd *cobra.Command, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	ctx := cmd.Context()

	engine, err := resolveEngine(stderr)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	var tags []container.ImageTag
	if cleanAll {
		tags, err = provision.ListEnvironments(ctx, engine, provision.DefaultConfig())
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
	} else {
		for _, arg := range args {
			tags = append(tags, container.ImageTag(arg))
		}
	}

	if len(tags) == 0 {
		fmt.Fprintln(stdout, SubtitleStyle.Render("nothing to remove"))
		return nil
	}

	removed, err := provision.RemoveEnvironments(ctx, engine, tags)
	for _, tag := range removed {
		fmt.Fprintf(stdout, "%s removed %s\n", SuccessStyle.Render("✓"), TagStyle.Render(string(tag)))
	}
	if err != nil {
		fmt.Fprintln(stderr, ErrorStyle.Render("✗ ")+err.Error())
		return &ExitError{Code: ExitFailure, Err: err}
	}
	return nil
}
