// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"crossforge-cli/internal/container"
	"crossforge-cli/internal/issue"
	"crossforge-cli/internal/platform"
	"crossforge-cli/internal/provision"
)

var (
	provisionFile     string
	provisionTimeout  time.Duration
	provisionForce    bool
	provisionStrategy string
	provisionAll      bool

	provisionCmd = &cobra.Command{
		Use:   "provision [target]",
		Short: "Provision a cross-compilation environment",
		Long: `Provision the container environment for a forgefile target.

The target's pinned base image is pulled, the package index refreshed,
and every listed package installed in one atomic request. The result is
committed under a tag derived from the target description, so running
the same target again reuses the image without touching the network.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if provisionAll == (len(args) == 1) {
				return fmt.Errorf("name exactly one target or pass --all")
			}
			return runProvision(cmd, args)
		},
	}
)

func init() {
	provisionCmd.Flags().StringVarP(&provisionFile, "file", "f", "", "forgefile path (default ./forgefile.cue)")
	provisionCmd.Flags().DurationVar(&provisionTimeout, "timeout", 0, "deadline for the run (default from config, e.g. 15m)")
	provisionCmd.Flags().BoolVar(&provisionForce, "force", false, "rebuild even when a cached image exists")
	provisionCmd.Flags().StringVar(&provisionStrategy, "strategy", "", "provisioning strategy: steps or build (default from config)")
	provisionCmd.Flags().BoolVar(&provisionAll, "all", false, "provision every target in the forgefile")
}

func runProvision(cmd *cobra.Command, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	ff, err := resolveForgefile(provisionFile, stderr)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	var descriptors []*platform.PlatformDescriptor
	if provisionAll {
		for i := range ff.Targets {
			descriptors = append(descriptors, &ff.Targets[i])
		}
	} else {
		desc, err := ff.Target(args[0])
		if err != nil {
			renderIssue(stderr, issue.TargetNotFoundId)
			return &ExitError{Code: ExitUsage, Err: err}
		}
		descriptors = append(descriptors, desc)
	}

	engine, err := resolveEngine(stderr)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	provisioner, err := buildProvisioner(engine)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	timeout, err := runTimeout()
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	for _, desc := range descriptors {
		if err := provisionOne(cmd.Context(), provisioner, desc, timeout, stdout, stderr); err != nil {
			return err
		}
	}
	return nil
}

func provisionOne(
	parent context.Context,
	provisioner provision.Provisioner,
	desc *platform.PlatformDescriptor,
	timeout time.Duration,
	stdout, stderr io.Writer,
) error {
	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	fmt.Fprintf(stdout, "%s %s (%s)\n",
		SubtitleStyle.Render("provisioning"),
		TagStyle.Render(desc.Name),
		desc.TargetTriple)

	res, err := provisioner.Provision(ctx, desc)
	if err != nil {
		fmt.Fprintln(stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, verbose))
		if verbose && res != nil && res.Logs != "" {
			fmt.Fprintln(stderr, res.Logs)
		}
		if id := issueIDFor(err); id != 0 {
			renderIssue(stderr, id)
		}
		return &ExitError{Code: exitCodeFor(err), Err: err}
	}

	if res.Cached {
		fmt.Fprintf(stdout, "%s %s (cached)\n", SuccessStyle.Render("✓"), TagStyle.Render(string(res.ImageTag)))
	} else {
		fmt.Fprintf(stdout, "%s %s\n", SuccessStyle.Render("✓"), TagStyle.Render(string(res.ImageTag)))
	}
	return nil
}

// buildProvisioner assembles the provisioner from config and flags. Flags
// win over config.
func buildProvisioner(engine container.Engine) (provision.Provisioner, error) {
	cfg := provision.DefaultConfig()
	cfg.Apply(
		provision.WithForceRebuild(provisionForce),
		provision.WithVerbose(verbose),
	)

	strategy := provisionStrategy
	if strategy == "" {
		strategy = string(appCfg.Provision.Strategy)
	}
	cfg.Strategy = provision.Strategy(strategy)

	return provision.New(engine, cfg)
}

// runTimeout resolves the run deadline. The flag wins over config; zero
// means no deadline.
func runTimeout() (time.Duration, error) {
	if provisionTimeout > 0 {
		return provisionTimeout, nil
	}
	return appCfg.Provision.Timeout.Duration()
}
