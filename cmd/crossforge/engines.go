// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"crossforge-cli/internal/container"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "Show container engine availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngines(cmd)
	},
}

func runEngines(cmd *cobra.Command) error {
	stdout := cmd.OutOrStdout()

	engines := []container.Engine{
		container.NewDockerEngine(),
		container.NewPodmanEngine(),
	}

	for _, engine := range engines {
		if !engine.Available() {
			fmt.Fprintf(stdout, "%s %s\n", ErrorStyle.Render("✗"), engine.Name())
			continue
		}
		version, err := engine.Version(cmd.Context())
		if err != nil {
			version = "unknown"
		}
		fmt.Fprintf(stdout, "%s %s %s\n", SuccessStyle.Render("✓"), engine.Name(), SubtitleStyle.Render(version))
	}

	if string(appCfg.ContainerEngine) != "" {
		fmt.Fprintln(stdout, SubtitleStyle.Render("configured engine: ")+string(appCfg.ContainerEngine))
	}
	return nil
}
