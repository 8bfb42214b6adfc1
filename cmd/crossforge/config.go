// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"crossforge-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage crossforge configuration",
	Long: `Manage crossforge configuration.

Configuration is stored in:
  - Linux: ~/.config/crossforge/config.cue
  - macOS: ~/Library/Application Support/crossforge/config.cue
  - Windows: %APPDATA%\crossforge\config.cue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(appCfg))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfig(); err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s config at %s\n",
				SuccessStyle.Render("✓"),
				TagStyle.Render(filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)))
			return nil
		},
	})
}
