// Init command for the canvas CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/canvas/internal/paths"
)

// The config directory and default config.yaml are created by
// PersistentPreRunE; init reports where they live.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration directory and default config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return sysError(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Canvas initialized successfully")
		fmt.Fprintln(out, "  config: ", paths.ConfigFile(configDir))
		fmt.Fprintln(out, "  backend:", cfg.Backend)
		return nil
	},
}
