// Root command for the canvas CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/canvas/internal/paths"
	"github.com/mesh-intelligence/canvas/pkg/canvas"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagServer    string
	flagJSON      bool
)

// cfg is loaded by PersistentPreRunE so all subcommands can use it.
var cfg types.Config

var rootCmd = &cobra.Command{
	Use:           "canvas",
	Short:         "Canvas stores rectangular widgets ordered by z-index",
	Version:       canvas.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		configDir, err := resolveConfigDir()
		if err != nil {
			return sysError(err)
		}

		loaded, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		if flagServer != "" {
			loaded.Server = flagServer
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "server base URL for client commands (default: config server)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
}

// resolveConfigDir returns the configuration directory following the
// precedence --config-dir flag > CANVAS_CONFIG_DIR env > DefaultConfigDir().
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
