// Version command for the canvas CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/canvas/pkg/canvas"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the canvas version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "canvas", canvas.Version)
	},
}
