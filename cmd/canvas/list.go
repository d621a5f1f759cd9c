// List command for the canvas CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/canvas/pkg/types"
)

var (
	listLimit  int
	listOffset int
)

var listCmd = &cobra.Command{
	Use:   "list [--limit N] [--offset N]",
	Short: "List widgets in ascending z order",
	Long: `List prints one page of widgets ordered by z-index. The limit defaults
to 10 and is capped at 500; a negative limit or offset falls back to the
default.`,
	Example: `  canvas list
  canvas list --limit 50 --offset 100 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page := types.NewPage(intFlag(cmd, "limit", listLimit), intFlag(cmd, "offset", listOffset))

		c := newClient()
		defer c.Close()

		widgets, err := c.List(cmd.Context(), page)
		if err != nil {
			return classify(err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), widgets)
		}
		return printWidgets(cmd.OutOrStdout(), widgets...)
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", types.DefaultPageLimit, "maximum widgets to return")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "widgets to skip")
}
