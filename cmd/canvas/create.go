// Create command for the canvas CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/canvas/pkg/types"
)

var createFlags geometryFlags

var createCmd = &cobra.Command{
	Use:   "create --x X --y Y --width W --height H [--z Z]",
	Short: "Create a widget",
	Long: `Create stores a new widget on the server. Without --z the widget is
placed in front of all others; with --z any widget already at that z-index
is shifted up, together with every widget above it.`,
	Example: `  canvas create --x 10 --y 20 --width 100 --height 50
  canvas create --x 0 --y 0 --width 5 --height 5 --z 1 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in types.WidgetInput
		createFlags.apply(cmd, &in)

		c := newClient()
		defer c.Close()

		w, err := c.Create(cmd.Context(), in)
		if err != nil {
			return classify(err)
		}
		if flagJSON {
			return printWidgets(cmd.OutOrStdout(), w)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created widget %d at z=%d\n", w.ID, w.Z)
		return nil
	},
}

func init() {
	createFlags.register(createCmd)
}
