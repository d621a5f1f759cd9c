// Update command for the canvas CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateFlags geometryFlags

var updateCmd = &cobra.Command{
	Use:   "update <id> [--x X] [--y Y] [--z Z] [--width W] [--height H]",
	Short: "Change a widget's geometry",
	Long: `Update fetches the widget, overlays the given flags and stores the
result. Fields without a flag keep their current value. Moving to a taken
z-index shifts the occupant and every widget above it up by one.`,
	Example: `  canvas update 3 --z 1
  canvas update 3 --width 200 --height 80`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		c := newClient()
		defer c.Close()

		current, err := c.Get(cmd.Context(), id)
		if err != nil {
			return classify(err)
		}
		in := current.Input()
		updateFlags.apply(cmd, &in)

		w, err := c.Update(cmd.Context(), in)
		if err != nil {
			return classify(err)
		}
		if flagJSON {
			return printWidgets(cmd.OutOrStdout(), w)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated widget %d at z=%d\n", w.ID, w.Z)
		return nil
	},
}

func init() {
	updateFlags.register(updateCmd)
}
