// Get command for the canvas CLI.
package main

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:     "get <id>",
	Short:   "Show one widget",
	Example: "  canvas get 3",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		c := newClient()
		defer c.Close()

		w, err := c.Get(cmd.Context(), id)
		if err != nil {
			return classify(err)
		}
		return printWidgets(cmd.OutOrStdout(), w)
	},
}
