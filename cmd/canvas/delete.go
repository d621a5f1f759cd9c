// Delete command for the canvas CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a widget",
	Example: "  canvas delete 3",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		c := newClient()
		defer c.Close()

		if err := c.Delete(cmd.Context(), id); err != nil {
			return classify(err)
		}
		if !flagJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted widget %d\n", id)
		}
		return nil
	},
}
