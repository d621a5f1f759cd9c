// Shared helpers for canvas CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/canvas/internal/client"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// exitCode maps an error returned by a command to an exit code. Errors
// without an explicit code are flag or argument errors from cobra.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// classify tags a client error: a missing widget or invalid input is the
// user's, anything else (transport, server, rate limit) is the system's.
func classify(err error) error {
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidInput) {
		return userError(err)
	}
	return sysError(err)
}

// newClient returns a client for the configured server. The caller must
// close it.
func newClient() *client.Client {
	return client.New(cfg.Server, 0)
}

// parseID parses a positional widget ID.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError(fmt.Errorf("invalid widget id %q", raw))
	}
	return id, nil
}

// geometryFlags holds the flag values shared by create and update.
type geometryFlags struct {
	x, y, z, width, height int
}

func (g *geometryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&g.x, "x", 0, "left coordinate")
	cmd.Flags().IntVar(&g.y, "y", 0, "top coordinate")
	cmd.Flags().IntVar(&g.z, "z", 0, "z-index (default: in front of all widgets)")
	cmd.Flags().IntVar(&g.width, "width", 0, "width")
	cmd.Flags().IntVar(&g.height, "height", 0, "height")
}

// apply sets on in every field whose flag was given on the command line.
func (g *geometryFlags) apply(cmd *cobra.Command, in *types.WidgetInput) {
	set := func(name string, v int, dst **int) {
		if cmd.Flags().Changed(name) {
			*dst = types.Int(v)
		}
	}
	set("x", g.x, &in.X)
	set("y", g.y, &in.Y)
	set("z", g.z, &in.Z)
	set("width", g.width, &in.Width)
	set("height", g.height, &in.Height)
}

// intFlag returns a pointer to the flag value if it was given, else nil.
func intFlag(cmd *cobra.Command, name string, v int) *int {
	if cmd.Flags().Changed(name) {
		return types.Int(v)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// printWidgets writes widgets as JSON when --json is set, otherwise as an
// aligned table.
func printWidgets(w io.Writer, widgets ...types.Widget) error {
	if flagJSON {
		if len(widgets) == 1 {
			return printJSON(w, widgets[0])
		}
		return printJSON(w, widgets)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tZ\tX\tY\tWIDTH\tHEIGHT\tMODIFIED")
	for _, wd := range widgets {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			wd.ID, wd.Z, wd.X, wd.Y, wd.Width, wd.Height, wd.ModifiedAt.Format(time.RFC3339Nano))
	}
	return tw.Flush()
}
