package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/canvas/internal/httpapi"
	"github.com/mesh-intelligence/canvas/internal/memory"
	"github.com/mesh-intelligence/canvas/internal/service"
	"github.com/mesh-intelligence/canvas/pkg/canvas"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

// resetFlags restores every flag to its default so runs do not leak state
// through the package-level command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the CLI with a private config dir and returns the exit
// code and combined output.
func runCLI(t *testing.T, configDir string, args ...string) (int, string) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = types.Config{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	code := run(context.Background(), append([]string{"--config-dir", configDir}, args...))
	return code, out.String()
}

func setupServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(httpapi.NewRouter(service.New(memory.NewStore(), nil), httpapi.Options{}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestVersion(t *testing.T) {
	code, out := runCLI(t, t.TempDir(), "version")
	assert.Equal(t, exitSuccess, code)
	assert.Equal(t, "canvas "+canvas.Version+"\n", out)
}

func TestInitWritesDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	code, out := runCLI(t, dir, "init")
	require.Equal(t, exitSuccess, code, out)
	assert.Contains(t, out, "Canvas initialized successfully")

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfigYAML, string(data))
}

func TestWidgetCommands(t *testing.T) {
	dir := t.TempDir()
	server := setupServer(t)
	cli := func(args ...string) (int, string) {
		return runCLI(t, dir, append([]string{"--server", server}, args...)...)
	}

	code, out := cli("create", "--x", "1", "--y", "2", "--width", "3", "--height", "4")
	require.Equal(t, exitSuccess, code, out)
	assert.Equal(t, "Created widget 1 at z=1\n", out)

	code, out = cli("create", "--x", "5", "--y", "6", "--width", "7", "--height", "8", "--z", "1", "--json")
	require.Equal(t, exitSuccess, code, out)
	var second types.Widget
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, 1, second.Z)

	code, out = cli("get", "1", "--json")
	require.Equal(t, exitSuccess, code, out)
	var first types.Widget
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, 2, first.Z, "widget 1 was shifted by the insert at z=1")

	code, out = cli("list", "--json")
	require.Equal(t, exitSuccess, code, out)
	var all []types.Widget
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].ID)
	assert.Equal(t, int64(1), all[1].ID)

	code, out = cli("list", "--limit", "1", "--offset", "1")
	require.Equal(t, exitSuccess, code, out)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "1 "))

	code, out = cli("update", "1", "--width", "99")
	require.Equal(t, exitSuccess, code, out)
	assert.Equal(t, "Updated widget 1 at z=2\n", out, "z is kept when --z is absent")

	code, out = cli("get", "1", "--json")
	require.Equal(t, exitSuccess, code, out)
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, 99, first.Width)
	assert.Equal(t, 1, first.X)

	code, out = cli("delete", "2")
	require.Equal(t, exitSuccess, code, out)
	assert.Equal(t, "Deleted widget 2\n", out)
}

func TestWidgetCommandErrors(t *testing.T) {
	dir := t.TempDir()
	server := setupServer(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "get missing widget",
			args:     []string{"--server", server, "get", "9"},
			wantCode: exitUserError,
			wantOut:  "widget not found",
		},
		{
			name:     "delete missing widget",
			args:     []string{"--server", server, "delete", "9"},
			wantCode: exitUserError,
			wantOut:  "widget not found",
		},
		{
			name:     "create without height",
			args:     []string{"--server", server, "create", "--x", "1", "--y", "1", "--width", "1"},
			wantCode: exitUserError,
			wantOut:  "height",
		},
		{
			name:     "create with negative width",
			args:     []string{"--server", server, "create", "--x", "1", "--y", "1", "--width=-1", "--height", "1"},
			wantCode: exitUserError,
			wantOut:  "width",
		},
		{
			name:     "non-numeric id",
			args:     []string{"--server", server, "get", "abc"},
			wantCode: exitUserError,
			wantOut:  `invalid widget id "abc"`,
		},
		{
			name:     "missing argument",
			args:     []string{"--server", server, "get"},
			wantCode: exitUserError,
			wantOut:  "accepts 1 arg",
		},
		{
			name:     "server unreachable",
			args:     []string{"--server", "http://127.0.0.1:1", "list"},
			wantCode: exitSysError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := runCLI(t, dir, tt.args...)
			assert.Equal(t, tt.wantCode, code, out)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestInvalidConfigIsUserError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend: postgres\n"), 0o644))

	code, out := runCLI(t, dir, "list")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, out, "unknown backend")
}
