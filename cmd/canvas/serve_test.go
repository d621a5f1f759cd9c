package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/canvas/internal/client"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

func TestOpenStore(t *testing.T) {
	for _, backend := range []string{types.BackendMemory, types.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			store, closeStore, err := openStore(backend)
			require.NoError(t, err)

			w, err := store.Create(types.WidgetInput{X: types.Int(1), Y: types.Int(1), Width: types.Int(1), Height: types.Int(1)})
			require.NoError(t, err)
			assert.Equal(t, 1, w.Z)
			assert.Equal(t, 1, store.Len())
			require.NoError(t, closeStore())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, _, err := openStore("postgres")
		assert.ErrorIs(t, err, types.ErrBackendUnknown)
	})
}

func TestServeUntilCancelled(t *testing.T) {
	cfg = types.DefaultConfig()
	store, closeStore, err := openStore(types.BackendMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeStore() })

	logger, hook := test.NewNullLogger()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, newHandler(store, logger), logger)
	}()

	base := "http://" + ln.Addr().String()
	res, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	c := client.New(base, time.Second)
	defer c.Close()
	w, err := c.Create(ctx, types.WidgetInput{X: types.Int(1), Y: types.Int(2), Width: types.Int(3), Height: types.Int(4)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.ID)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "shutting down")
}
