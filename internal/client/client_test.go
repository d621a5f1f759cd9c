package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/canvas/internal/httpapi"
	"github.com/mesh-intelligence/canvas/internal/memory"
	"github.com/mesh-intelligence/canvas/internal/service"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

func setupClient(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(httpapi.NewRouter(service.New(memory.NewStore(), nil), httpapi.Options{}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, 0)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func input(z *int) types.WidgetInput {
	return types.WidgetInput{X: types.Int(1), Y: types.Int(2), Z: z, Width: types.Int(3), Height: types.Int(4)}
}

func TestClientRoundTrip(t *testing.T) {
	c := setupClient(t)
	ctx := context.Background()

	a, err := c.Create(ctx, input(types.Int(1)))
	require.NoError(t, err)
	b, err := c.Create(ctx, input(types.Int(2)))
	require.NoError(t, err)
	cw, err := c.Create(ctx, input(types.Int(1)))
	require.NoError(t, err)
	assert.Equal(t, 1, cw.Z)

	got, err := c.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Z, "a was shifted up by the insert at z=1")

	all, err := c.List(ctx, types.DefaultPage())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{cw.ID, a.ID, b.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	in := b.Input()
	in.Z = types.Int(10)
	updated, err := c.Update(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Z)

	require.NoError(t, c.Delete(ctx, a.ID))
	_, err = c.Get(ctx, a.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestClientListPage(t *testing.T) {
	c := setupClient(t)
	ctx := context.Background()

	empty, err := c.List(ctx, types.DefaultPage())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 0; i < 5; i++ {
		_, err := c.Create(ctx, input(nil))
		require.NoError(t, err)
	}
	page, err := c.List(ctx, types.Page{Limit: 2, Offset: 3})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 4, page[0].Z)
	assert.Equal(t, 5, page[1].Z)
}

func TestClientErrors(t *testing.T) {
	c := setupClient(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		want   error
		status int
	}{
		{
			name:   "get missing",
			call:   func() error { _, err := c.Get(ctx, 42); return err },
			want:   types.ErrNotFound,
			status: http.StatusNotFound,
		},
		{
			name:   "delete missing",
			call:   func() error { return c.Delete(ctx, 42) },
			want:   types.ErrNotFound,
			status: http.StatusNotFound,
		},
		{
			name: "create negative width",
			call: func() error {
				in := input(nil)
				in.Width = types.Int(-1)
				_, err := c.Create(ctx, in)
				return err
			},
			want:   types.ErrInvalidInput,
			status: http.StatusBadRequest,
		},
		{
			name:   "update without id",
			call:   func() error { _, err := c.Update(ctx, input(nil)); return err },
			want:   types.ErrInvalidInput,
			status: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, 0)
	t.Cleanup(func() { _ = c.Close() })

	_, err := c.Get(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServer)
	assert.Contains(t, err.Error(), "502 Bad Gateway")
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, 0)
	t.Cleanup(func() { _ = c.Close() })
	_, err := c.List(context.Background(), types.DefaultPage())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClientRequestPaths(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet && r.URL.Path == httpapi.BasePath {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_, _ = w.Write([]byte(`{"id":3}`))
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	_, err := c.Get(ctx, 3)
	require.NoError(t, err)
	_, err = c.List(ctx, types.DefaultPage())
	require.NoError(t, err)
	_, err = c.Create(ctx, input(nil))
	require.NoError(t, err)
	in := input(nil)
	in.ID = 3
	_, err = c.Update(ctx, in)
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, 3))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"GET " + httpapi.BasePath + "/3",
		"GET " + httpapi.BasePath,
		"POST " + httpapi.BasePath,
		"PUT " + httpapi.BasePath,
		"DELETE " + httpapi.BasePath + "/3",
	}, seen)
}
