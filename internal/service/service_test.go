package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/canvas/internal/memory"
	"github.com/mesh-intelligence/canvas/internal/metrics"
	"github.com/mesh-intelligence/canvas/internal/storetest"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

// brokenStore fails every operation with errBroken.
type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) Get(int64) (types.Widget, error)               { return types.Widget{}, errBroken }
func (brokenStore) List(types.Page) ([]types.Widget, error)       { return nil, errBroken }
func (brokenStore) Create(types.WidgetInput) (types.Widget, error) { return types.Widget{}, errBroken }
func (brokenStore) Update(types.WidgetInput) (types.Widget, error) { return types.Widget{}, errBroken }
func (brokenStore) Delete(int64) error                            { return errBroken }
func (brokenStore) Clear() error                                  { return errBroken }

func setupService(t *testing.T) (*Service, *memory.Store, *metrics.Metrics) {
	t.Helper()
	store := memory.NewStore()
	m := metrics.New()
	return New(store, m), store, m
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid input is stored", func(t *testing.T) {
		svc, store, _ := setupService(t)
		w, err := svc.Create(ctx, storetest.Input(nil))
		require.NoError(t, err)
		assert.Equal(t, int64(1), w.ID)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("invalid input never reaches the store", func(t *testing.T) {
		svc, store, m := setupService(t)
		in := storetest.Input(nil)
		in.Height = types.Int(-1)

		_, err := svc.Create(ctx, in)
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
		assert.Equal(t, 0, store.Len())
		assert.Contains(t, scrape(t, m), `canvas_store_operations_total{op="create",outcome="invalid"} 1`)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	svc, _, m := setupService(t)

	_, err := svc.Get(ctx, 0)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))

	_, err = svc.Get(ctx, 1)
	assert.True(t, errors.Is(err, types.ErrNotFound))
	assert.Contains(t, scrape(t, m), `canvas_store_operations_total{op="get",outcome="not_found"} 1`)

	created, err := svc.Create(ctx, storetest.Input(nil))
	require.NoError(t, err)
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id is reported before validation", func(t *testing.T) {
		svc, _, _ := setupService(t)
		in := types.WidgetInput{ID: 5}
		_, err := svc.Update(ctx, in)
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})

	t.Run("missing id is invalid", func(t *testing.T) {
		svc, _, _ := setupService(t)
		_, err := svc.Update(ctx, storetest.Input(nil))
		assert.True(t, errors.Is(err, types.ErrInvalidInput))
	})

	t.Run("invalid geometry leaves widget unchanged", func(t *testing.T) {
		svc, store, _ := setupService(t)
		w, err := svc.Create(ctx, storetest.Input(nil))
		require.NoError(t, err)

		in := w.Input()
		in.Width = nil
		_, err = svc.Update(ctx, in)
		assert.True(t, errors.Is(err, types.ErrInvalidInput))

		got, err := store.Get(w.ID)
		require.NoError(t, err)
		assert.Equal(t, w, got)
	})

	t.Run("valid update", func(t *testing.T) {
		svc, _, _ := setupService(t)
		w, err := svc.Create(ctx, storetest.Input(nil))
		require.NoError(t, err)

		in := w.Input()
		in.X = types.Int(42)
		got, err := svc.Update(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, 42, got.X)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	assert.True(t, errors.Is(svc.Delete(ctx, -1), types.ErrInvalidInput))
	assert.True(t, errors.Is(svc.Delete(ctx, 1), types.ErrNotFound))

	w, err := svc.Create(ctx, storetest.Input(nil))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, w.ID))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	for _, z := range []int{3, 1, 2} {
		_, err := svc.Create(ctx, storetest.Input(types.Int(z)))
		require.NoError(t, err)
	}
	got, err := svc.List(ctx, types.DefaultPage())
	require.NoError(t, err)
	storetest.AssertConsistent(t, got)
	assert.Len(t, got, 3)
}

func TestStoreFailure(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	svc := New(brokenStore{}, m)

	_, err := svc.List(ctx, types.DefaultPage())
	assert.True(t, errors.Is(err, errBroken))
	assert.Contains(t, scrape(t, m), `canvas_store_operations_total{op="list",outcome="error"} 1`)
}

func TestNilMetrics(t *testing.T) {
	svc := New(memory.NewStore(), nil)
	_, err := svc.Create(context.Background(), storetest.Input(nil))
	require.NoError(t, err)
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
