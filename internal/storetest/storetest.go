// Package storetest provides a conformance suite that every WidgetStore
// backend runs from its own tests.
package storetest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/canvas/pkg/types"
)

// Factory returns an empty store. The suite calls it once per subtest.
type Factory func(t *testing.T) types.WidgetStore

// Run executes the full conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s types.WidgetStore)
	}{
		{"auto z stacks in front", testAutoZ},
		{"explicit z on occupied slot shifts", testCreateShift},
		{"shift leaves lower widgets alone", testShiftLeavesLower},
		{"z values stay unique", testUniqueZ},
		{"list is sorted by z", testListSorted},
		{"list pagination", testListPagination},
		{"empty store", testEmptyStore},
		{"get returns stored widget", testGet},
		{"delete", testDelete},
		{"update moves onto occupied z", testUpdateShift},
		{"update keeping z touches nobody", testUpdateSameZ},
		{"update moving down", testUpdateMoveDown},
		{"update without z moves to front", testUpdateNilZ},
		{"update unknown id", testUpdateNotFound},
		{"modifiedAt strictly increases", testModifiedAt},
		{"clear resets counters", testClear},
		{"ids are never reused", testIDsNotReused},
		{"z at the int bounds never wraps", testZBounds},
		{"top slot frees after delete", testZBoundsAfterDelete},
		{"concurrent writers keep z unique", testConcurrentWriters},
		{"readers never see a partial shift", testConcurrentReaders},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

// Input builds a valid WidgetInput at the origin with unit size. A nil z
// requests automatic placement.
func Input(z *int) types.WidgetInput {
	return types.WidgetInput{
		X:      types.Int(0),
		Y:      types.Int(0),
		Z:      z,
		Width:  types.Int(1),
		Height: types.Int(1),
	}
}

// MustCreate creates a widget and fails the test on error.
func MustCreate(t *testing.T, s types.WidgetStore, z *int) types.Widget {
	t.Helper()
	w, err := s.Create(Input(z))
	require.NoError(t, err)
	return w
}

// ZByID returns the z value of every stored widget keyed by ID.
func ZByID(t *testing.T, s types.WidgetStore) map[int64]int {
	t.Helper()
	all, err := s.List(types.NewPage(types.Int(types.MaxPageLimit), nil))
	require.NoError(t, err)
	out := make(map[int64]int, len(all))
	for _, w := range all {
		out[w.ID] = w.Z
	}
	return out
}

// AssertConsistent checks that widgets is sorted by z with no duplicates.
func AssertConsistent(t *testing.T, widgets []types.Widget) {
	t.Helper()
	for i := 1; i < len(widgets); i++ {
		assert.Less(t, widgets[i-1].Z, widgets[i].Z, "z order broken at index %d", i)
	}
}

func testAutoZ(t *testing.T, s types.WidgetStore) {
	a := MustCreate(t, s, nil)
	b := MustCreate(t, s, nil)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, 1, a.Z)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, 2, b.Z)
	assert.False(t, a.ModifiedAt.IsZero())
}

func testCreateShift(t *testing.T, s types.WidgetStore) {
	a := MustCreate(t, s, nil)
	b := MustCreate(t, s, nil)
	c := MustCreate(t, s, types.Int(2))

	assert.Equal(t, 2, c.Z)

	all, err := s.List(types.DefaultPage())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{a.ID, c.ID, b.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, []int{1, 2, 3}, []int{all[0].Z, all[1].Z, all[2].Z})

	// The next automatic slot is above the shifted widget.
	d := MustCreate(t, s, nil)
	assert.Equal(t, 4, d.Z)
}

func testShiftLeavesLower(t *testing.T, s types.WidgetStore) {
	for _, z := range []int{1, 3, 5, 7} {
		MustCreate(t, s, types.Int(z))
	}
	before := ZByID(t, s)

	n := MustCreate(t, s, types.Int(5))
	after := ZByID(t, s)

	for id, z := range before {
		if z >= 5 {
			assert.Equal(t, z+1, after[id], "widget %d at or above 5 moves up by one", id)
		} else {
			assert.Equal(t, z, after[id], "widget %d below 5 stays put", id)
		}
	}
	assert.Equal(t, 5, after[n.ID])

	// A free slot causes no shift.
	before = after
	m := MustCreate(t, s, types.Int(2))
	after = ZByID(t, s)
	for id, z := range before {
		assert.Equal(t, z, after[id])
	}
	assert.Equal(t, 2, after[m.ID])
}

func testUniqueZ(t *testing.T, s types.WidgetStore) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		if rng.Intn(3) == 0 {
			MustCreate(t, s, nil)
			continue
		}
		MustCreate(t, s, types.Int(rng.Intn(40)-10))
	}

	all, err := s.List(types.NewPage(types.Int(types.MaxPageLimit), nil))
	require.NoError(t, err)
	require.Len(t, all, 200)

	seen := make(map[int]bool, len(all))
	for _, w := range all {
		assert.False(t, seen[w.Z], "duplicate z %d", w.Z)
		seen[w.Z] = true
	}
	AssertConsistent(t, all)
}

func testListSorted(t *testing.T, s types.WidgetStore) {
	for _, z := range []int{9, -3, 4, 0, 12, 7} {
		MustCreate(t, s, types.Int(z))
	}

	all, err := s.List(types.DefaultPage())
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, []int{-3, 0, 4, 7, 9, 12}, zs(all))
}

func testListPagination(t *testing.T, s types.WidgetStore) {
	MustCreate(t, s, types.Int(30))
	second := MustCreate(t, s, types.Int(20))
	MustCreate(t, s, types.Int(10))

	page, err := s.List(types.NewPage(types.Int(1), types.Int(1)))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)

	page, err = s.List(types.NewPage(types.Int(10), types.Int(3)))
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)

	page, err = s.List(types.NewPage(types.Int(2), nil))
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, zs(page))
}

func testEmptyStore(t *testing.T, s types.WidgetStore) {
	all, err := s.List(types.NewPage(types.Int(10), types.Int(0)))
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	_, err = s.Get(1)
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)
}

func testGet(t *testing.T, s types.WidgetStore) {
	in := types.WidgetInput{X: types.Int(-5), Y: types.Int(6), Width: types.Int(7), Height: types.Int(0)}
	created, err := s.Create(in)
	require.NoError(t, err)

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, -5, got.X)
	assert.Equal(t, 6, got.Y)
	assert.Equal(t, 7, got.Width)
	assert.Equal(t, 0, got.Height)
	assert.Equal(t, created.Z, got.Z)
	assert.True(t, created.ModifiedAt.Equal(got.ModifiedAt))
}

func testDelete(t *testing.T, s types.WidgetStore) {
	err := s.Delete(99)
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)

	a := MustCreate(t, s, nil)
	b := MustCreate(t, s, nil)
	c := MustCreate(t, s, nil)

	require.NoError(t, s.Delete(b.ID))

	_, err = s.Get(b.ID)
	assert.True(t, errors.Is(err, types.ErrNotFound))

	after := ZByID(t, s)
	assert.Equal(t, map[int64]int{a.ID: 1, c.ID: 3}, after, "no renumbering after delete")

	err = s.Delete(b.ID)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func testUpdateShift(t *testing.T, s types.WidgetStore) {
	a := MustCreate(t, s, nil) // 1
	b := MustCreate(t, s, nil) // 2
	c := MustCreate(t, s, nil) // 3
	d := MustCreate(t, s, nil) // 4

	in := d.Input()
	in.Z = types.Int(2)
	in.Width = types.Int(50)
	got, err := s.Update(in)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Z)
	assert.Equal(t, 50, got.Width)
	assert.Equal(t, d.ID, got.ID)

	after := ZByID(t, s)
	assert.Equal(t, map[int64]int{a.ID: 1, d.ID: 2, b.ID: 3, c.ID: 4}, after)
}

func testUpdateSameZ(t *testing.T, s types.WidgetStore) {
	MustCreate(t, s, nil)
	b := MustCreate(t, s, nil)
	MustCreate(t, s, nil)
	before := ZByID(t, s)

	in := b.Input()
	in.X = types.Int(100)
	got, err := s.Update(in)
	require.NoError(t, err)
	assert.Equal(t, b.Z, got.Z)
	assert.Equal(t, 100, got.X)

	assert.Equal(t, before, ZByID(t, s))
}

func testUpdateMoveDown(t *testing.T, s types.WidgetStore) {
	a := MustCreate(t, s, nil)
	b := MustCreate(t, s, nil)
	c := MustCreate(t, s, nil)

	in := c.Input()
	in.Z = types.Int(1)
	_, err := s.Update(in)
	require.NoError(t, err)

	assert.Equal(t, map[int64]int{c.ID: 1, a.ID: 2, b.ID: 3}, ZByID(t, s))
}

func testUpdateNilZ(t *testing.T, s types.WidgetStore) {
	a := MustCreate(t, s, nil)
	b := MustCreate(t, s, nil)

	in := a.Input()
	in.Z = nil
	got, err := s.Update(in)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Z)

	all, err := s.List(types.DefaultPage())
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID}, []int64{all[0].ID, all[1].ID})
}

func testUpdateNotFound(t *testing.T, s types.WidgetStore) {
	a := MustCreate(t, s, nil)
	before := ZByID(t, s)

	in := Input(types.Int(1))
	in.ID = 42
	_, err := s.Update(in)
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)

	assert.Equal(t, before, ZByID(t, s))
	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.True(t, a.ModifiedAt.Equal(got.ModifiedAt))
}

func testModifiedAt(t *testing.T, s types.WidgetStore) {
	w := MustCreate(t, s, nil)
	prev := w.ModifiedAt
	for i := 0; i < 5; i++ {
		in := w.Input()
		in.X = types.Int(i)
		got, err := s.Update(in)
		require.NoError(t, err)
		assert.True(t, got.ModifiedAt.After(prev), "update %d: %v not after %v", i, got.ModifiedAt, prev)
		prev = got.ModifiedAt

		stored, err := s.Get(w.ID)
		require.NoError(t, err)
		assert.True(t, stored.ModifiedAt.Equal(got.ModifiedAt))
	}
}

func testClear(t *testing.T, s types.WidgetStore) {
	MustCreate(t, s, types.Int(100))
	MustCreate(t, s, nil)

	require.NoError(t, s.Clear())

	all, err := s.List(types.DefaultPage())
	require.NoError(t, err)
	assert.Empty(t, all)

	w := MustCreate(t, s, nil)
	assert.Equal(t, int64(1), w.ID)
	assert.Equal(t, 1, w.Z)
}

func testIDsNotReused(t *testing.T, s types.WidgetStore) {
	a := MustCreate(t, s, nil)
	require.NoError(t, s.Delete(a.ID))
	b := MustCreate(t, s, nil)
	assert.Greater(t, b.ID, a.ID)
}

func testConcurrentWriters(t *testing.T, s types.WidgetStore) {
	const workers, perWorker = 8, 25

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				var z *int
				if (worker+i)%2 == 0 {
					z = types.Int(1 + i%5)
				}
				if _, err := s.Create(Input(z)); err != nil {
					errs <- fmt.Errorf("worker %d: %w", worker, err)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := s.List(types.NewPage(types.Int(types.MaxPageLimit), nil))
	require.NoError(t, err)
	require.Len(t, all, workers*perWorker)
	AssertConsistent(t, all)

	ids := make(map[int64]bool, len(all))
	for _, w := range all {
		assert.False(t, ids[w.ID], "duplicate id %d", w.ID)
		ids[w.ID] = true
	}
}

func testConcurrentReaders(t *testing.T, s types.WidgetStore) {
	for i := 0; i < 20; i++ {
		MustCreate(t, s, nil)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				all, err := s.List(types.NewPage(types.Int(types.MaxPageLimit), nil))
				if !assert.NoError(t, err) {
					return
				}
				AssertConsistent(t, all)
			}
		}()
	}

	for i := 0; i < 100; i++ {
		MustCreate(t, s, types.Int(1))
	}
	close(done)
	wg.Wait()
}

func zs(widgets []types.Widget) []int {
	out := make([]int, len(widgets))
	for i, w := range widgets {
		out[i] = w.Z
	}
	return out
}

func testZBounds(t *testing.T, s types.WidgetStore) {
	low := MustCreate(t, s, types.Int(math.MinInt))
	top := MustCreate(t, s, types.Int(math.MaxInt))
	assert.Equal(t, math.MinInt, low.Z)
	assert.Equal(t, math.MaxInt, top.Z)
	before := ZByID(t, s)

	// Automatic placement has no slot above MaxInt.
	_, err := s.Create(Input(nil))
	require.ErrorIs(t, err, types.ErrZOverflow)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	// Inserting at an occupied slot would shift the MaxInt widget past the top.
	_, err = s.Create(Input(types.Int(math.MaxInt)))
	require.ErrorIs(t, err, types.ErrZOverflow)
	_, err = s.Create(Input(types.Int(math.MinInt)))
	require.ErrorIs(t, err, types.ErrZOverflow)

	// Moving low onto top's slot needs the same shift.
	in := low.Input()
	in.Z = types.Int(math.MaxInt)
	_, err = s.Update(in)
	require.ErrorIs(t, err, types.ErrZOverflow)

	// Nothing moved and no ID was spent on the failures.
	assert.Equal(t, before, ZByID(t, s))
	got, err := s.Get(low.ID)
	require.NoError(t, err)
	assert.True(t, got.ModifiedAt.Equal(low.ModifiedAt))

	// A free slot below the top still works, as does keeping the top z.
	mid := MustCreate(t, s, types.Int(0))
	assert.Equal(t, top.ID+1, mid.ID)
	in = top.Input()
	_, err = s.Update(in)
	require.NoError(t, err)

	all, err := s.List(types.DefaultPage())
	require.NoError(t, err)
	assert.Equal(t, []int{math.MinInt, 0, math.MaxInt}, zs(all))
	AssertConsistent(t, all)
}

func testZBoundsAfterDelete(t *testing.T, s types.WidgetStore) {
	MustCreate(t, s, types.Int(5))
	top := MustCreate(t, s, types.Int(math.MaxInt))
	require.NoError(t, s.Delete(top.ID))

	// With the top slot empty again, automatic placement resumes above the
	// largest z still in use.
	w, err := s.Create(Input(nil))
	require.NoError(t, err)
	assert.Equal(t, 6, w.Z)

	// The widget at MaxInt may itself move to the front.
	top = MustCreate(t, s, types.Int(math.MaxInt))
	in := top.Input()
	in.Z = nil
	moved, err := s.Update(in)
	require.NoError(t, err)
	assert.Equal(t, 7, moved.Z)

	all, err := s.List(types.DefaultPage())
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 7}, zs(all))
}
