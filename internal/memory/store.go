// Package memory implements the in-memory WidgetStore.
//
// A single sync.RWMutex guards the record map, the z index, the ID counter
// and the z high-water mark. Every mutation runs entirely under the write
// lock, so a shift followed by an insert is one step to any reader. Reads
// take the read lock and hand out value copies; nothing stored is reachable
// from outside the lock.
package memory

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/mesh-intelligence/canvas/pkg/types"
)

// Compile-time interface check: Store must implement WidgetStore.
var _ types.WidgetStore = (*Store)(nil)

// Store is a WidgetStore held entirely in process memory.
type Store struct {
	mu        sync.RWMutex
	widgets   map[int64]types.Widget // ID -> widget
	byZ       map[int]int64          // z -> ID; one entry per widget
	lastID    int64                  // last issued ID
	highWater int                    // never below the largest z in use
	shifts    uint64                 // number of collision shifts performed

	now func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		widgets: make(map[int64]types.Widget),
		byZ:     make(map[int]int64),
		now:     time.Now,
	}
}

// Get returns the widget with the given ID.
func (s *Store) Get(id int64) (types.Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.widgets[id]
	if !ok {
		return types.Widget{}, fmt.Errorf("get widget %d: %w", id, types.ErrNotFound)
	}
	return w, nil
}

// List returns widgets in ascending z-order bounded by page.
func (s *Store) List(page types.Page) ([]types.Widget, error) {
	s.mu.RLock()
	all := make([]types.Widget, 0, len(s.widgets))
	for _, w := range s.widgets {
		all = append(all, w)
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b types.Widget) int { return cmp.Compare(a.Z, b.Z) })
	return page.Slice(all), nil
}

// Create stores a new widget under the next ID.
func (s *Store) Create(in types.WidgetInput) (types.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w := types.Widget{ID: s.lastID + 1}
	z, err := s.placeLocked(w.ID, in.Z, now)
	if err != nil {
		return types.Widget{}, fmt.Errorf("create widget: %w", err)
	}
	s.lastID = w.ID
	in.Apply(&w)
	w.Z = z
	w.ModifiedAt = now
	s.putLocked(w)
	return w, nil
}

// Update replaces the widget identified by in.ID.
func (s *Store) Update(in types.WidgetInput) (types.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.widgets[in.ID]
	if !ok {
		return types.Widget{}, fmt.Errorf("update widget %d: %w", in.ID, types.ErrNotFound)
	}

	// Release the current slot first so the widget never collides with itself.
	delete(s.byZ, cur.Z)

	now := s.now()
	z, err := s.placeLocked(cur.ID, in.Z, now)
	if err != nil {
		s.byZ[cur.Z] = cur.ID
		return types.Widget{}, fmt.Errorf("update widget %d: %w", in.ID, err)
	}
	w := cur
	in.Apply(&w)
	w.Z = z
	w.ModifiedAt = advance(cur.ModifiedAt, now)
	s.putLocked(w)
	return w, nil
}

// Delete removes the widget with the given ID. Other z values are untouched.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.widgets[id]
	if !ok {
		return fmt.Errorf("delete widget %d: %w", id, types.ErrNotFound)
	}
	delete(s.widgets, id)
	delete(s.byZ, w.Z)
	return nil
}

// Clear drops every widget and resets the ID counter and high-water mark.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.widgets = make(map[int64]types.Widget)
	s.byZ = make(map[int]int64)
	s.lastID = 0
	s.highWater = 0
	return nil
}

// Len returns the number of stored widgets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.widgets)
}

// Shifts returns how many writes had to shift existing widgets.
func (s *Store) Shifts() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shifts
}

// placeLocked resolves the z value for the widget id about to be written. A
// nil request goes above the high-water mark; an occupied request shifts the
// occupant and everything above it. It returns types.ErrZOverflow, having
// changed nothing, when either would need a z above math.MaxInt. The caller
// must hold s.mu for writing and must have released the writer's own slot
// in byZ.
func (s *Store) placeLocked(id int64, z *int, now time.Time) (int, error) {
	if z == nil {
		if s.highWater == math.MaxInt {
			if _, top := s.byZ[math.MaxInt]; top {
				return 0, types.ErrZOverflow
			}
			s.highWater = s.maxZLocked()
		}
		return s.highWater + 1, nil
	}
	if _, taken := s.byZ[*z]; taken {
		// A shift moves every widget at or above *z; only one at MaxInt overflows.
		if _, top := s.byZ[math.MaxInt]; top {
			return 0, types.ErrZOverflow
		}
		s.shiftLocked(*z, id, now)
	}
	return *z, nil
}

// shiftLocked moves every widget with z >= from, except skip, up by one in a
// single pass. The caller must hold s.mu for writing.
func (s *Store) shiftLocked(from int, skip int64, now time.Time) {
	var moved []types.Widget
	for _, w := range s.widgets {
		if w.ID == skip || w.Z < from {
			continue
		}
		moved = append(moved, w)
	}
	for _, w := range moved {
		delete(s.byZ, w.Z)
	}
	for _, w := range moved {
		w.Z++
		w.ModifiedAt = advance(w.ModifiedAt, now)
		s.putLocked(w)
	}
	s.shifts++
}

// maxZLocked returns the largest z in use, or zero for an empty store. The
// caller must hold s.mu.
func (s *Store) maxZLocked() int {
	if len(s.byZ) == 0 {
		return 0
	}
	high := math.MinInt
	for z := range s.byZ {
		high = max(high, z)
	}
	return high
}

// putLocked installs w in both indexes and raises the high-water mark.
// The caller must hold s.mu for writing.
func (s *Store) putLocked(w types.Widget) {
	s.widgets[w.ID] = w
	s.byZ[w.Z] = w.ID
	if w.Z > s.highWater {
		s.highWater = w.Z
	}
}

// advance returns now, or the instant just after prev when the clock has not
// moved past it, so a record's ModifiedAt strictly increases.
func advance(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}
