package types

import (
	"errors"
	"fmt"
)

// WidgetStore holds the authoritative widget set. Implementations keep z
// values unique, shift on collisions, and make every mutation atomic with
// respect to concurrent readers and writers.
type WidgetStore interface {
	// Get returns the widget with the given ID.
	// Returns ErrNotFound if no widget exists with that ID.
	Get(id int64) (Widget, error)

	// List returns widgets in ascending z-order, bounded by page.
	// An empty store yields an empty, non-nil slice.
	List(page Page) ([]Widget, error)

	// Create stores a new widget under a fresh ID. A nil Z places the widget
	// above every other widget. A Z already in use shifts every widget at or
	// above it up by one before the insert. Returns ErrZOverflow, and stores
	// nothing, when the placement would push a z past the largest int.
	Create(in WidgetInput) (Widget, error)

	// Update replaces the fields of the widget identified by in.ID, applying
	// the same z placement rules as Create. Returns ErrNotFound if no widget
	// exists with that ID and ErrZOverflow as Create does; nothing is
	// modified in either case.
	Update(in WidgetInput) (Widget, error)

	// Delete removes the widget with the given ID. Remaining z values are
	// not renumbered. Returns ErrNotFound if no widget exists with that ID.
	Delete(id int64) error

	// Clear removes every widget and resets the ID counter and the z
	// high-water mark.
	Clear() error
}

// Store errors.
var (
	ErrNotFound     = errors.New("widget not found")
	ErrInvalidInput = errors.New("invalid widget")

	// ErrZOverflow wraps ErrInvalidInput.
	ErrZOverflow = fmt.Errorf("%w: z index out of range", ErrInvalidInput)
)
