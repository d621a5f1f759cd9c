package types

import (
	"fmt"
	"time"
)

// WidgetsPath is the collection URL of the widget HTTP API. A single widget
// lives at WidgetsPath/{id}.
const WidgetsPath = "/api/v1/widgets"

// Widget is a rectangle placed on the canvas. Z defines draw order: lower
// values are further back. No two stored widgets share a Z value.
type Widget struct {
	ID         int64     `json:"id"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Z          int       `json:"z"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// WidgetInput carries the caller-supplied fields for a create or update.
// Pointer fields distinguish an absent value from zero. ID is ignored on
// create and is the lookup key on update. A nil Z asks the store to place the
// widget in front of every other widget.
type WidgetInput struct {
	ID     int64 `json:"id,omitempty"`
	X      *int  `json:"x"`
	Y      *int  `json:"y"`
	Z      *int  `json:"z,omitempty"`
	Width  *int  `json:"width"`
	Height *int  `json:"height"`
}

// Validate checks that the geometry fields are present and that the
// dimensions are not negative. Failures wrap ErrInvalidInput.
func (in WidgetInput) Validate() error {
	required := []struct {
		name  string
		value *int
	}{
		{"x", in.X},
		{"y", in.Y},
		{"width", in.Width},
		{"height", in.Height},
	}
	for _, f := range required {
		if f.value == nil {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	if *in.Width < 0 {
		return fmt.Errorf("%w: width must not be negative", ErrInvalidInput)
	}
	if *in.Height < 0 {
		return fmt.Errorf("%w: height must not be negative", ErrInvalidInput)
	}
	return nil
}

// Apply copies the geometry of in onto w. Absent fields become zero; callers
// validate before handing input to a store. Z, ID and ModifiedAt are owned by
// the store and left untouched.
func (in WidgetInput) Apply(w *Widget) {
	w.X = deref(in.X)
	w.Y = deref(in.Y)
	w.Width = deref(in.Width)
	w.Height = deref(in.Height)
}

// Input returns the WidgetInput that would recreate w, Z included.
func (w Widget) Input() WidgetInput {
	return WidgetInput{
		ID:     w.ID,
		X:      Int(w.X),
		Y:      Int(w.Y),
		Z:      Int(w.Z),
		Width:  Int(w.Width),
		Height: Int(w.Height),
	}
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
