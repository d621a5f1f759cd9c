package types

// Page bounds.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 500
)

// Page bounds a list read: skip Offset widgets in z-order, then return at
// most Limit of them.
type Page struct {
	Limit  int
	Offset int
}

// NewPage builds a Page from optional request values. An absent or
// non-positive limit falls back to DefaultPageLimit and a limit above
// MaxPageLimit is clamped to it. An absent or negative offset becomes zero.
func NewPage(limit, offset *int) Page {
	p := Page{Limit: DefaultPageLimit}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	if offset != nil && *offset > 0 {
		p.Offset = *offset
	}
	return p
}

// DefaultPage returns the first page with the default limit.
func DefaultPage() Page {
	return NewPage(nil, nil)
}

// Slice applies the page bounds to widgets already sorted in z-order. The
// result is never nil.
func (p Page) Slice(widgets []Widget) []Widget {
	if p.Offset >= len(widgets) {
		return []Widget{}
	}
	end := min(p.Offset+p.Limit, len(widgets))
	out := make([]Widget, end-p.Offset)
	copy(out, widgets[p.Offset:end])
	return out
}
