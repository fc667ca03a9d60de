// Package gesture defines the pointer input shared by the drag controllers
// and the bus on which a gesture installs its temporary global listeners.
//
// A controller that starts a drag calls [Bus.Listen] for move and up
// events and must call every returned remove function on every exit path,
// including a release outside the element that started the gesture.
// [Bus.Len] reports how many listeners are installed, so a leak is easy to
// assert on.
package gesture

// Point is a position in screen pixels.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the lower edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// MidY returns the vertical midpoint.
func (r Rect) MidY() float64 { return r.Y + r.H/2 }

// Center returns the center point.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// TargetKind classifies the element under the pointer.
type TargetKind int

const (
	TargetNone TargetKind = iota
	// TargetGap is an explicit insertion marker between two blocks.
	TargetGap
	// TargetColumn is the empty area of a column.
	TargetColumn
	// TargetBlock is another block.
	TargetBlock
	// TargetSectionHeader is a section header or section drop zone.
	TargetSectionHeader
)

func (k TargetKind) String() string {
	switch k {
	case TargetGap:
		return "gap"
	case TargetColumn:
		return "column"
	case TargetBlock:
		return "block"
	case TargetSectionHeader:
		return "section"
	default:
		return "none"
	}
}

// Target identifies the element under the pointer, as reported by the
// rendering side. Which fields are meaningful depends on Kind: gaps carry
// SectionID, Col and Index; columns carry SectionID and Col; blocks carry
// BlockID; section headers carry SectionID.
type Target struct {
	Kind      TargetKind
	SectionID string
	Col       int
	Index     int
	BlockID   string
}

// EventKind is the type of pointer event.
type EventKind int

const (
	PointerMove EventKind = iota + 1
	PointerUp
)

// PointerEvent is one pointer sample.
type PointerEvent struct {
	Kind   EventKind
	Pos    Point
	Target Target
}

// Listener receives pointer events from a [Bus].
type Listener func(PointerEvent)

type entry struct {
	id   int
	kind EventKind
	fn   Listener
}

// Bus dispatches pointer events to the listeners installed by the active
// gesture. The zero value is ready to use. A Bus is not safe for
// concurrent use.
type Bus struct {
	entries []entry
	nextID  int
}

// Listen installs fn for events of the given kind and returns a function
// that removes it. Calling the remove function more than once is harmless.
func (b *Bus) Listen(kind EventKind, fn Listener) (remove func()) {
	b.nextID++
	id := b.nextID
	b.entries = append(b.entries, entry{id: id, kind: kind, fn: fn})
	return func() {
		for i, e := range b.entries {
			if e.id == id {
				b.entries = append(b.entries[:i:i], b.entries[i+1:]...)
				return
			}
		}
	}
}

// Dispatch delivers ev to every listener of its kind. Listeners may remove
// themselves (or others) while being called.
func (b *Bus) Dispatch(ev PointerEvent) {
	snapshot := append([]entry(nil), b.entries...)
	for _, e := range snapshot {
		if e.kind == ev.Kind && b.installed(e.id) {
			e.fn(ev)
		}
	}
}

func (b *Bus) installed(id int) bool {
	for _, e := range b.entries {
		if e.id == id {
			return true
		}
	}
	return false
}

// Len returns the number of installed listeners.
func (b *Bus) Len() int {
	return len(b.entries)
}
