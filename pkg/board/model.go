package board

import "github.com/google/uuid"

// BlockType is the kind of content a block holds.
type BlockType string

const (
	BlockImage BlockType = "image"
	BlockText  BlockType = "text"
)

// Block is the atomic content unit placed on a board.
//
// Width and Height are the natural content dimensions (image pixels, or the
// measured text box). ColIndex, RowIndex and OrderIndex are the persisted
// position keys; they are written back from the column arrays by
// [Board.Normalize] and the reading-order pass, never edited by hand.
type Block struct {
	ID         string    `json:"id"`
	Type       BlockType `json:"type"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Caption    string    `json:"caption,omitempty"`
	Deleted    bool      `json:"deleted,omitempty"`
	SectionID  string    `json:"section_id"`
	ColIndex   int       `json:"col_index"`
	RowIndex   int       `json:"row_index"`
	OrderIndex int       `json:"order_index"`
}

// AspectRatio returns height/width of the natural content, or 1 when the
// width is unknown.
func (b *Block) AspectRatio() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 1
	}
	return b.Height / b.Width
}

// Column is an ordered list of blocks; the row index of a block is its
// position in the slice.
type Column []*Block

// SectionColumns is the column-mode arrangement of one section.
//
// Values are treated as immutable once handed to a [Board]: every mutation
// builds new column slices, so a SectionColumns captured for undo stays
// valid after later edits.
type SectionColumns []Column

// Clone returns a copy with fresh column slices that share the blocks.
func (sc SectionColumns) Clone() SectionColumns {
	out := make(SectionColumns, len(sc))
	for i, col := range sc {
		out[i] = append(Column(nil), col...)
	}
	return out
}

// Find returns the column and row of the block with the given id.
func (sc SectionColumns) Find(id string) (col, row int, ok bool) {
	for c, column := range sc {
		for r, b := range column {
			if b.ID == id {
				return c, r, true
			}
		}
	}
	return -1, -1, false
}

// Len returns the number of blocks across all columns.
func (sc SectionColumns) Len() int {
	n := 0
	for _, col := range sc {
		n += len(col)
	}
	return n
}

// IDs returns block ids per column.
func (sc SectionColumns) IDs() [][]string {
	out := make([][]string, len(sc))
	for i, col := range sc {
		ids := make([]string, len(col))
		for j, b := range col {
			ids[j] = b.ID
		}
		out[i] = ids
	}
	return out
}

// Equal reports whether both arrangements hold the same blocks in the same
// slots.
func (sc SectionColumns) Equal(other SectionColumns) bool {
	if len(sc) != len(other) {
		return false
	}
	for i := range sc {
		if len(sc[i]) != len(other[i]) {
			return false
		}
		for j := range sc[i] {
			if sc[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// shortest returns the index of the column holding the fewest blocks,
// leftmost on ties.
func (sc SectionColumns) shortest() int {
	best := 0
	for i := 1; i < len(sc); i++ {
		if len(sc[i]) < len(sc[best]) {
			best = i
		}
	}
	return best
}

// Slot is a position in column mode.
type Slot struct {
	SectionID string `json:"section_id"`
	Col       int    `json:"col"`
	Row       int    `json:"row"`
}

// Section is a named group of blocks with its own column configuration and,
// optionally, an independent freeform canvas.
type Section struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Columns is the saved column count.
	Columns int `json:"columns"`

	// VisualColumns is a transient, unsaved column count previewed by the
	// user. Zero means "use Columns".
	VisualColumns int `json:"-"`

	layout SectionColumns
}

// ColumnCount returns the column count currently displayed.
func (s *Section) ColumnCount() int {
	if s.VisualColumns > 0 {
		return s.VisualColumns
	}
	return s.Columns
}

// Layout returns the section's current column arrangement. The result must
// not be modified.
func (s *Section) Layout() SectionColumns {
	return s.layout
}

// FreeformPosition is a block's transform on a section canvas.
type FreeformPosition struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     int     `json:"z"`
	Scale float64 `json:"scale"`
}

// DefaultPosition is used for blocks that have no stored position.
var DefaultPosition = FreeformPosition{Scale: 1}

// Camera is the pan/zoom transform of a section canvas. A world point w maps
// to screen point w*Scale + (X, Y).
type Camera struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// DefaultCamera is the identity transform.
var DefaultCamera = Camera{Scale: 1}

// Canvas is the freeform state of one section. It is independent of the
// column arrangement; both may exist at the same time.
type Canvas struct {
	Camera    Camera                      `json:"camera"`
	Positions map[string]FreeformPosition `json:"positions"`
	ZCounter  int                         `json:"z_counter"`
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}
