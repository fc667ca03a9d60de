package board

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/refboard/pkg/errors"
)

// ChangeKind classifies a board mutation for observers.
type ChangeKind int

const (
	// ChangeColumns: a section's column arrangement or membership changed.
	ChangeColumns ChangeKind = iota + 1
	// ChangeBlocks: block flags (deletion) changed.
	ChangeBlocks
	// ChangeFreeform: block positions on a section canvas changed.
	ChangeFreeform
	// ChangeCamera: a section camera moved. Cameras are view state and are
	// not persisted.
	ChangeCamera
	// ChangeSections: sections were added or their column count changed.
	ChangeSections
)

// Change describes one mutation.
type Change struct {
	Kind      ChangeKind
	SectionID string
}

// Board is the explicit state object of the engine. All mutation goes
// through its named operations, which bump [Board.Revision] and notify
// observers; derived geometry is recomputed from it, never patched.
//
// A Board is not safe for concurrent use.
type Board struct {
	ID   string
	Name string

	sections  []*Section
	sectionBy map[string]*Section
	blocks    map[string]*Block
	canvases  map[string]*Canvas

	revision  uint64
	observers []func(Change)
}

// New creates an empty board.
func New(id, name string) *Board {
	if id == "" {
		id = NewID()
	}
	return &Board{
		ID:        id,
		Name:      name,
		sectionBy: make(map[string]*Section),
		blocks:    make(map[string]*Block),
		canvases:  make(map[string]*Canvas),
	}
}

// Observe registers fn to be called after every mutation.
func (b *Board) Observe(fn func(Change)) {
	b.observers = append(b.observers, fn)
}

// Revision returns a counter incremented by every mutation.
func (b *Board) Revision() uint64 {
	return b.revision
}

func (b *Board) notify(kind ChangeKind, sectionID string) {
	b.revision++
	for _, fn := range b.observers {
		fn(Change{Kind: kind, SectionID: sectionID})
	}
}

// =============================================================================
// Sections
// =============================================================================

// AddSection registers a section. A section without a layout gets
// Columns empty columns; Columns defaults to 1.
func (b *Board) AddSection(s *Section, layout SectionColumns) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	if _, ok := b.sectionBy[s.ID]; ok {
		return errors.New(errors.ErrCodeInvalidBoard, "duplicate section id %q", s.ID)
	}
	if s.Columns < 1 {
		s.Columns = max(1, len(layout))
	}
	if len(layout) == 0 {
		layout = make(SectionColumns, s.Columns)
	}
	if len(layout) != s.Columns {
		return errors.New(errors.ErrCodeInvalidBoard, "section %q has %d columns but %d column arrays", s.ID, s.Columns, len(layout))
	}
	seen := make(map[string]bool, layout.Len())
	for _, col := range layout {
		for _, blk := range col {
			if existing, ok := b.blocks[blk.ID]; (ok && existing != blk) || seen[blk.ID] {
				return errors.New(errors.ErrCodeInvalidBoard, "duplicate block id %q", blk.ID)
			}
			seen[blk.ID] = true
		}
	}
	for _, col := range layout {
		for _, blk := range col {
			blk.SectionID = s.ID
			b.blocks[blk.ID] = blk
		}
	}
	s.layout = layout.Clone()
	b.sections = append(b.sections, s)
	b.sectionBy[s.ID] = s
	b.notify(ChangeSections, s.ID)
	return nil
}

// Section returns the section with the given id.
func (b *Board) Section(id string) (*Section, bool) {
	s, ok := b.sectionBy[id]
	return s, ok
}

// Sections returns the sections in display order.
func (b *Board) Sections() []*Section {
	return append([]*Section(nil), b.sections...)
}

// SetVisualColumns sets the transient column count of a section.
func (b *Board) SetVisualColumns(sectionID string, n int) bool {
	s, ok := b.sectionBy[sectionID]
	if !ok || n < 0 {
		return false
	}
	if s.VisualColumns == n {
		return true
	}
	s.VisualColumns = n
	b.notify(ChangeSections, sectionID)
	return true
}

// SetColumnCount rebuilds a section with n columns, dealing its blocks
// round-robin in the given order (normally the reading order). Blocks of the
// section missing from order keep their relative order after the listed
// ones. The transient visual count is reset.
func (b *Board) SetColumnCount(sectionID string, n int, order []string) bool {
	s, ok := b.sectionBy[sectionID]
	if !ok || n < 1 {
		return false
	}
	seen := make(map[string]bool, len(order))
	var seq []*Block
	for _, id := range order {
		if _, _, ok := s.layout.Find(id); ok && !seen[id] {
			seen[id] = true
			seq = append(seq, b.blocks[id])
		}
	}
	for _, col := range s.layout {
		for _, blk := range col {
			if !seen[blk.ID] {
				seen[blk.ID] = true
				seq = append(seq, blk)
			}
		}
	}
	cols := make(SectionColumns, n)
	for i, blk := range seq {
		cols[i%n] = append(cols[i%n], blk)
	}
	s.Columns = n
	s.VisualColumns = 0
	s.layout = cols
	b.notify(ChangeColumns, sectionID)
	return true
}

// =============================================================================
// Blocks
// =============================================================================

// AddBlock appends a block to the column of the section holding the fewest
// blocks (leftmost on ties).
func (b *Board) AddBlock(sectionID string, blk *Block) error {
	s, ok := b.sectionBy[sectionID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "section %q not found", sectionID)
	}
	if blk.ID == "" {
		blk.ID = NewID()
	}
	if _, ok := b.blocks[blk.ID]; ok {
		return errors.New(errors.ErrCodeInvalidBoard, "duplicate block id %q", blk.ID)
	}
	blk.SectionID = sectionID
	blk.Deleted = false
	b.blocks[blk.ID] = blk

	cols := s.layout.Clone()
	c := cols.shortest()
	cols[c] = append(cols[c], blk)
	s.layout = cols
	b.notify(ChangeColumns, sectionID)
	return nil
}

// Register adds a block without placing it in any column, as for deleted
// blocks read back from storage.
func (b *Board) Register(blk *Block) error {
	if _, ok := b.sectionBy[blk.SectionID]; !ok {
		return errors.New(errors.ErrCodeNotFound, "section %q not found", blk.SectionID)
	}
	if _, ok := b.blocks[blk.ID]; ok {
		return errors.New(errors.ErrCodeInvalidBoard, "duplicate block id %q", blk.ID)
	}
	b.blocks[blk.ID] = blk
	b.notify(ChangeBlocks, blk.SectionID)
	return nil
}

// Blocks returns every known block, deleted ones included, sorted by id.
func (b *Board) Blocks() []*Block {
	out := make([]*Block, 0, len(b.blocks))
	for _, blk := range b.blocks {
		out = append(out, blk)
	}
	slices.SortFunc(out, func(x, y *Block) int { return strings.Compare(x.ID, y.ID) })
	return out
}

// Block returns the block with the given id, deleted or not.
func (b *Board) Block(id string) (*Block, bool) {
	blk, ok := b.blocks[id]
	return blk, ok
}

// Live reports whether id names a block that exists and is not deleted.
func (b *Board) Live(id string) bool {
	blk, ok := b.blocks[id]
	return ok && !blk.Deleted
}

// SectionBlocks returns the live blocks of a section in column order.
func (b *Board) SectionBlocks(sectionID string) []*Block {
	s, ok := b.sectionBy[sectionID]
	if !ok {
		return nil
	}
	var out []*Block
	for _, col := range s.layout {
		for _, blk := range col {
			if !blk.Deleted {
				out = append(out, blk)
			}
		}
	}
	return out
}

// SetLayout replaces the column arrangement of a section. Every block in
// cols must already be known to the board.
func (b *Board) SetLayout(sectionID string, cols SectionColumns) bool {
	s, ok := b.sectionBy[sectionID]
	if !ok {
		return false
	}
	for _, col := range cols {
		for _, blk := range col {
			if _, ok := b.blocks[blk.ID]; !ok {
				return false
			}
		}
	}
	s.layout = cols
	if len(cols) > 0 && s.VisualColumns == 0 {
		s.Columns = len(cols)
	}
	b.notify(ChangeColumns, sectionID)
	return true
}

// SetBlockSection changes the owning section of a block.
func (b *Board) SetBlockSection(id, sectionID string) bool {
	blk, ok := b.blocks[id]
	if !ok {
		return false
	}
	if _, ok := b.sectionBy[sectionID]; !ok {
		return false
	}
	blk.SectionID = sectionID
	return true
}

// Detach removes a block from its column and returns the slot it occupied.
func (b *Board) Detach(id string) (Slot, bool) {
	blk, ok := b.blocks[id]
	if !ok {
		return Slot{}, false
	}
	s, ok := b.sectionBy[blk.SectionID]
	if !ok {
		return Slot{}, false
	}
	c, r, ok := s.layout.Find(id)
	if !ok {
		return Slot{}, false
	}
	cols := s.layout.Clone()
	cols[c] = append(cols[c][:r:r], cols[c][r+1:]...)
	s.layout = cols
	b.notify(ChangeColumns, s.ID)
	return Slot{SectionID: s.ID, Col: c, Row: r}, true
}

// Insert places a known, detached block at slot. The row is clamped into
// the column; an unknown section or column index is rejected.
func (b *Board) Insert(id string, slot Slot) bool {
	blk, ok := b.blocks[id]
	if !ok {
		return false
	}
	s, ok := b.sectionBy[slot.SectionID]
	if !ok || slot.Col < 0 || slot.Col >= len(s.layout) {
		return false
	}
	if _, _, found := s.layout.Find(id); found {
		return false
	}
	row := min(max(slot.Row, 0), len(s.layout[slot.Col]))
	cols := s.layout.Clone()
	col := cols[slot.Col]
	col = append(col[:row:row], append(Column{blk}, col[row:]...)...)
	cols[slot.Col] = col
	blk.SectionID = s.ID
	s.layout = cols
	b.notify(ChangeColumns, s.ID)
	return true
}

// SetDeleted flips the deleted flag of a block.
func (b *Board) SetDeleted(id string, deleted bool) bool {
	blk, ok := b.blocks[id]
	if !ok {
		return false
	}
	if blk.Deleted == deleted {
		return true
	}
	blk.Deleted = deleted
	b.notify(ChangeBlocks, blk.SectionID)
	return true
}

// Normalize writes ColIndex and RowIndex of every block in a section from
// its array position.
func (b *Board) Normalize(sectionID string) {
	s, ok := b.sectionBy[sectionID]
	if !ok {
		return
	}
	for c, col := range s.layout {
		for r, blk := range col {
			blk.ColIndex = c
			blk.RowIndex = r
		}
	}
}

// SetOrderIndex records the reading-order index of a block.
func (b *Board) SetOrderIndex(id string, idx int) {
	if blk, ok := b.blocks[id]; ok {
		blk.OrderIndex = idx
	}
}

// =============================================================================
// Canvas
// =============================================================================

func (b *Board) canvas(sectionID string) (*Canvas, bool) {
	if _, ok := b.sectionBy[sectionID]; !ok {
		return nil, false
	}
	cv, ok := b.canvases[sectionID]
	if !ok {
		cv = &Canvas{Camera: DefaultCamera, Positions: make(map[string]FreeformPosition)}
		b.canvases[sectionID] = cv
	}
	return cv, true
}

// Camera returns the camera of a section canvas.
func (b *Board) Camera(sectionID string) Camera {
	cv, ok := b.canvas(sectionID)
	if !ok {
		return DefaultCamera
	}
	return cv.Camera
}

// SetCamera replaces the camera of a section canvas.
func (b *Board) SetCamera(sectionID string, cam Camera) bool {
	cv, ok := b.canvas(sectionID)
	if !ok {
		return false
	}
	cv.Camera = cam
	b.notify(ChangeCamera, sectionID)
	return true
}

// Position returns the freeform position of a block, or DefaultPosition.
func (b *Board) Position(sectionID, blockID string) FreeformPosition {
	cv, ok := b.canvas(sectionID)
	if !ok {
		return DefaultPosition
	}
	if p, ok := cv.Positions[blockID]; ok {
		return p
	}
	return DefaultPosition
}

// HasPosition reports whether a block has a stored freeform position.
func (b *Board) HasPosition(sectionID, blockID string) bool {
	cv, ok := b.canvas(sectionID)
	if !ok {
		return false
	}
	_, ok = cv.Positions[blockID]
	return ok
}

// SetPosition stores the freeform position of one block.
func (b *Board) SetPosition(sectionID, blockID string, p FreeformPosition) bool {
	return b.SetPositions(sectionID, map[string]FreeformPosition{blockID: p})
}

// SetPositions stores several block positions as one mutation. Unknown
// blocks are skipped.
func (b *Board) SetPositions(sectionID string, positions map[string]FreeformPosition) bool {
	cv, ok := b.canvas(sectionID)
	if !ok {
		return false
	}
	for id, p := range positions {
		if _, known := b.blocks[id]; !known {
			continue
		}
		cv.Positions[id] = p
		if p.Z > cv.ZCounter {
			cv.ZCounter = p.Z
		}
	}
	b.notify(ChangeFreeform, sectionID)
	return true
}

// Positions returns a copy of the stored positions of a section canvas.
func (b *Board) Positions(sectionID string) map[string]FreeformPosition {
	cv, ok := b.canvas(sectionID)
	if !ok {
		return nil
	}
	return maps.Clone(cv.Positions)
}

// Canvas returns a copy of the freeform state of a section.
func (b *Board) Canvas(sectionID string) (Canvas, bool) {
	cv, ok := b.canvas(sectionID)
	if !ok {
		return Canvas{}, false
	}
	return Canvas{Camera: cv.Camera, Positions: maps.Clone(cv.Positions), ZCounter: cv.ZCounter}, true
}

// RestoreCanvas replaces the freeform state of a section, as when loading a
// board file.
func (b *Board) RestoreCanvas(sectionID string, cv Canvas) bool {
	if _, ok := b.sectionBy[sectionID]; !ok {
		return false
	}
	if cv.Camera.Scale <= 0 {
		cv.Camera = DefaultCamera
	}
	positions := make(map[string]FreeformPosition, len(cv.Positions))
	for id, p := range cv.Positions {
		if _, known := b.blocks[id]; !known {
			continue
		}
		if p.Scale <= 0 {
			p.Scale = 1
		}
		positions[id] = p
		cv.ZCounter = max(cv.ZCounter, p.Z)
	}
	b.canvases[sectionID] = &Canvas{Camera: cv.Camera, Positions: positions, ZCounter: cv.ZCounter}
	b.notify(ChangeFreeform, sectionID)
	return true
}

// NextZ advances and returns the section's z-order counter.
func (b *Board) NextZ(sectionID string) int {
	cv, ok := b.canvas(sectionID)
	if !ok {
		return 0
	}
	cv.ZCounter++
	return cv.ZCounter
}

// ZCounter returns the current top of the section's z-order.
func (b *Board) ZCounter(sectionID string) int {
	cv, ok := b.canvas(sectionID)
	if !ok {
		return 0
	}
	return cv.ZCounter
}
