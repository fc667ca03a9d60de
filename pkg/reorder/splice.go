package reorder

import (
	"cmp"
	"slices"

	"github.com/matzehuels/refboard/pkg/board"
)

// Position is a column/row slot inside one section.
type Position struct {
	Col   int
	Index int
}

// Reorder moves the block at from to the insertion index to, both within
// cols. The insertion index counts the blocks of the destination column
// before the move; when a block moves down its own column the index is
// shifted by one to compensate for its removal.
//
// When the move leaves every block where it was (including an invalid from),
// Reorder returns cols itself.
func Reorder(cols board.SectionColumns, from, to Position) board.SectionColumns {
	if from.Col < 0 || from.Col >= len(cols) || from.Index < 0 || from.Index >= len(cols[from.Col]) {
		return cols
	}
	if to.Col < 0 || to.Col >= len(cols) {
		return cols
	}
	blk := cols[from.Col][from.Index]
	out := splice(cols, map[string]bool{blk.ID: true}, []*board.Block{blk}, &to)
	if out.Equal(cols) {
		return cols
	}
	return out
}

// splice removes every block in moving from cols and, when dst is set,
// inserts movers at dst. dst.Index is given against cols and is adjusted by
// the number of moving blocks removed above it in the same column.
func splice(cols board.SectionColumns, moving map[string]bool, movers []*board.Block, dst *Position) board.SectionColumns {
	out := make(board.SectionColumns, len(cols))
	shift := 0
	for c, col := range cols {
		next := make(board.Column, 0, len(col))
		for r, blk := range col {
			if moving[blk.ID] {
				if dst != nil && c == dst.Col && r < dst.Index {
					shift++
				}
				continue
			}
			next = append(next, blk)
		}
		out[c] = next
	}
	if dst == nil || dst.Col < 0 || dst.Col >= len(out) {
		return out
	}
	col := out[dst.Col]
	at := min(max(dst.Index-shift, 0), len(col))
	merged := make(board.Column, 0, len(col)+len(movers))
	merged = append(merged, col[:at]...)
	merged = append(merged, movers...)
	merged = append(merged, col[at:]...)
	out[dst.Col] = merged
	return out
}

// Plan is the outcome of moving a set of blocks to a slot.
type Plan struct {
	// Layouts maps each changed section to its new arrangement.
	Layouts map[string]board.SectionColumns
	// Moved are the blocks that move, in column order.
	Moved []*board.Block
	// Target is the destination slot.
	Target board.Slot
}

// Sections returns the ids of the changed sections in board order.
func (p *Plan) Sections(b *board.Board) []string {
	var out []string
	for _, s := range b.Sections() {
		if _, ok := p.Layouts[s.ID]; ok {
			out = append(out, s.ID)
		}
	}
	return out
}

type located struct {
	blk     *board.Block
	section int
	col     int
	row     int
}

// Compute plans moving the live blocks ids to the insertion slot to. Stale
// ids are ignored. It reports false when nothing would move: no live blocks,
// an invalid target, or a drop on the blocks' own slot.
func Compute(b *board.Board, ids []string, to board.Slot) (*Plan, bool) {
	dst, ok := b.Section(to.SectionID)
	if !ok || to.Col < 0 || to.Col >= len(dst.Layout()) {
		return nil, false
	}

	sectionIndex := make(map[string]int)
	for i, s := range b.Sections() {
		sectionIndex[s.ID] = i
	}

	var found []located
	seen := make(map[string]bool)
	for _, id := range ids {
		blk, ok := b.Block(id)
		if !ok || blk.Deleted || seen[id] {
			continue
		}
		s, ok := b.Section(blk.SectionID)
		if !ok {
			continue
		}
		c, r, ok := s.Layout().Find(id)
		if !ok {
			continue
		}
		seen[id] = true
		found = append(found, located{blk: blk, section: sectionIndex[s.ID], col: c, row: r})
	}
	if len(found) == 0 {
		return nil, false
	}
	slices.SortFunc(found, func(x, y located) int {
		return cmp.Or(cmp.Compare(x.section, y.section), cmp.Compare(x.col, y.col), cmp.Compare(x.row, y.row))
	})

	movers := make([]*board.Block, len(found))
	affected := map[string]bool{to.SectionID: true}
	for i, l := range found {
		movers[i] = l.blk
		affected[l.blk.SectionID] = true
	}

	plan := &Plan{Layouts: make(map[string]board.SectionColumns), Moved: movers, Target: to}
	for id := range affected {
		s, _ := b.Section(id)
		var pos *Position
		if id == to.SectionID {
			pos = &Position{Col: to.Col, Index: to.Row}
		}
		old := s.Layout()
		next := splice(old, seen, movers, pos)
		if !next.Equal(old) {
			plan.Layouts[id] = next
		}
	}
	if len(plan.Layouts) == 0 {
		return nil, false
	}
	return plan, true
}
