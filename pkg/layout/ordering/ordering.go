// Package ordering linearizes a masonry column arrangement into one reading
// order.
//
// Columns of unequal height have no natural row structure, so the order is
// produced by a sweep that approximates how the eye scans a staggered grid:
//
//  1. The leftmost column that still has an unvisited block supplies the
//     anchor (its first unvisited block). The anchor's vertical midpoint is
//     the sweep line.
//  2. Columns are swept left to right starting at the anchor's column. In
//     each, consecutive unvisited blocks whose top lies at or above the
//     sweep line are emitted; the first block below it stops that column.
//  3. Repeat until every block has been emitted.
//
// The result feeds the persisted order_index directly, so the rule and its
// tie-breaks (top == line is consumed, leftmost column wins) must not
// change. For a single column the order is the row order.
package ordering

import "github.com/matzehuels/refboard/pkg/layout"

// Linearize returns the ids of the positioned blocks in reading order.
func Linearize(cols [][]*layout.PositionedBlock) []string {
	var out []string
	sweep(cols, func(pb *layout.PositionedBlock) {
		out = append(out, pb.Block.ID)
	})
	return out
}

// Assign sets OrderIndex on every block of the projection, starting at 0,
// and returns the ids in reading order.
func Assign(proj *layout.Projection) []string {
	out := make([]string, 0, proj.Len())
	sweep(proj.Columns, func(pb *layout.PositionedBlock) {
		pb.OrderIndex = len(out)
		out = append(out, pb.Block.ID)
	})
	return out
}

func sweep(cols [][]*layout.PositionedBlock, emit func(*layout.PositionedBlock)) {
	next := make([]int, len(cols))
	remaining := 0
	for _, col := range cols {
		remaining += len(col)
	}

	for remaining > 0 {
		anchorCol := -1
		for c, col := range cols {
			if next[c] < len(col) {
				anchorCol = c
				break
			}
		}
		anchor := cols[anchorCol][next[anchorCol]]
		line := anchor.Mid()

		before := remaining
		for c := anchorCol; c < len(cols); c++ {
			col := cols[c]
			for next[c] < len(col) && col[next[c]].Top <= line {
				emit(col[next[c]])
				next[c]++
				remaining--
			}
		}
		if remaining == before {
			// A negative height puts the line above the anchor's own top.
			emit(anchor)
			next[anchorCol]++
			remaining--
		}
	}
}
