// Package persist defines the persistence collaborator of the board engine
// and the debounced [Syncer] that feeds it.
//
// The engine never waits on storage. Every committed change marks the
// affected section dirty and hands the Syncer an immutable snapshot; the
// Syncer coalesces snapshots, writes them on its own goroutine, and keeps
// anything that failed queued for the next flush. Local state is never
// rolled back.
//
// Backends live in subpackages: persist/sqlite, persist/mongo and
// persist/file. [MemoryStore] is an in-process store for tests and dry runs.
package persist

import (
	"context"

	"github.com/matzehuels/refboard/pkg/board"
)

// BlockOrder is the persisted column-mode position of one block.
type BlockOrder struct {
	ID    string `json:"id" bson:"_id"`
	Col   int    `json:"col_index" bson:"col_index"`
	Row   int    `json:"row_index" bson:"row_index"`
	Order int    `json:"order_index" bson:"order_index"`
}

// SectionOrder is a snapshot of a section's column arrangement.
type SectionOrder struct {
	SectionID string       `json:"section_id"`
	Columns   int          `json:"columns"`
	Blocks    []BlockOrder `json:"blocks"`
}

// ColumnSnapshot captures the column arrangement of s. Column and row come
// from the array position; the order index is the one last committed to the
// block.
func ColumnSnapshot(s *board.Section) SectionOrder {
	out := SectionOrder{SectionID: s.ID, Columns: s.Columns}
	for c, col := range s.Layout() {
		for r, blk := range col {
			out.Blocks = append(out.Blocks, BlockOrder{ID: blk.ID, Col: c, Row: r, Order: blk.OrderIndex})
		}
	}
	return out
}

// Store is the persistence collaborator. Implementations must be safe for
// use from the Syncer goroutine while the engine keeps running.
type Store interface {
	// SyncColumnOrder writes the column, row and order index of every block
	// in the snapshot, and the section's column count.
	SyncColumnOrder(ctx context.Context, order SectionOrder) error

	// SyncFreeformPositions writes the freeform positions of a section.
	SyncFreeformPositions(ctx context.Context, sectionID string, positions map[string]board.FreeformPosition) error

	// SetDeleted sets the soft-delete flag of the given blocks.
	SetDeleted(ctx context.Context, ids []string, deleted bool) error

	// Close releases the store's resources.
	Close() error
}

// Tracker receives dirty notifications from the engine.
type Tracker interface {
	MarkColumns(order SectionOrder)
	MarkFreeform(sectionID string, positions map[string]board.FreeformPosition)
	MarkDeleted(ids []string, deleted bool)
}
