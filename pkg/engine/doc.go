// Package engine ties the board state, layout projections, gesture
// controllers, undo history and persistence together.
//
// An [Engine] owns one [board.Board] and everything derived from it:
//
//   - Column projections, memoized per section and recomputed whenever the
//     board revision or the layout parameters change
//   - The reading order of every section, and traversal across sections
//   - A [reorder.Controller] and a [canvas.Engine] sharing one undo stack,
//     one selection and one gesture bus
//   - Dirty notifications to a [persist.Tracker] after every committed
//     change, undo and redo included
//
// Usage:
//
//	eng := engine.New(b, engine.WithTracker(syncer))
//	proj := eng.Projection("s1")
//	order := eng.ReadingOrder("s1")
//	eng.Reorder().MoveTo([]string{"img-3"}, board.Slot{SectionID: "s1", Col: 1})
//	eng.Undo()
//
// Like the board it wraps, an Engine is single-threaded.
//
// [board.Board]: github.com/matzehuels/refboard/pkg/board.Board
// [reorder.Controller]: github.com/matzehuels/refboard/pkg/reorder.Controller
// [canvas.Engine]: github.com/matzehuels/refboard/pkg/canvas.Engine
// [persist.Tracker]: github.com/matzehuels/refboard/pkg/persist.Tracker
package engine
