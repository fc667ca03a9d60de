// Package reorder implements drag-and-drop reordering of blocks in column
// mode.
//
// A [Controller] runs one gesture at a time. [Controller.Start] fixes the
// moving set and snapshots block rectangles from the [GeometryProvider];
// pointer samples then classify the element under the pointer:
//
//   - an insertion gap drops at that exact index
//   - the empty area of a column appends to that column
//   - another block drops before or after it, depending on which side of
//     its cached vertical midpoint the pointer is
//   - a section header appends to the section's shortest column (by pixel
//     height, leftmost on ties)
//
// Dropping the moving blocks on themselves, or on an unknown element, ends
// the gesture without a change. Committed moves run as one
// [history.Action], so a single undo restores every affected section.
//
// [Reorder] is the single-block splice on its own:
//
//	cols := board.SectionColumns{{b1, b2, b3}, {b4, b5}}
//	next := reorder.Reorder(cols, reorder.Position{Col: 0, Index: 1}, reorder.Position{Col: 1, Index: 1})
//	// next: {{b1, b3}, {b4, b2, b5}}
//
// [history.Action]: github.com/matzehuels/refboard/pkg/history.Action
package reorder
