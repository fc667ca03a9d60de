// Package layout computes masonry column geometry for board sections.
//
// A section's blocks sit in fixed-width vertical columns; each block's
// height follows from the column width and its natural aspect ratio. The
// result is a [Projection]: one [PositionedBlock] per live block, with the
// pixel top and height inside its column.
//
// # Column Width
//
// [ColumnWidth] derives the width of one column from the container:
//
//	chrome    = scrollbar + spacing*columns + gallery padding   (x2 when split)
//	available = container - sidebar - chrome
//	column    = available / views / columns
//
// where views is 2 when a mirrored secondary view is open.
//
// # Heights
//
// Image blocks take columnWidth * naturalHeight/naturalWidth; text blocks
// keep their measured height. Either kind gains [Params.CaptionHeight] when
// it has a caption. Blocks stack from the column top with
// [Params.Spacing] between them:
//
//	top(i) = sum over j < i of (height(j) + spacing)
//
// Deleted blocks take no slot.
//
// Everything here is a pure function of its inputs. Projections are
// rebuilt on change, never patched; see the engine package for the memo.
package layout
