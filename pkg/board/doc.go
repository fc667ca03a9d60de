// Package board holds the reference-board data model and the [Board] state
// object that owns it.
//
// A board is a list of sections. Each section arranges its blocks in
// columns ([SectionColumns]) and, independently, keeps a freeform
// [Canvas] with a camera and sparse per-block positions. Both arrangements
// may exist at once; which one is shown is the caller's concern.
//
// # Mutation
//
// Every change goes through a named [Board] operation. Operations are
// copy-on-write on the column arrays, so a [SectionColumns] value captured
// before a change (for undo, or for a persistence snapshot) is never
// modified afterwards:
//
//	before := sec.Layout()
//	slot, _ := b.Detach("img-2")
//	b.Insert("img-2", board.Slot{SectionID: sec.ID, Col: 1, Row: 0})
//	// before still describes the old arrangement
//
// Operations that reference unknown ids report false (or an error for
// loaders) and leave the board untouched.
//
// # Observers
//
// [Board.Observe] registers callbacks that run after each mutation with the
// kind of change and the affected section. The engine uses them to mark
// sections dirty for persistence and to invalidate cached projections;
// [Board.Revision] gives a cheap staleness check for memoized results.
package board
