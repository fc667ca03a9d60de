// Package pkg provides the core libraries for refboard reference boards.
//
// # Overview
//
// A reference board is a list of sections, each holding image and text
// blocks. Every section has two presentations: a masonry of columns with a
// stable reading order, and a freeform canvas with a pan-and-zoom camera.
// The pkg directory is organized into four areas:
//
//  1. Model - [board] (blocks, sections, selection) and [boardio] (board files)
//  2. Layout - [layout] (column geometry) and [layout/ordering] (reading order)
//  3. Interaction - [gesture], [reorder], [canvas] and [history], tied
//     together by [engine]
//  4. Infrastructure - [persist], [cache], [config], [errors] and
//     [observability]
//
// # Architecture
//
// The typical data flow through refboard:
//
//	board.json / SQLite / MongoDB
//	         ↓
//	    [boardio] package (decode and validate)
//	         ↓
//	    [engine] package (projections, reading order, undo)
//	         ↓
//	    [reorder] / [canvas] gestures
//	         ↓
//	    [persist] Syncer (debounced writes of dirty sections)
//
// # Quick Start
//
// Load a board, move a block and save:
//
//	import (
//	    "github.com/matzehuels/refboard/pkg/board"
//	    "github.com/matzehuels/refboard/pkg/boardio"
//	    "github.com/matzehuels/refboard/pkg/engine"
//	)
//
//	b, _ := boardio.ImportJSON("board.json")
//	e := engine.New(b)
//
//	// Reading order of the first section
//	order := e.ReadingOrder(b.Sections()[0].ID)
//
//	// Move the first block to the top of column 1
//	e.Reorder().MoveTo(order[:1], board.Slot{SectionID: b.Sections()[0].ID, Col: 1})
//
//	_ = boardio.ExportJSON(e.Board(), "board.json")
//
// # Main Packages
//
// [board] - The board model. Sections own their column arrangement; blocks
// carry column, canvas and order fields. Every mutation bumps a revision and
// notifies an observer with the kind of change.
//
// [layout] - Masonry geometry: column width from the container width, gap
// and padding; block heights from their aspect ratios; cumulative tops.
//
// [layout/ordering] - The reading order linearizer. Blocks are visited top
// to bottom across the columns by the midpoint of the leftmost unvisited
// block.
//
// [reorder] - Drag and drop between column slots, including multi-block
// moves of the selection and programmatic moves for keyboards.
//
// [canvas] - Freeform placement: pan, cursor-anchored zoom, moves, single and
// group resize within bounds, fit to screen.
//
// [history] - The undo and redo stack shared by all of the above.
//
// [engine] - Owns a board, its stack and selection, and memoized
// projections. This is the entry point for user interfaces.
//
// [persist] - Store interface with file, SQLite, MongoDB and memory backends,
// and the Syncer that writes dirty sections in the background.
//
// [cache] - Layout and fit results keyed by board content, on disk or in
// Redis.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/layout/...    # Specific package
//	go test -run Example        # Examples only
//
// [board]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/board
// [boardio]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/boardio
// [layout]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/layout
// [layout/ordering]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/layout/ordering
// [gesture]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/gesture
// [reorder]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/reorder
// [canvas]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/canvas
// [history]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/history
// [engine]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/engine
// [persist]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/persist
// [cache]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/refboard/pkg/observability
package pkg
