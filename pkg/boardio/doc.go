// Package boardio provides JSON import and export for reference boards.
//
// # Overview
//
// A board file holds everything needed to rebuild a [board.Board]: its
// sections, their blocks with persisted position keys, and each section's
// freeform canvas. The format is designed for:
//
//   - Hand-editing and diffing (indented, stable key order)
//   - Round-trip preservation: import, rearrange, export, re-import identically
//   - Serving as the simplest persistence backend (see persist/file)
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "id": "b1",
//	  "name": "Moodboard",
//	  "sections": [
//	    {
//	      "id": "s1",
//	      "name": "Interiors",
//	      "columns": 3,
//	      "blocks": [
//	        {"id": "img-1", "type": "image", "width": 1200, "height": 800,
//	         "col_index": 0, "row_index": 0, "order_index": 0},
//	        {"id": "txt-1", "type": "text", "width": 300, "height": 120,
//	         "caption": "palette", "col_index": 1, "row_index": 0, "order_index": 1}
//	      ],
//	      "canvas": {
//	        "camera": {"x": 0, "y": 0, "scale": 1},
//	        "positions": {"img-1": {"x": 40, "y": 60, "z": 2, "scale": 0.5}},
//	        "z_counter": 2
//	      }
//	    }
//	  ]
//	}
//
// # Block Placement
//
// Live blocks are placed by col_index, then row_index; ties keep file order.
// A col_index outside [0, columns) is clamped into range, so a file edited
// down to fewer columns still loads. Deleted blocks (deleted: true) are kept
// but take no slot.
//
// # Import
//
// Use [ImportJSON] to read a board from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	b, err := boardio.ImportJSON("board.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both validate identifiers and reject duplicate section or block ids with
// an INVALID_BOARD error.
//
// # Export
//
// Use [ExportJSON] to write a board to a file, or [WriteJSON] to write to any
// io.Writer. ExportJSON writes to a temporary file and renames it into
// place, so readers never see a partial board.
//
// # Watching
//
// [Watch] reports external changes to a board file, coalescing the bursts
// of events editors produce on save.
//
// [board.Board]: github.com/matzehuels/refboard/pkg/board.Board
package boardio
