package boardio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/refboard/pkg/board"
)

// Decode reads a board document from r without building a board. It is used
// by stores that patch the document in place.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = Version
	}
	return &doc, nil
}

// ReadJSON decodes a JSON board from r.
//
// The input must be a JSON object with a "sections" array; see the package
// documentation for the full format. Each section and block must have an
// "id" field. Optional block fields:
//   - type: "image" or "text" (defaults to "image")
//   - col_index, row_index: column-mode slot (default 0, clamped into range)
//   - order_index: reading-order index, as last computed
//   - deleted: soft-delete flag; deleted blocks take no slot
//
// ReadJSON returns an error if:
//   - The JSON is malformed
//   - The file version is newer than [Version]
//   - An id is empty, too long, or contains control characters
//   - A section or block id is duplicated
//
// The returned board is independent of r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*board.Board, error) {
	doc, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return doc.Board()
}

// ImportJSON reads a JSON board file at path.
//
// ImportJSON opens the file, decodes it using [ReadJSON], and closes the
// file. The error wraps the underlying cause with the file path for context.
func ImportJSON(path string) (*board.Board, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	b, err := doc.Board()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Load reads the board document at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
