package boardio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/refboard/pkg/board"
)

// Encode writes a board document to w as indented JSON.
func Encode(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns the indented JSON encoding of a board document.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes a board as JSON and writes it to w.
// The output includes every section, every block (deleted ones too) and the
// freeform canvases. It can be re-imported with [ReadJSON].
func WriteJSON(b *board.Board, w io.Writer) error {
	return Encode(FromBoard(b), w)
}

// ExportJSON writes a board to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(b *board.Board, path string) error {
	return Save(FromBoard(b), path)
}

// Save writes a board document to path atomically.
func Save(doc *Document, path string) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// WriteFile replaces the file at path with data. The data is written to a
// temporary file in the same directory and renamed into place.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
