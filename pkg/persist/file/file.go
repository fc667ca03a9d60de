// Package file syncs board state into a board JSON file.
//
// The store keeps the decoded document in memory, patches it on every sync
// and rewrites the file atomically. It is the backend behind the CLI, where
// the board file is the only storage.
package file

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/persist"
)

var _ persist.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithOnWrite sets a callback that receives the bytes of every write, for
// example [boardio.Watcher.Record].
func WithOnWrite(fn func([]byte)) Option {
	return func(s *Store) { s.onWrite = fn }
}

// Store implements persist.Store on a board JSON file.
type Store struct {
	mu      sync.Mutex
	path    string
	doc     *boardio.Document
	onWrite func([]byte)
}

// Open loads the board file at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := errors.ValidateBoardPath(path); err != nil {
		return nil, err
	}
	doc, err := boardio.Load(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "board file %s", path)
		}
		return nil, err
	}
	return New(path, doc, opts...), nil
}

// New creates a store for doc that writes to path.
func New(path string, doc *boardio.Document, opts ...Option) *Store {
	s := &Store{path: path, doc: doc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the board file path.
func (s *Store) Path() string { return s.path }

// Board builds a board from the current document.
func (s *Store) Board() (*board.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Board()
}

// Reset replaces the in-memory document, as after an external change to
// the file. Nothing is written.
func (s *Store) Reset(doc *boardio.Document) {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

// SaveBoard replaces the document with a full capture of b and writes it.
func (s *Store) SaveBoard(ctx context.Context, b *board.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = boardio.FromBoard(b)
	return s.writeLocked()
}

// SyncColumnOrder writes the slots of every block in the snapshot. Blocks
// listed under another section are moved into this one.
func (s *Store) SyncColumnOrder(ctx context.Context, order persist.SectionOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.doc.Find(order.SectionID)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "section %q not found in %s", order.SectionID, s.path)
	}
	target.Columns = order.Columns

	for _, bo := range order.Blocks {
		blk, owner, ok := s.doc.FindBlock(bo.ID)
		if !ok {
			continue
		}
		if owner.ID != order.SectionID {
			moved := *blk
			owner.Blocks = slices.DeleteFunc(owner.Blocks, func(b board.Block) bool { return b.ID == bo.ID })
			moved.SectionID = order.SectionID
			target.Blocks = append(target.Blocks, moved)
			blk = &target.Blocks[len(target.Blocks)-1]
		}
		blk.ColIndex = bo.Col
		blk.RowIndex = bo.Row
		blk.OrderIndex = bo.Order
	}
	return s.writeLocked()
}

// SyncFreeformPositions replaces the positions of a section, keeping its
// camera.
func (s *Store) SyncFreeformPositions(ctx context.Context, sectionID string, positions map[string]board.FreeformPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec, ok := s.doc.Find(sectionID)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "section %q not found in %s", sectionID, s.path)
	}
	if sec.Canvas == nil {
		sec.Canvas = &board.Canvas{Camera: board.DefaultCamera}
	}
	sec.Canvas.Positions = make(map[string]board.FreeformPosition, len(positions))
	for id, p := range positions {
		sec.Canvas.Positions[id] = p
		sec.Canvas.ZCounter = max(sec.Canvas.ZCounter, p.Z)
	}
	return s.writeLocked()
}

// SetDeleted sets the soft-delete flag of the given blocks.
func (s *Store) SetDeleted(ctx context.Context, ids []string, deleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if blk, _, ok := s.doc.FindBlock(id); ok {
			blk.Deleted = deleted
		}
	}
	return s.writeLocked()
}

// Close is a no-op; every sync is written immediately.
func (s *Store) Close() error { return nil }

func (s *Store) writeLocked() error {
	data, err := boardio.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	if err := boardio.WriteFile(s.path, data); err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "write board file")
	}
	if s.onWrite != nil {
		s.onWrite(data)
	}
	return nil
}
