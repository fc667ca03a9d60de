package boardio

import (
	"cmp"
	"slices"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/errors"
)

// Version is the board file format version written by this package.
const Version = 1

// Document is the serialized form of a board.
type Document struct {
	Version  int       `json:"version"`
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Sections []Section `json:"sections"`
}

// Section is the serialized form of one section.
type Section struct {
	ID      string        `json:"id"`
	Name    string        `json:"name,omitempty"`
	Columns int           `json:"columns"`
	Blocks  []board.Block `json:"blocks"`
	Canvas  *board.Canvas `json:"canvas,omitempty"`
}

// Find returns the section with the given id.
func (d *Document) Find(sectionID string) (*Section, bool) {
	for i := range d.Sections {
		if d.Sections[i].ID == sectionID {
			return &d.Sections[i], true
		}
	}
	return nil, false
}

// FindBlock returns the block with the given id and the section holding it.
func (d *Document) FindBlock(id string) (*board.Block, *Section, bool) {
	for i := range d.Sections {
		s := &d.Sections[i]
		for j := range s.Blocks {
			if s.Blocks[j].ID == id {
				return &s.Blocks[j], s, true
			}
		}
	}
	return nil, nil, false
}

// FromBoard captures a board. Column and row indices are taken from the
// current column arrays; order indices are copied from the blocks.
func FromBoard(b *board.Board) *Document {
	doc := &Document{Version: Version, ID: b.ID, Name: b.Name}
	deleted := make(map[string][]board.Block)
	for _, blk := range b.Blocks() {
		if blk.Deleted {
			deleted[blk.SectionID] = append(deleted[blk.SectionID], *blk)
		}
	}

	for _, s := range b.Sections() {
		out := Section{ID: s.ID, Name: s.Name, Columns: s.Columns, Blocks: []board.Block{}}
		for c, col := range s.Layout() {
			for r, blk := range col {
				cp := *blk
				cp.SectionID = s.ID
				cp.ColIndex = c
				cp.RowIndex = r
				out.Blocks = append(out.Blocks, cp)
			}
		}
		out.Blocks = append(out.Blocks, deleted[s.ID]...)
		if cv, ok := b.Canvas(s.ID); ok && (len(cv.Positions) > 0 || cv.Camera != board.DefaultCamera) {
			out.Canvas = &cv
		}
		doc.Sections = append(doc.Sections, out)
	}
	return doc
}

// Board rebuilds a board from the document.
func (d *Document) Board() (*board.Board, error) {
	if d.Version > Version {
		return nil, errors.New(errors.ErrCodeUnsupported, "board file version %d is newer than supported version %d", d.Version, Version)
	}
	if d.ID != "" {
		if err := errors.ValidateID("board", d.ID); err != nil {
			return nil, err
		}
	}
	b := board.New(d.ID, d.Name)

	for _, sd := range d.Sections {
		if err := errors.ValidateID("section", sd.ID); err != nil {
			return nil, err
		}
		columns := max(sd.Columns, 1)

		type placed struct {
			blk *board.Block
			pos int
		}
		var live []placed
		var gone []*board.Block
		for i := range sd.Blocks {
			blk := sd.Blocks[i]
			if err := errors.ValidateID("block", blk.ID); err != nil {
				return nil, err
			}
			if blk.Type == "" {
				blk.Type = board.BlockImage
			}
			blk.SectionID = sd.ID
			if blk.Deleted {
				gone = append(gone, &blk)
				continue
			}
			blk.ColIndex = min(max(blk.ColIndex, 0), columns-1)
			live = append(live, placed{blk: &blk, pos: i})
		}
		slices.SortStableFunc(live, func(x, y placed) int {
			return cmp.Or(cmp.Compare(x.blk.ColIndex, y.blk.ColIndex), cmp.Compare(x.blk.RowIndex, y.blk.RowIndex))
		})

		layout := make(board.SectionColumns, columns)
		for _, p := range live {
			layout[p.blk.ColIndex] = append(layout[p.blk.ColIndex], p.blk)
		}
		if err := b.AddSection(&board.Section{ID: sd.ID, Name: sd.Name, Columns: columns}, layout); err != nil {
			return nil, err
		}
		b.Normalize(sd.ID)
		for _, blk := range gone {
			if err := b.Register(blk); err != nil {
				return nil, err
			}
		}
		if sd.Canvas != nil {
			b.RestoreCanvas(sd.ID, *sd.Canvas)
		}
	}
	return b, nil
}
