package layout

import "github.com/matzehuels/refboard/pkg/board"

// PositionedBlock is a block with its computed column geometry.
// All coordinates are in pixels relative to the section's gallery origin.
type PositionedBlock struct {
	Block      *board.Block
	SectionID  string
	ColIndex   int
	RowIndex   int
	OrderIndex int
	Top        float64
	Height     float64
}

// Bottom returns the lower edge of the block.
func (pb *PositionedBlock) Bottom() float64 { return pb.Top + pb.Height }

// Mid returns the vertical midpoint of the block.
func (pb *PositionedBlock) Mid() float64 { return pb.Top + pb.Height/2 }

// Projection is the computed geometry of one section.
type Projection struct {
	SectionID   string
	ColumnWidth float64
	Spacing     float64

	// Columns holds the positioned blocks of each column, top to bottom.
	Columns [][]*PositionedBlock

	// Heights is the total stacked height of each column, trailing
	// spacing included.
	Heights []float64

	byID map[string]*PositionedBlock
}

// Lookup returns the positioned block with the given id.
func (p *Projection) Lookup(id string) (*PositionedBlock, bool) {
	pb, ok := p.byID[id]
	return pb, ok
}

// Len returns the number of positioned blocks.
func (p *Projection) Len() int { return len(p.byID) }

// Left returns the x offset of a column.
func (p *Projection) Left(col int) float64 {
	return float64(col) * (p.ColumnWidth + p.Spacing)
}

// ShortestColumn returns the index of the column with the least stacked
// height, leftmost on ties, or -1 for a projection without columns.
func (p *Projection) ShortestColumn() int {
	best := -1
	for i, h := range p.Heights {
		if best < 0 || h < p.Heights[best] {
			best = i
		}
	}
	return best
}

// BlockHeight returns the rendered height of a block in a column of the
// given width.
func BlockHeight(b *board.Block, columnWidth float64, p Params) float64 {
	var h float64
	switch b.Type {
	case board.BlockText:
		h = b.Height
	default:
		h = columnWidth * b.AspectRatio()
	}
	if b.Caption != "" {
		h += p.CaptionHeight
	}
	return h
}

// Compute positions the live blocks of cols. OrderIndex is left at zero;
// the ordering package assigns it.
func Compute(sectionID string, cols board.SectionColumns, columnWidth float64, p Params) *Projection {
	proj := &Projection{
		SectionID:   sectionID,
		ColumnWidth: columnWidth,
		Spacing:     p.Spacing,
		Columns:     make([][]*PositionedBlock, len(cols)),
		Heights:     make([]float64, len(cols)),
		byID:        make(map[string]*PositionedBlock, cols.Len()),
	}
	for c, col := range cols {
		var cursor float64
		row := 0
		for _, b := range col {
			if b.Deleted {
				continue
			}
			h := BlockHeight(b, columnWidth, p)
			pb := &PositionedBlock{
				Block:     b,
				SectionID: sectionID,
				ColIndex:  c,
				RowIndex:  row,
				Top:       cursor,
				Height:    h,
			}
			proj.Columns[c] = append(proj.Columns[c], pb)
			proj.byID[b.ID] = pb
			cursor += h + p.Spacing
			row++
		}
		proj.Heights[c] = cursor
	}
	return proj
}

// ComputeSection positions a section's saved arrangement using the column
// width for its column count.
func ComputeSection(s *board.Section, p Params) *Projection {
	cols := s.Layout()
	return Compute(s.ID, cols, ColumnWidth(p, len(cols)), p)
}
