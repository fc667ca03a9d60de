package engine

import "github.com/matzehuels/refboard/pkg/board"

// BlockView is the displayed geometry of one block in column mode.
type BlockView struct {
	ID      string          `json:"id"`
	Type    board.BlockType `json:"type"`
	Caption string          `json:"caption,omitempty"`
	Col     int             `json:"col"`
	Row     int             `json:"row"`
	Order   int             `json:"order"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
}

// SectionView is a serializable snapshot of a section projection. Blocks
// are listed in reading order.
type SectionView struct {
	SectionID   string      `json:"section_id"`
	Name        string      `json:"name,omitempty"`
	Columns     int         `json:"columns"`
	Preview     bool        `json:"preview,omitempty"`
	ColumnWidth float64     `json:"column_width"`
	Heights     []float64   `json:"heights"`
	Blocks      []BlockView `json:"blocks"`
}

// View returns the displayed layout of a section.
func (e *Engine) View(sectionID string) (*SectionView, bool) {
	s, ok := e.board.Section(sectionID)
	if !ok {
		return nil, false
	}
	proj := e.Projection(sectionID)
	v := &SectionView{
		SectionID:   s.ID,
		Name:        s.Name,
		Columns:     s.ColumnCount(),
		Preview:     s.VisualColumns > 0 && s.VisualColumns != s.Columns,
		ColumnWidth: proj.ColumnWidth,
		Heights:     append([]float64(nil), proj.Heights...),
		Blocks:      make([]BlockView, 0, proj.Len()),
	}
	for i, id := range e.ReadingOrder(sectionID) {
		pb, ok := proj.Lookup(id)
		if !ok {
			continue
		}
		v.Blocks = append(v.Blocks, BlockView{
			ID:      id,
			Type:    pb.Block.Type,
			Caption: pb.Block.Caption,
			Col:     pb.ColIndex,
			Row:     pb.RowIndex,
			Order:   i,
			X:       proj.Left(pb.ColIndex),
			Y:       pb.Top,
			Width:   proj.ColumnWidth,
			Height:  pb.Height,
		})
	}
	return v, true
}

// Views returns the layout of every section in board order.
func (e *Engine) Views() []*SectionView {
	sections := e.board.Sections()
	out := make([]*SectionView, 0, len(sections))
	for _, s := range sections {
		if v, ok := e.View(s.ID); ok {
			out = append(out, v)
		}
	}
	return out
}
