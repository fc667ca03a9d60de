package reorder

import (
	"fmt"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/history"
)

// moveAction applies a [Plan] and restores the captured arrangements on
// undo. Column values are immutable once handed to the board, so keeping
// references is enough.
type moveAction struct {
	b        *board.Board
	label    string
	order    []string
	before   map[string]board.SectionColumns
	after    map[string]board.SectionColumns
	owners   map[string]string
	moved    []string
	targetID string
}

func newMoveAction(b *board.Board, p *Plan) *moveAction {
	a := &moveAction{
		b:        b,
		order:    p.Sections(b),
		before:   make(map[string]board.SectionColumns, len(p.Layouts)),
		after:    p.Layouts,
		owners:   make(map[string]string, len(p.Moved)),
		targetID: p.Target.SectionID,
	}
	for _, id := range a.order {
		s, _ := b.Section(id)
		a.before[id] = s.Layout()
	}
	for _, blk := range p.Moved {
		a.owners[blk.ID] = blk.SectionID
		a.moved = append(a.moved, blk.ID)
	}
	if len(p.Moved) == 1 {
		a.label = "Move block"
	} else {
		a.label = fmt.Sprintf("Move %d blocks", len(p.Moved))
	}
	return a
}

func (a *moveAction) Label() string { return a.label }

func (a *moveAction) Do() {
	for _, id := range a.moved {
		a.b.SetBlockSection(id, a.targetID)
	}
	for _, sid := range a.order {
		a.b.SetLayout(sid, a.after[sid])
	}
}

func (a *moveAction) Undo() {
	for _, id := range a.moved {
		a.b.SetBlockSection(id, a.owners[id])
	}
	for _, sid := range a.order {
		a.b.SetLayout(sid, a.before[sid])
	}
}

var _ history.Action = (*moveAction)(nil)
