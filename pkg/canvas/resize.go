package canvas

import (
	"fmt"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/gesture"
)

// Handle is one of the eight resize handles of a block or selection.
type Handle int

const (
	HandleN Handle = iota
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
	HandleNW
)

var handleNames = [...]string{"n", "ne", "e", "se", "s", "sw", "w", "nw"}

func (h Handle) String() string {
	if h < 0 || int(h) >= len(handleNames) {
		return "unknown"
	}
	return handleNames[h]
}

// ParseHandle parses a handle name such as "se".
func ParseHandle(s string) (Handle, bool) {
	for i, name := range handleNames {
		if name == s {
			return Handle(i), true
		}
	}
	return 0, false
}

// IsCorner reports whether h is a corner handle.
func (h Handle) IsCorner() bool {
	sx, sy := h.Signs()
	return sx != 0 && sy != 0
}

// Signs returns the growth direction of each axis for a positive pointer
// delta: +1 when the handle is on the east (south) edge, -1 on the west
// (north) edge and 0 when the axis is not affected.
func (h Handle) Signs() (sx, sy float64) {
	switch h {
	case HandleN:
		return 0, -1
	case HandleNE:
		return 1, -1
	case HandleE:
		return 1, 0
	case HandleSE:
		return 1, 1
	case HandleS:
		return 0, 1
	case HandleSW:
		return -1, 1
	case HandleW:
		return -1, 0
	case HandleNW:
		return -1, -1
	}
	return 0, 0
}

// Resize computes the position of a block of base size (bw, bh) at p
// after dragging handle by the world delta (dx, dy). Corner handles
// average the two per-axis scale changes and keep the opposite corner in
// place; side handles scale along their axis, keep the opposite edge and
// re-center the other axis. It reports false when the result breaks the
// bounds.
func Resize(p board.FreeformPosition, bw, bh float64, h Handle, dx, dy float64, bd Bounds) (board.FreeformPosition, bool) {
	sx, sy := h.Signs()
	w0, h0 := bw*p.Scale, bh*p.Scale

	var scale float64
	switch {
	case sx != 0 && sy != 0:
		scaleX := (w0 + sx*dx) / bw
		scaleY := (h0 + sy*dy) / bh
		scale = p.Scale + ((scaleX-p.Scale)+(scaleY-p.Scale))/2
	case sx != 0:
		scale = (w0 + sx*dx) / bw
	case sy != 0:
		scale = (h0 + sy*dy) / bh
	default:
		return p, false
	}
	if !bd.Allows(bw, bh, scale) {
		return p, false
	}

	w1, h1 := bw*scale, bh*scale
	out := p
	out.Scale = scale
	switch {
	case sx < 0:
		out.X = p.X + (w0 - w1)
	case sx == 0:
		out.X = p.X + (w0-w1)/2
	}
	switch {
	case sy < 0:
		out.Y = p.Y + (h0 - h1)
	case sy == 0:
		out.Y = p.Y + (h0-h1)/2
	}
	return out, true
}

// BeginResize starts resizing one block from a handle.
func (e *Engine) BeginResize(sectionID, blockID string, h Handle, origin gesture.Point) bool {
	if e.active != nil || !e.inSection(sectionID, blockID) {
		return false
	}
	blk, _ := e.board.Block(blockID)
	bw, bh := e.bounds.BaseSize(blk)
	p0 := e.board.Position(sectionID, blockID)

	e.begin(&active{
		kind:    "resize",
		section: sectionID,
		origin:  origin,
		before:  map[string]board.FreeformPosition{blockID: p0},
		label:   "Resize block",
		update: func(d gesture.Point) bool {
			scale := e.board.Camera(sectionID).Scale
			p, ok := Resize(p0, bw, bh, h, d.X/scale, d.Y/scale, e.bounds)
			if !ok {
				return false
			}
			e.board.SetPosition(sectionID, blockID, p)
			return true
		},
		cancel: func() { e.board.SetPosition(sectionID, blockID, p0) },
	})
	return true
}

// Member is one block of a group resize: its id, base size and position.
type Member struct {
	ID           string
	BaseW, BaseH float64
	Pos          board.FreeformPosition
}

// GroupResize computes new positions for members whose union rectangle is
// box after dragging the corner handle h by the world delta (dx, dy). The
// group scales uniformly by the smaller of the two axis ratios, anchored
// at the opposite corner, and every member keeps its relative offset in
// the box. When any member would break the bounds nothing is returned.
func GroupResize(members []Member, box gesture.Rect, h Handle, dx, dy float64, bd Bounds) (map[string]board.FreeformPosition, bool) {
	sx, sy := h.Signs()
	if sx == 0 || sy == 0 || box.W <= 0 || box.H <= 0 {
		return nil, false
	}
	ratio := min((box.W+sx*dx)/box.W, (box.H+sy*dy)/box.H)
	if ratio <= 0 {
		return nil, false
	}
	for _, m := range members {
		if !bd.Allows(m.BaseW, m.BaseH, m.Pos.Scale*ratio) {
			return nil, false
		}
	}

	w, hh := box.W*ratio, box.H*ratio
	x, y := box.X, box.Y
	if sx < 0 {
		x = box.Right() - w
	}
	if sy < 0 {
		y = box.Bottom() - hh
	}

	out := make(map[string]board.FreeformPosition, len(members))
	for _, m := range members {
		p := m.Pos
		p.X = x + (m.Pos.X-box.X)/box.W*w
		p.Y = y + (m.Pos.Y-box.Y)/box.H*hh
		p.Scale = m.Pos.Scale * ratio
		out[m.ID] = p
	}
	return out, true
}

// BeginGroupResize starts resizing the selected blocks of a section from a
// corner of their union rectangle. Side handles are not supported for
// groups.
func (e *Engine) BeginGroupResize(sectionID string, h Handle, origin gesture.Point) bool {
	if e.active != nil || !h.IsCorner() || e.sel == nil {
		return false
	}
	var members []Member
	var box gesture.Rect
	before := make(map[string]board.FreeformPosition)
	for _, id := range e.sel.Selected() {
		if !e.inSection(sectionID, id) {
			continue
		}
		blk, _ := e.board.Block(id)
		bw, bh := e.bounds.BaseSize(blk)
		p := e.board.Position(sectionID, id)
		r := e.rect(blk, p)
		if len(members) == 0 {
			box = r
		} else {
			box = box.Union(r)
		}
		members = append(members, Member{ID: id, BaseW: bw, BaseH: bh, Pos: p})
		before[id] = p
	}
	if len(members) == 0 {
		return false
	}

	e.begin(&active{
		kind:    "group-resize",
		section: sectionID,
		origin:  origin,
		before:  before,
		label:   fmt.Sprintf("Resize %d blocks", len(members)),
		update: func(d gesture.Point) bool {
			scale := e.board.Camera(sectionID).Scale
			next, ok := GroupResize(members, box, h, d.X/scale, d.Y/scale, e.bounds)
			if !ok {
				return false
			}
			e.board.SetPositions(sectionID, next)
			return true
		},
		cancel: func() { e.board.SetPositions(sectionID, before) },
	})
	return true
}
