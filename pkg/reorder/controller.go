package reorder

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/gesture"
	"github.com/matzehuels/refboard/pkg/history"
	"github.com/matzehuels/refboard/pkg/layout"
	"github.com/matzehuels/refboard/pkg/observability"
)

const gestureKind = "reorder"

// State is the controller's gesture state.
type State int

const (
	Idle State = iota
	Dragging
)

// GeometryProvider supplies the bounding rectangles of the blocks that can
// be dropped on, keyed by block id. It is queried once per gesture.
type GeometryProvider interface {
	BlockRects() map[string]gesture.Rect
}

// GeometryFunc adapts a function to [GeometryProvider].
type GeometryFunc func() map[string]gesture.Rect

// BlockRects calls f.
func (f GeometryFunc) BlockRects() map[string]gesture.Rect { return f() }

// ProjectionSource returns the current projection of a section. It is used
// to find the shortest column when a block is dropped on a section header.
type ProjectionSource interface {
	Projection(sectionID string) *layout.Projection
}

// Option configures a [Controller].
type Option func(*Controller)

// WithBus sets the bus on which drag listeners are installed.
func WithBus(bus *gesture.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithGeometry sets the geometry provider.
func WithGeometry(g GeometryProvider) Option {
	return func(c *Controller) { c.geom = g }
}

// WithProjections sets the projection source.
func WithProjections(p ProjectionSource) Option {
	return func(c *Controller) { c.projections = p }
}

// WithLogger sets the logger for gesture diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller is the drag-and-drop reorder state machine:
//
//	Idle -> Dragging -> Idle (committed | aborted)
//
// Invalid targets never surface as errors; the gesture just ends without
// changing the board. A Controller is not safe for concurrent use.
type Controller struct {
	board       *board.Board
	stack       *history.Stack
	sel         board.Selection
	bus         *gesture.Bus
	geom        GeometryProvider
	projections ProjectionSource
	logger      *log.Logger

	drag *drag
}

type drag struct {
	origin    gesture.Point
	delta     gesture.Point
	moving    []string
	movingSet map[string]bool
	rects     map[string]gesture.Rect
	candidate *board.Slot
	remove    []func()
	started   time.Time
}

// New creates a controller operating on b. Committed moves are executed on
// stack; sel is read at drag start and updated when an unselected block is
// dragged.
func New(b *board.Board, stack *history.Stack, sel board.Selection, opts ...Option) *Controller {
	c := &Controller{
		board:  b,
		stack:  stack,
		sel:    sel,
		bus:    &gesture.Bus{},
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current gesture state.
func (c *Controller) State() State {
	if c.drag != nil {
		return Dragging
	}
	return Idle
}

// Bus returns the bus the controller installs its listeners on.
func (c *Controller) Bus() *gesture.Bus { return c.bus }

// Moving returns the ids being dragged, or nil when idle.
func (c *Controller) Moving() []string {
	if c.drag == nil {
		return nil
	}
	return append([]string(nil), c.drag.moving...)
}

// Candidate returns the slot the blocks would drop into if the pointer
// were released now.
func (c *Controller) Candidate() (board.Slot, bool) {
	if c.drag == nil || c.drag.candidate == nil {
		return board.Slot{}, false
	}
	return *c.drag.candidate, true
}

// Start begins dragging blockID from the screen point origin. The moving
// set is the whole selection when blockID is part of it, otherwise just
// blockID (which then becomes the selection). It reports false and stays
// idle when a drag is already running, the block is unknown or deleted, or
// its section is showing an unsaved column-count preview.
func (c *Controller) Start(blockID string, origin gesture.Point) bool {
	if c.drag != nil {
		return false
	}
	blk, ok := c.board.Block(blockID)
	if !ok || blk.Deleted {
		c.logger.Debug("drag start ignored: stale block", "block", blockID)
		return false
	}
	s, ok := c.board.Section(blk.SectionID)
	if !ok {
		return false
	}
	if previewing(s) {
		c.logger.Debug("drag start ignored: column preview active", "section", s.ID)
		return false
	}

	var moving []string
	if c.sel != nil && c.sel.Contains(blockID) {
		for _, id := range c.sel.Selected() {
			if c.board.Live(id) {
				moving = append(moving, id)
			}
		}
	} else {
		moving = []string{blockID}
		if c.sel != nil {
			c.sel.Set(blockID)
		}
	}

	d := &drag{
		origin:    origin,
		moving:    moving,
		movingSet: make(map[string]bool, len(moving)),
		started:   time.Now(),
	}
	for _, id := range moving {
		d.movingSet[id] = true
	}
	if c.geom != nil {
		d.rects = c.geom.BlockRects()
	}
	d.remove = append(d.remove,
		c.bus.Listen(gesture.PointerMove, c.Move),
		c.bus.Listen(gesture.PointerUp, func(ev gesture.PointerEvent) { c.End(ev) }),
	)
	c.drag = d
	observability.Gesture().OnGestureStart(gestureKind, len(moving))
	c.logger.Debug("drag started", "blocks", len(moving), "section", s.ID)
	return true
}

// Move updates the drop candidate from a pointer sample.
func (c *Controller) Move(ev gesture.PointerEvent) {
	if c.drag == nil {
		return
	}
	c.drag.delta = ev.Pos.Sub(c.drag.origin)
	c.drag.candidate = c.resolve(ev.Target)
}

// End releases the drag. The drop goes to the target under the release
// point, or to the last candidate when released outside any target. It
// reports whether the board changed.
func (c *Controller) End(ev gesture.PointerEvent) bool {
	d := c.drag
	if d == nil {
		return false
	}
	d.delta = ev.Pos.Sub(d.origin)
	if ev.Target.Kind != gesture.TargetNone {
		d.candidate = c.resolve(ev.Target)
	}
	c.finish()

	if d.candidate == nil {
		c.report(d, observability.OutcomeAborted)
		return false
	}
	plan, ok := Compute(c.board, d.moving, *d.candidate)
	if !ok {
		c.report(d, observability.OutcomeNoOp)
		return false
	}
	c.stack.Execute(newMoveAction(c.board, plan))
	c.report(d, observability.OutcomeCommitted)
	return true
}

// Cancel aborts the drag without touching the board.
func (c *Controller) Cancel() {
	d := c.drag
	if d == nil {
		return
	}
	c.finish()
	c.report(d, observability.OutcomeAborted)
}

// MoveTo moves blocks to an insertion slot outside of a pointer gesture,
// as for keyboard moves. It reports whether the board changed.
func (c *Controller) MoveTo(ids []string, to board.Slot) bool {
	if c.drag != nil {
		return false
	}
	plan, ok := Compute(c.board, ids, to)
	if !ok {
		return false
	}
	c.stack.Execute(newMoveAction(c.board, plan))
	return true
}

// Nudge moves a block delta rows within its column. Moves past either end
// of the column clamp.
func (c *Controller) Nudge(blockID string, delta int) bool {
	blk, ok := c.board.Block(blockID)
	if !ok || blk.Deleted || delta == 0 {
		return false
	}
	s, ok := c.board.Section(blk.SectionID)
	if !ok {
		return false
	}
	col, row, ok := s.Layout().Find(blockID)
	if !ok {
		return false
	}
	index := row + delta
	if delta > 0 {
		index++
	}
	index = min(max(index, 0), len(s.Layout()[col]))
	return c.MoveTo([]string{blockID}, board.Slot{SectionID: s.ID, Col: col, Row: index})
}

func (c *Controller) finish() {
	for _, remove := range c.drag.remove {
		remove()
	}
	c.drag = nil
}

func (c *Controller) report(d *drag, outcome string) {
	observability.Gesture().OnGestureEnd(gestureKind, outcome, time.Since(d.started))
	c.logger.Debug("drag ended", "outcome", outcome)
}

// resolve classifies the element under the pointer into a drop slot.
// Targets inside a section showing a column-count preview resolve to nil:
// the rects on screen do not match the saved layout there.
func (c *Controller) resolve(t gesture.Target) *board.Slot {
	slot := c.resolveSlot(t)
	if slot == nil {
		return nil
	}
	if s, ok := c.board.Section(slot.SectionID); !ok || previewing(s) {
		return nil
	}
	return slot
}

func (c *Controller) resolveSlot(t gesture.Target) *board.Slot {
	switch t.Kind {
	case gesture.TargetGap:
		s, ok := c.board.Section(t.SectionID)
		if !ok || t.Col < 0 || t.Col >= len(s.Layout()) {
			return nil
		}
		index := min(max(t.Index, 0), len(s.Layout()[t.Col]))
		return &board.Slot{SectionID: s.ID, Col: t.Col, Row: index}

	case gesture.TargetColumn:
		s, ok := c.board.Section(t.SectionID)
		if !ok || t.Col < 0 || t.Col >= len(s.Layout()) {
			return nil
		}
		return &board.Slot{SectionID: s.ID, Col: t.Col, Row: len(s.Layout()[t.Col])}

	case gesture.TargetBlock:
		if c.drag.movingSet[t.BlockID] || !c.board.Live(t.BlockID) {
			return nil
		}
		rect, ok := c.drag.rects[t.BlockID]
		if !ok {
			return nil
		}
		blk, _ := c.board.Block(t.BlockID)
		s, ok := c.board.Section(blk.SectionID)
		if !ok {
			return nil
		}
		col, row, ok := s.Layout().Find(t.BlockID)
		if !ok {
			return nil
		}
		if c.drag.origin.Y+c.drag.delta.Y >= rect.MidY() {
			row++
		}
		return &board.Slot{SectionID: s.ID, Col: col, Row: row}

	case gesture.TargetSectionHeader:
		s, ok := c.board.Section(t.SectionID)
		if !ok || len(s.Layout()) == 0 {
			return nil
		}
		col := c.shortestColumn(s)
		return &board.Slot{SectionID: s.ID, Col: col, Row: len(s.Layout()[col])}
	}
	return nil
}

// shortestColumn picks the column a header drop appends to. Without a
// projection matching the saved layout it falls back to the column holding
// the fewest blocks, leftmost on ties.
func (c *Controller) shortestColumn(s *board.Section) int {
	cols := s.Layout()
	if c.projections != nil {
		if proj := c.projections.Projection(s.ID); proj != nil && len(proj.Columns) == len(cols) {
			return max(proj.ShortestColumn(), 0)
		}
	}
	best := 0
	for i, col := range cols {
		if len(col) < len(cols[best]) {
			best = i
		}
	}
	return best
}

func previewing(s *board.Section) bool {
	return s.VisualColumns > 0 && s.VisualColumns != s.Columns
}
