package canvas

import (
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/gesture"
	"github.com/matzehuels/refboard/pkg/history"
	"github.com/matzehuels/refboard/pkg/layout"
	"github.com/matzehuels/refboard/pkg/observability"
)

// Option configures an [Engine].
type Option func(*Engine)

// WithBounds replaces the default bounds.
func WithBounds(bd Bounds) Option {
	return func(e *Engine) { e.bounds = bd }
}

// WithBus sets the bus on which gesture listeners are installed.
func WithBus(bus *gesture.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithLogger sets the logger for gesture diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine drives the freeform canvases of a board. It runs at most one
// gesture at a time and is not safe for concurrent use.
type Engine struct {
	board  *board.Board
	stack  *history.Stack
	sel    board.Selection
	bus    *gesture.Bus
	bounds Bounds
	logger *log.Logger

	active *active
}

// active is the running gesture.
type active struct {
	kind    string
	section string
	origin  gesture.Point
	started time.Time
	remove  []func()

	// update applies the cumulative screen delta and reports whether it
	// was within bounds.
	update func(d gesture.Point) bool
	// before holds the positions captured at gesture start; nil for
	// camera gestures.
	before map[string]board.FreeformPosition
	cancel func()
	label  string
}

// New creates an engine operating on b.
func New(b *board.Board, stack *history.Stack, sel board.Selection, opts ...Option) *Engine {
	e := &Engine{
		board:  b,
		stack:  stack,
		sel:    sel,
		bus:    &gesture.Bus{},
		bounds: DefaultBounds(),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bounds returns the engine's limits.
func (e *Engine) Bounds() Bounds { return e.bounds }

// Bus returns the bus the engine installs its listeners on.
func (e *Engine) Bus() *gesture.Bus { return e.bus }

// Active reports whether a gesture is running.
func (e *Engine) Active() bool { return e.active != nil }

// Rect returns the world rectangle of a block on a section canvas.
func (e *Engine) Rect(sectionID, blockID string) (gesture.Rect, bool) {
	blk, ok := e.board.Block(blockID)
	if !ok || blk.Deleted {
		return gesture.Rect{}, false
	}
	p := e.board.Position(sectionID, blockID)
	return e.rect(blk, p), true
}

func (e *Engine) rect(blk *board.Block, p board.FreeformPosition) gesture.Rect {
	w, h := e.bounds.BaseSize(blk)
	return gesture.Rect{X: p.X, Y: p.Y, W: w * p.Scale, H: h * p.Scale}
}

func (e *Engine) begin(a *active) {
	a.started = time.Now()
	a.remove = append(a.remove,
		e.bus.Listen(gesture.PointerMove, e.Move),
		e.bus.Listen(gesture.PointerUp, e.End),
	)
	e.active = a
	observability.Gesture().OnGestureStart(a.kind, len(a.before))
}

// Move feeds a pointer sample into the running gesture.
func (e *Engine) Move(ev gesture.PointerEvent) {
	a := e.active
	if a == nil {
		return
	}
	if !a.update(ev.Pos.Sub(a.origin)) {
		observability.Gesture().OnBoundsRejected(a.kind)
	}
}

// End applies the final sample and commits the running gesture.
func (e *Engine) End(ev gesture.PointerEvent) {
	a := e.active
	if a == nil {
		return
	}
	if !a.update(ev.Pos.Sub(a.origin)) {
		observability.Gesture().OnBoundsRejected(a.kind)
	}
	e.finish()

	outcome := observability.OutcomeNoOp
	if a.before != nil {
		after := make(map[string]board.FreeformPosition, len(a.before))
		changed := false
		for id, p0 := range a.before {
			p := e.board.Position(a.section, id)
			after[id] = p
			if p.X != p0.X || p.Y != p0.Y || p.Scale != p0.Scale {
				changed = true
			}
		}
		if changed {
			e.stack.Execute(&positionsAction{
				b:       e.board,
				label:   a.label,
				section: a.section,
				before:  a.before,
				after:   after,
			})
			outcome = observability.OutcomeCommitted
		}
	} else {
		outcome = observability.OutcomeCommitted
	}
	observability.Gesture().OnGestureEnd(a.kind, outcome, time.Since(a.started))
	e.logger.Debug("canvas gesture ended", "kind", a.kind, "outcome", outcome)
}

// Cancel aborts the running gesture and restores the state it started
// from.
func (e *Engine) Cancel() {
	a := e.active
	if a == nil {
		return
	}
	e.finish()
	if a.cancel != nil {
		a.cancel()
	}
	observability.Gesture().OnGestureEnd(a.kind, observability.OutcomeAborted, time.Since(a.started))
}

func (e *Engine) finish() {
	for _, remove := range e.active.remove {
		remove()
	}
	e.active = nil
}

// members returns the blocks a gesture on blockID acts on: the selection
// when it contains blockID, else blockID alone (which becomes the
// selection). Only live blocks of the section are kept.
func (e *Engine) members(sectionID, blockID string) []string {
	if e.sel != nil && e.sel.Contains(blockID) {
		var out []string
		for _, id := range e.sel.Selected() {
			if e.inSection(sectionID, id) {
				out = append(out, id)
			}
		}
		return out
	}
	if e.sel != nil {
		e.sel.Set(blockID)
	}
	return []string{blockID}
}

func (e *Engine) inSection(sectionID, id string) bool {
	blk, ok := e.board.Block(id)
	return ok && !blk.Deleted && blk.SectionID == sectionID
}

func (e *Engine) capture(sectionID string, ids []string) map[string]board.FreeformPosition {
	out := make(map[string]board.FreeformPosition, len(ids))
	for _, id := range ids {
		out[id] = e.board.Position(sectionID, id)
	}
	return out
}

// BeginMove starts dragging blockID (or the selection it belongs to) on a
// section canvas. The dragged block is brought to the front.
func (e *Engine) BeginMove(sectionID, blockID string, origin gesture.Point) bool {
	if e.active != nil || !e.inSection(sectionID, blockID) {
		return false
	}
	ids := e.members(sectionID, blockID)
	before := e.capture(sectionID, ids)

	top := before[blockID]
	top.Z = e.board.NextZ(sectionID)
	e.board.SetPosition(sectionID, blockID, top)

	start := e.capture(sectionID, ids)
	label := "Move block"
	if len(ids) > 1 {
		label = fmt.Sprintf("Move %d blocks", len(ids))
	}
	e.begin(&active{
		kind:    "move",
		section: sectionID,
		origin:  origin,
		before:  before,
		label:   label,
		update: func(d gesture.Point) bool {
			scale := e.board.Camera(sectionID).Scale
			next := make(map[string]board.FreeformPosition, len(start))
			for id, p := range start {
				p.X += d.X / scale
				p.Y += d.Y / scale
				next[id] = p
			}
			e.board.SetPositions(sectionID, next)
			return true
		},
		cancel: func() { e.board.SetPositions(sectionID, before) },
	})
	return true
}

// BringToFront gives a block the next z value of its section.
func (e *Engine) BringToFront(sectionID, blockID string) bool {
	if !e.inSection(sectionID, blockID) {
		return false
	}
	p := e.board.Position(sectionID, blockID)
	p.Z = e.board.NextZ(sectionID)
	return e.board.SetPosition(sectionID, blockID, p)
}

// SeedFromColumns gives every live block of the section that has no
// freeform position one mirroring its column geometry: the same top-left
// corner and a scale matching the column width, clamped to the bounds.
func (e *Engine) SeedFromColumns(sectionID string, proj *layout.Projection) int {
	if proj == nil {
		return 0
	}
	seeded := make(map[string]board.FreeformPosition)
	for c, col := range proj.Columns {
		for _, pb := range col {
			if e.board.HasPosition(sectionID, pb.Block.ID) {
				continue
			}
			w, _ := e.bounds.BaseSize(pb.Block)
			scale := 1.0
			if w > 0 {
				scale = min(max(proj.ColumnWidth/w, e.bounds.MinScale), e.bounds.MaxScale)
			}
			seeded[pb.Block.ID] = board.FreeformPosition{X: proj.Left(c), Y: pb.Top, Scale: scale}
		}
	}
	if len(seeded) > 0 {
		e.board.SetPositions(sectionID, seeded)
	}
	return len(seeded)
}

// positionsAction restores a set of block positions.
type positionsAction struct {
	b       *board.Board
	label   string
	section string
	before  map[string]board.FreeformPosition
	after   map[string]board.FreeformPosition
}

func (a *positionsAction) Label() string { return a.label }
func (a *positionsAction) Do()           { a.b.SetPositions(a.section, maps.Clone(a.after)) }
func (a *positionsAction) Undo()         { a.b.SetPositions(a.section, maps.Clone(a.before)) }
