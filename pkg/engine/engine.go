package engine

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/canvas"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/gesture"
	"github.com/matzehuels/refboard/pkg/history"
	"github.com/matzehuels/refboard/pkg/layout"
	"github.com/matzehuels/refboard/pkg/layout/ordering"
	"github.com/matzehuels/refboard/pkg/observability"
	"github.com/matzehuels/refboard/pkg/persist"
	"github.com/matzehuels/refboard/pkg/reorder"
)

// Option configures an Engine.
type Option func(*Engine)

// WithParams sets the column layout parameters.
func WithParams(p layout.Params) Option {
	return func(e *Engine) { e.params = p }
}

// WithBounds sets the canvas limits.
func WithBounds(bd canvas.Bounds) Option {
	return func(e *Engine) { e.bounds = bd }
}

// WithTracker sets the receiver of dirty notifications.
func WithTracker(t persist.Tracker) Option {
	return func(e *Engine) { e.tracker = t }
}

// WithHistoryLimit caps the undo depth. Zero means unbounded.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) { e.historyLimit = n }
}

// WithGeometry sets the provider of rendered block rectangles used by
// pointer-driven reorders.
func WithGeometry(g reorder.GeometryProvider) Option {
	return func(e *Engine) { e.geometry = g }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine is the board orchestrator.
type Engine struct {
	board        *board.Board
	stack        *history.Stack
	sel          *board.OrderedSelection
	bus          *gesture.Bus
	params       layout.Params
	bounds       canvas.Bounds
	tracker      persist.Tracker
	geometry     reorder.GeometryProvider
	historyLimit int
	logger       *log.Logger

	reorder *reorder.Controller
	canvas  *canvas.Engine

	memo map[string]memoEntry
}

type memoEntry struct {
	revision uint64
	proj     *layout.Projection
	order    []string
}

// New creates an engine for b. Reading order indices of every section are
// committed to the blocks before the engine starts observing the board, so
// loading a board never marks anything dirty.
func New(b *board.Board, opts ...Option) *Engine {
	e := &Engine{
		board:  b,
		sel:    &board.OrderedSelection{},
		bus:    &gesture.Bus{},
		params: layout.DefaultParams(),
		bounds: canvas.DefaultBounds(),
		memo:   make(map[string]memoEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	e.stack = history.New(e.historyLimit)

	ropts := []reorder.Option{
		reorder.WithBus(e.bus),
		reorder.WithProjections(e),
		reorder.WithLogger(e.logger),
	}
	if e.geometry != nil {
		ropts = append(ropts, reorder.WithGeometry(e.geometry))
	}
	e.reorder = reorder.New(b, e.stack, e.sel, ropts...)
	e.canvas = canvas.New(b, e.stack, e.sel,
		canvas.WithBus(e.bus),
		canvas.WithBounds(e.bounds),
		canvas.WithLogger(e.logger),
	)

	for _, s := range b.Sections() {
		e.CommitOrder(s.ID)
	}
	b.Observe(e.observe)
	return e
}

// Board returns the board.
func (e *Engine) Board() *board.Board { return e.board }

// Stack returns the undo stack shared by every controller.
func (e *Engine) Stack() *history.Stack { return e.stack }

// Selection returns the shared selection.
func (e *Engine) Selection() *board.OrderedSelection { return e.sel }

// Bus returns the gesture bus shared by every controller.
func (e *Engine) Bus() *gesture.Bus { return e.bus }

// Reorder returns the column-mode drag controller.
func (e *Engine) Reorder() *reorder.Controller { return e.reorder }

// Canvas returns the freeform engine.
func (e *Engine) Canvas() *canvas.Engine { return e.canvas }

// Params returns the layout parameters.
func (e *Engine) Params() layout.Params { return e.params }

// SetParams changes the layout parameters, as on a container resize. It
// reports false and keeps the current parameters when p is not
// [layout.Params.Valid].
func (e *Engine) SetParams(p layout.Params) bool {
	if !p.Valid() {
		return false
	}
	if p == e.params {
		return true
	}
	e.params = p
	clear(e.memo)
	return true
}

// =============================================================================
// Projections
// =============================================================================

// Projection returns the displayed column geometry of a section. During a
// column-count preview the blocks are dealt round-robin, in reading order,
// into the previewed number of columns; nothing is saved.
func (e *Engine) Projection(sectionID string) *layout.Projection {
	if m, ok := e.memo[sectionID]; ok && m.revision == e.board.Revision() {
		return m.proj
	}
	s, ok := e.board.Section(sectionID)
	if !ok {
		return nil
	}

	start := time.Now()
	proj := layout.ComputeSection(s, e.params)
	if n := s.VisualColumns; n > 0 && n != len(s.Layout()) {
		cols := make(board.SectionColumns, n)
		for i, id := range ordering.Linearize(proj.Columns) {
			pb, _ := proj.Lookup(id)
			cols[i%n] = append(cols[i%n], pb.Block)
		}
		proj = layout.Compute(s.ID, cols, layout.ColumnWidth(e.params, n), e.params)
	}
	order := ordering.Assign(proj)
	observability.Layout().OnLayoutComputed(sectionID, proj.Len(), time.Since(start))

	e.memo[sectionID] = memoEntry{revision: e.board.Revision(), proj: proj, order: order}
	return proj
}

// ReadingOrder returns the displayed reading order of a section.
func (e *Engine) ReadingOrder(sectionID string) []string {
	if e.Projection(sectionID) == nil {
		return nil
	}
	return slices.Clone(e.memo[sectionID].order)
}

// Order returns the reading order of the whole board, section by section.
func (e *Engine) Order() []string {
	var out []string
	for _, s := range e.board.Sections() {
		out = append(out, e.ReadingOrder(s.ID)...)
	}
	return out
}

// Traverse returns the block dir steps away from blockID in the board's
// reading order, crossing section boundaries. It reports false at either
// end and for unknown blocks.
func (e *Engine) Traverse(blockID string, dir int) (string, bool) {
	order := e.Order()
	i := slices.Index(order, blockID)
	if i < 0 {
		return "", false
	}
	j := i + dir
	if j < 0 || j >= len(order) {
		return "", false
	}
	return order[j], true
}

// CommitOrder writes the saved column arrangement of a section back into
// its blocks: column, row and reading-order index. It returns the reading
// order.
func (e *Engine) CommitOrder(sectionID string) []string {
	s, ok := e.board.Section(sectionID)
	if !ok {
		return nil
	}
	e.board.Normalize(sectionID)
	order := ordering.Assign(layout.ComputeSection(s, e.params))
	for i, id := range order {
		e.board.SetOrderIndex(id, i)
	}
	return order
}

// =============================================================================
// Commands
// =============================================================================

// Undo reverts the most recent action.
func (e *Engine) Undo() bool {
	if e.reorder.State() == reorder.Dragging || e.canvas.Active() {
		return false
	}
	return e.stack.Undo()
}

// Redo re-applies the most recently undone action.
func (e *Engine) Redo() bool {
	if e.reorder.State() == reorder.Dragging || e.canvas.Active() {
		return false
	}
	return e.stack.Redo()
}

// DeleteBlocks soft-deletes blocks. Deleted blocks leave their columns but
// keep their canvas positions; undo puts each back into the exact slot it
// left and clears the stored flag again.
func (e *Engine) DeleteBlocks(ids []string) bool {
	var live []string
	for _, id := range ids {
		if e.board.Live(id) && !slices.Contains(live, id) {
			live = append(live, id)
		}
	}
	if len(live) == 0 {
		return false
	}

	slots := make(map[string]board.Slot, len(live))
	label := "Delete block"
	if len(live) > 1 {
		label = fmt.Sprintf("Delete %d blocks", len(live))
	}
	e.stack.Execute(history.Func(label,
		func() {
			for _, id := range live {
				if slot, ok := e.board.Detach(id); ok {
					slots[id] = slot
				}
				e.board.SetDeleted(id, true)
			}
			e.sel.Set(slices.DeleteFunc(e.sel.Selected(), func(id string) bool { return slices.Contains(live, id) })...)
			e.markDeleted(live, true)
		},
		func() {
			for i := len(live) - 1; i >= 0; i-- {
				id := live[i]
				e.board.SetDeleted(id, false)
				if slot, ok := slots[id]; ok {
					e.board.Insert(id, slot)
				}
			}
			e.markDeleted(live, false)
		},
	))
	e.logger.Debug("blocks deleted", "count", len(live))
	return true
}

// PreviewColumns shows a section with n columns without saving. n equal
// to the saved count ends the preview.
func (e *Engine) PreviewColumns(sectionID string, n int) bool {
	s, ok := e.board.Section(sectionID)
	if !ok || errors.ValidateColumnCount(n) != nil {
		return false
	}
	if n == s.Columns {
		n = 0
	}
	return e.board.SetVisualColumns(sectionID, n)
}

// CancelPreview ends a column-count preview.
func (e *Engine) CancelPreview(sectionID string) bool {
	return e.board.SetVisualColumns(sectionID, 0)
}

// ApplyPreview saves the previewed column count.
func (e *Engine) ApplyPreview(sectionID string) bool {
	s, ok := e.board.Section(sectionID)
	if !ok || s.VisualColumns == 0 {
		return false
	}
	return e.SetColumnCount(sectionID, s.VisualColumns)
}

// SetColumnCount rebuilds a section with n columns, keeping its reading
// order. It is undoable.
func (e *Engine) SetColumnCount(sectionID string, n int) bool {
	s, ok := e.board.Section(sectionID)
	if !ok || errors.ValidateColumnCount(n) != nil {
		return false
	}
	if n == s.Columns && s.VisualColumns == 0 {
		return false
	}
	order := ordering.Linearize(layout.ComputeSection(s, e.params).Columns)
	before := s.Layout()
	e.stack.Execute(history.Func(fmt.Sprintf("Set %d columns", n),
		func() { e.board.SetColumnCount(sectionID, n, order) },
		func() {
			e.board.SetVisualColumns(sectionID, 0)
			e.board.SetLayout(sectionID, before)
		},
	))
	return true
}

// SeedCanvas gives blocks without a freeform position one mirroring their
// column geometry.
func (e *Engine) SeedCanvas(sectionID string) int {
	return e.canvas.SeedFromColumns(sectionID, e.Projection(sectionID))
}

// =============================================================================
// Dirty tracking
// =============================================================================

// MarkColumnsDirty queues the column arrangement of a section for sync.
func (e *Engine) MarkColumnsDirty(sectionID string) {
	if e.tracker == nil {
		return
	}
	if s, ok := e.board.Section(sectionID); ok {
		e.tracker.MarkColumns(persist.ColumnSnapshot(s))
	}
}

// MarkFreeformDirty queues the freeform positions of a section for sync.
func (e *Engine) MarkFreeformDirty(sectionID string) {
	if e.tracker == nil {
		return
	}
	if _, ok := e.board.Section(sectionID); ok {
		e.tracker.MarkFreeform(sectionID, e.board.Positions(sectionID))
	}
}

func (e *Engine) markDeleted(ids []string, deleted bool) {
	if e.tracker != nil {
		e.tracker.MarkDeleted(slices.Clone(ids), deleted)
	}
}

func (e *Engine) observe(ch board.Change) {
	switch ch.Kind {
	case board.ChangeColumns:
		e.CommitOrder(ch.SectionID)
		e.MarkColumnsDirty(ch.SectionID)
	case board.ChangeFreeform:
		// Intermediate gesture samples are not synced; the commit is.
		if !e.canvas.Active() {
			e.MarkFreeformDirty(ch.SectionID)
		}
	}
}
