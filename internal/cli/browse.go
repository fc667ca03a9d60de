package cli

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/refboard/internal/workspace"
	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/config"
	"github.com/matzehuels/refboard/pkg/engine"
	"github.com/matzehuels/refboard/pkg/persist"
)

// Browser styles
var (
	browseBlockStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Foreground(colorGray).
				Padding(0, 1)
	browseCursorStyle = browseBlockStyle.
				BorderForeground(colorCyan).
				Foreground(colorWhite).
				Bold(true)
	browseHelpStyle = lipgloss.NewStyle().Foreground(colorDim)
)

const browseHelp = "j/k next/prev · J/K down/up · H/L column · d delete · u undo · r redo · +/- columns · s save · q quit"

// browseCommand creates the interactive board browser.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [board.json]",
		Short: "Walk and edit a board in the terminal",
		Long: `Walk and edit a board in the terminal.

The browser shows one section at a time as columns of blocks. The cursor
follows the reading order across sections. Moves, deletes and column
changes can be undone, and are synced in the background.

With the file backend the board is reloaded when another program changes
the file, unless there are unsaved changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runBrowse(ctx context.Context, input string) error {
	var watcher atomic.Pointer[boardio.Watcher]
	syncs := make(chan persist.Status, 8)

	w, _, err := c.openWorkspace(ctx, input,
		workspace.WithOnWrite(func(data []byte) {
			if wt := watcher.Load(); wt != nil {
				wt.Record(data)
			}
		}),
		workspace.WithStatus(func(st persist.Status) {
			select {
			case syncs <- st:
			default:
			}
		}),
	)
	if err != nil {
		return err
	}
	defer w.Close(context.WithoutCancel(ctx))

	var reloads chan *boardio.Document
	if w.Backend == config.BackendFile {
		reloads = make(chan *boardio.Document, 1)
		wt, err := boardio.Watch(ctx, w.Path, func(doc *boardio.Document) {
			select {
			case <-reloads:
			default:
			}
			select {
			case reloads <- doc:
			default:
			}
		}, boardio.WithWatchLogger(c.Logger))
		if err != nil {
			return err
		}
		defer wt.Close()
		watcher.Store(wt)
	}

	m := newBrowseModel(ctx, w, reloads, syncs)
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	if fm, ok := final.(browseModel); ok && fm.failed {
		printWarning("%s", fm.status)
	}
	return nil
}

// =============================================================================
// browseModel
// =============================================================================

type reloadMsg struct{ doc *boardio.Document }

type syncMsg persist.Status

type browseModel struct {
	ctx     context.Context
	ws      *workspace.Workspace
	cursor  string
	status  string
	failed  bool
	reloads <-chan *boardio.Document
	syncs   <-chan persist.Status
}

func newBrowseModel(ctx context.Context, ws *workspace.Workspace, reloads <-chan *boardio.Document, syncs <-chan persist.Status) browseModel {
	m := browseModel{ctx: ctx, ws: ws, reloads: reloads, syncs: syncs}
	m.fixCursor()
	return m
}

func (m browseModel) eng() *engine.Engine { return m.ws.Engine }

func (m browseModel) Init() tea.Cmd {
	return tea.Batch(m.waitReload(), m.waitSync())
}

func (m browseModel) waitReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	ch := m.reloads
	return func() tea.Msg { return reloadMsg{doc: <-ch} }
}

func (m browseModel) waitSync() tea.Cmd {
	if m.syncs == nil {
		return nil
	}
	ch := m.syncs
	return func() tea.Msg { return syncMsg(<-ch) }
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reloadMsg:
		ok, err := m.ws.Reload(msg.doc)
		switch {
		case err != nil:
			m.setError("reload failed: %v", err)
		case ok:
			m.fixCursor()
			m.setStatus("reloaded from disk")
		default:
			m.setStatus("file changed on disk; save to keep your edits")
		}
		return m, m.waitReload()
	case syncMsg:
		if msg.Err != nil {
			m.setError("sync failed: %v", msg.Err)
		} else if !msg.Dirty {
			m.setStatus("saved")
		}
		return m, m.waitSync()
	case tea.KeyMsg:
		return m.key(msg.String())
	}
	return m, nil
}

func (m browseModel) key(k string) (tea.Model, tea.Cmd) {
	e := m.eng()
	switch k {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "j", "down":
		if next, ok := e.Traverse(m.cursor, 1); ok {
			m.cursor = next
		}
	case "k", "up":
		if prev, ok := e.Traverse(m.cursor, -1); ok {
			m.cursor = prev
		}
	case "J":
		m.changed(e.Reorder().Nudge(m.cursor, 1), "moved down")
	case "K":
		m.changed(e.Reorder().Nudge(m.cursor, -1), "moved up")
	case "H":
		m.changed(m.shiftColumn(-1), "moved left")
	case "L":
		m.changed(m.shiftColumn(1), "moved right")
	case "d":
		target := m.cursor
		next, ok := e.Traverse(target, 1)
		if !ok {
			next, _ = e.Traverse(target, -1)
		}
		if e.DeleteBlocks([]string{target}) {
			m.cursor = next
			m.setStatus("deleted %s", target)
		}
	case "u":
		label := e.Stack().UndoLabel()
		m.changed(e.Undo(), "undid "+strings.ToLower(label))
	case "r":
		label := e.Stack().RedoLabel()
		m.changed(e.Redo(), "redid "+strings.ToLower(label))
	case "+", "-":
		m.changed(m.resizeColumns(k), "columns changed")
	case "s":
		if err := m.ws.Save(m.ctx); err != nil {
			m.setError("save failed: %v", err)
		} else {
			m.setStatus("saved")
		}
	}
	return m, nil
}

func (m *browseModel) changed(ok bool, status string) {
	if ok {
		m.fixCursor()
		m.setStatus("%s", status)
	}
}

func (m *browseModel) setStatus(format string, args ...any) {
	m.status, m.failed = fmt.Sprintf(format, args...), false
}

func (m *browseModel) setError(format string, args ...any) {
	m.status, m.failed = fmt.Sprintf(format, args...), true
}

// fixCursor moves the cursor to the first block in reading order when it
// points at nothing live.
func (m *browseModel) fixCursor() {
	if m.eng().Board().Live(m.cursor) {
		return
	}
	m.cursor = ""
	if order := m.eng().Order(); len(order) > 0 {
		m.cursor = order[0]
	}
}

func (m browseModel) section() (*board.Section, bool) {
	b := m.eng().Board()
	if blk, ok := b.Block(m.cursor); ok {
		return b.Section(blk.SectionID)
	}
	if sections := b.Sections(); len(sections) > 0 {
		return sections[0], true
	}
	return nil, false
}

// shiftColumn moves the cursor block to the neighboring column, keeping
// its row where possible.
func (m browseModel) shiftColumn(dir int) bool {
	s, ok := m.section()
	if !ok {
		return false
	}
	col, row, ok := s.Layout().Find(m.cursor)
	if !ok {
		return false
	}
	to := col + dir
	if to < 0 || to >= len(s.Layout()) {
		return false
	}
	return m.eng().Reorder().MoveTo([]string{m.cursor}, board.Slot{SectionID: s.ID, Col: to, Row: row})
}

func (m browseModel) resizeColumns(k string) bool {
	s, ok := m.section()
	if !ok {
		return false
	}
	n := s.Columns + 1
	if k == "-" {
		n = s.Columns - 1
	}
	return m.eng().SetColumnCount(s.ID, n)
}

func (m browseModel) View() string {
	var b strings.Builder
	bd := m.eng().Board()

	title := bd.Name
	if title == "" {
		title = bd.ID
	}
	b.WriteString(StyleTitle.Render(title))

	s, ok := m.section()
	if ok {
		sections := bd.Sections()
		idx := slices.IndexFunc(sections, func(x *board.Section) bool { return x.ID == s.ID })
		name := s.Name
		if name == "" {
			name = s.ID
		}
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %s (%d/%d) · %d columns", name, idx+1, len(sections), s.ColumnCount())))
	}
	b.WriteString("\n\n")

	if ok {
		if view, found := m.eng().View(s.ID); found {
			b.WriteString(m.renderColumns(view))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(browseHelpStyle.Render(browseHelp))
	return b.String()
}

// renderColumns draws a section as boxes in columns. Box heights follow the
// block aspect ratios.
func (m browseModel) renderColumns(view *engine.SectionView) string {
	const colWidth = 18

	cols := make([][]string, view.Columns)
	for _, bv := range view.Blocks {
		if bv.Col >= len(cols) {
			continue
		}
		for len(cols[bv.Col]) <= bv.Row {
			cols[bv.Col] = append(cols[bv.Col], "")
		}
		lines := 1
		if view.ColumnWidth > 0 {
			lines = min(max(int(math.Round(bv.Height/view.ColumnWidth*2)), 1), 6)
		}
		label := bv.ID
		if bv.Caption != "" {
			label += "\n" + bv.Caption
		}
		style := browseBlockStyle
		if bv.ID == m.cursor {
			style = browseCursorStyle
		}
		cols[bv.Col][bv.Row] = style.Width(colWidth).Height(lines).MaxWidth(colWidth + 2).Render(label)
	}

	rendered := make([]string, len(cols))
	for i, col := range cols {
		if len(col) == 0 {
			col = []string{StyleDim.Width(colWidth + 2).Render("  (empty)")}
		}
		rendered[i] = lipgloss.JoinVertical(lipgloss.Left, col...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m browseModel) renderStatus() string {
	var parts []string
	if m.ws.Dirty() {
		parts = append(parts, StyleWarning.Render("● unsaved"))
	} else {
		parts = append(parts, styleCached.Render("● synced"))
	}
	if label := m.eng().Stack().UndoLabel(); label != "" {
		parts = append(parts, StyleDim.Render("undo: "+label))
	}
	if m.status != "" {
		style := StyleHighlight
		if m.failed {
			style = styleIconError
		}
		parts = append(parts, style.Render(m.status))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}
