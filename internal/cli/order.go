package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/refboard/pkg/engine"
	"github.com/matzehuels/refboard/pkg/errors"
)

// orderCommand creates the order command, which prints the reading order.
func (c *CLI) orderCommand() *cobra.Command {
	var (
		section string
		write   bool
	)

	cmd := &cobra.Command{
		Use:   "order [board.json]",
		Short: "Print the reading order of a board",
		Long: `Print the reading order of a board.

Blocks are listed section by section in the order keyboard traversal and
screen readers visit them: top to bottom across the columns, by the
vertical position each block starts at.

With --write the order indices are committed to the configured backend.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrder(cmd.Context(), cmd.OutOrStdout(), args[0], section, write)
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "only this section")
	cmd.Flags().BoolVar(&write, "write", false, "commit order indices")

	return cmd
}

func (c *CLI) runOrder(ctx context.Context, out io.Writer, input, section string, write bool) error {
	w, _, err := c.openWorkspace(ctx, input)
	if err != nil {
		return err
	}
	defer w.Close(ctx)

	sections, err := selectSections(w.Engine, section)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, orderTable(w.Engine, sections))

	if !write {
		return nil
	}
	for _, id := range sections {
		w.Engine.MarkColumnsDirty(id)
	}
	if err := w.Save(ctx); err != nil {
		return err
	}
	printSuccess("Order committed for %d sections", len(sections))
	return nil
}

// selectSections returns the ids of the named section, or of every section
// when name is empty.
func selectSections(eng *engine.Engine, name string) ([]string, error) {
	if name != "" {
		if _, ok := eng.Board().Section(name); !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "section %q not found", name)
		}
		return []string{name}, nil
	}
	var ids []string
	for _, s := range eng.Board().Sections() {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// orderTable renders the reading order of sections as a table.
func orderTable(eng *engine.Engine, sections []string) string {
	var rows [][]string
	for _, sid := range sections {
		view, ok := eng.View(sid)
		if !ok {
			continue
		}
		for _, bv := range view.Blocks {
			rows = append(rows, []string{
				strconv.Itoa(bv.Order + 1),
				bv.ID,
				sid,
				strconv.Itoa(bv.Col),
				strconv.Itoa(bv.Row),
				bv.Caption,
			})
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Block", "Section", "Col", "Row", "Caption").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case col == 0:
				style = StyleNumber
			case col == 1:
				style = StyleValue
			default:
				style = StyleDim
			}
			return style.Padding(0, 1)
		}).
		String()
}
