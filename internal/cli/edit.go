package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/refboard/internal/workspace"
	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/errors"
)

// moveCommand creates the move command, a programmatic drag and drop.
func (c *CLI) moveCommand() *cobra.Command {
	var (
		blocks  []string
		section string
		col     int
		index   int
	)

	cmd := &cobra.Command{
		Use:   "move [board.json]",
		Short: "Move blocks to a column slot",
		Long: `Move blocks to a column slot.

The blocks are removed from wherever they are and inserted, in reading
order, at --index of column --col in --section. An index past the end of
the column appends. Moving a block onto its own slot changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(blocks) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "at least one --block is required")
			}
			to := board.Slot{SectionID: section, Col: col, Row: index}
			return c.edit(cmd.Context(), args[0], func(w *workspace.Workspace) error {
				if !w.Engine.Reorder().MoveTo(blocks, to) {
					return errors.New(errors.ErrCodeInvalidTarget, "cannot move %s to %s column %d", strings.Join(blocks, ", "), section, col)
				}
				printSuccess("Moved %s", strings.Join(blocks, ", "))
				printDetail("%s column %d, row %d", section, col, index)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&blocks, "block", "b", nil, "block id (repeatable)")
	cmd.Flags().StringVarP(&section, "section", "s", "", "target section")
	cmd.Flags().IntVar(&col, "col", 0, "target column")
	cmd.Flags().IntVar(&index, "index", 0, "target row within the column")
	cmd.MarkFlagRequired("section")

	return cmd
}

// columnsCommand creates the columns command.
func (c *CLI) columnsCommand() *cobra.Command {
	var (
		section string
		count   int
	)

	cmd := &cobra.Command{
		Use:   "columns [board.json]",
		Short: "Change the column count of a section",
		Long: `Change the column count of a section.

Blocks are dealt into the new columns round-robin in their current reading
order, so the order is kept while the columns change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateColumnCount(count); err != nil {
				return err
			}
			return c.edit(cmd.Context(), args[0], func(w *workspace.Workspace) error {
				s, ok := w.Board().Section(section)
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "section %q not found", section)
				}
				if s.Columns == count {
					printInfo("%s already has %d columns", section, count)
					return nil
				}
				w.Engine.SetColumnCount(section, count)
				printSuccess("%s now has %d columns", section, count)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "section id")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "column count (1-12)")
	cmd.MarkFlagRequired("section")
	cmd.MarkFlagRequired("count")

	return cmd
}

// deleteCommand creates the delete command.
func (c *CLI) deleteCommand() *cobra.Command {
	var blocks []string

	cmd := &cobra.Command{
		Use:   "delete [board.json]",
		Short: "Soft-delete blocks",
		Long: `Soft-delete blocks.

Deleted blocks leave the columns but stay in the board file with their
deleted flag set, so other tools can still restore them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(blocks) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "at least one --block is required")
			}
			return c.edit(cmd.Context(), args[0], func(w *workspace.Workspace) error {
				if !w.Engine.DeleteBlocks(blocks) {
					return errors.New(errors.ErrCodeNotFound, "no live block among %s", strings.Join(blocks, ", "))
				}
				printSuccess("Deleted %s", strings.Join(blocks, ", "))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&blocks, "block", "b", nil, "block id (repeatable)")

	return cmd
}

// edit opens the board, applies fn and saves the result.
func (c *CLI) edit(ctx context.Context, input string, fn func(*workspace.Workspace) error) error {
	w, _, err := c.openWorkspace(ctx, input)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		w.Close(ctx)
		return err
	}
	if err := w.Save(ctx); err != nil {
		w.Close(ctx)
		return err
	}
	printFile(w.Path + " (" + w.Backend + ")")
	return w.Close(ctx)
}
