package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/refboard/pkg/boardio"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [board.json]",
		Short: "Write the board as stored by the configured backend",
		Long: `Write the board as stored by the configured backend.

With the sqlite backend this is the way to get edits made through refboard
back into a board file. Deleted blocks and canvases are included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, _, err := c.openWorkspace(ctx, args[0])
			if err != nil {
				return err
			}
			defer w.Close(ctx)

			if output == "" {
				output = siblingPath(args[0], ".export.json")
			}
			if err := w.Export(output); err != nil {
				return err
			}
			printSuccess("Exported %s", w.Board().ID)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.export.json)")

	return cmd
}

// writeJSONFile writes v as indented JSON, atomically.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return boardio.WriteFile(path, append(data, '\n'))
}
