package cli

import (
	"context"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/matzehuels/refboard/internal/server"
	"github.com/matzehuels/refboard/internal/workspace"
	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/config"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [board.json]",
		Short: "Serve a board over HTTP",
		Long: `Serve a board over HTTP.

The server exposes the layout and reading order of each section and
accepts moves, column changes, deletes, undo and redo. Changes are synced
to the configured backend in the background and flushed on shutdown.

With the file backend the board is reloaded when another program changes
the file, unless there are unsaved changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input, addr string) error {
	var watcher atomic.Pointer[boardio.Watcher]

	w, cfg, err := c.openWorkspace(ctx, input, workspace.WithOnWrite(func(data []byte) {
		if wt := watcher.Load(); wt != nil {
			wt.Record(data)
		}
	}))
	if err != nil {
		return err
	}
	defer w.Close(context.WithoutCancel(ctx))

	srv := server.New(w, server.WithLogger(c.Logger))
	if w.Backend == config.BackendFile {
		wt, err := boardio.Watch(ctx, w.Path, func(doc *boardio.Document) {
			ok, err := srv.Reload(doc)
			switch {
			case err != nil:
				c.Logger.Warn("reload failed", "path", w.Path, "error", err)
			case ok:
				c.Logger.Info("board reloaded", "path", w.Path)
			default:
				c.Logger.Warn("board file changed with unsaved changes pending; keeping local state", "path", w.Path)
			}
		}, boardio.WithWatchLogger(c.Logger))
		if err != nil {
			return err
		}
		defer wt.Close()
		watcher.Store(wt)
	}

	if addr != "" {
		cfg.Server.Addr = addr
	}
	printInfo("Serving %s on http://%s", w.Path, cfg.Server.Addr)
	return srv.Run(ctx, cfg.Server)
}
