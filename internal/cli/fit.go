package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/cache"
	"github.com/matzehuels/refboard/pkg/config"
	"github.com/matzehuels/refboard/pkg/engine"
	"github.com/matzehuels/refboard/pkg/errors"
)

// fitCommand creates the fit command, which computes a fit-to-content camera.
func (c *CLI) fitCommand() *cobra.Command {
	var (
		section string
		width   float64
		height  float64
		seed    bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "fit [board.json]",
		Short: "Compute the camera that fits a section canvas in a viewport",
		Long: `Compute the camera that fits a section canvas in a viewport.

The camera centers the bounding box of every live block on the canvas of
--section in a viewport of --width by --height pixels, with a margin, and
never zooms in past 100%.

With --seed, blocks that have no canvas position yet are first placed where
they sit in the column layout. Nothing is written back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 || height <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--width and --height must be positive")
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := cache.FitKeyOpts{SectionID: section, Width: width, Height: height, Seeded: seed}
			cam, cached, err := c.runFit(cmd.Context(), cfg, args[0], opts, noCache)
			if err != nil {
				return err
			}
			printKeyValue("section", section)
			printKeyValue("x", fmt.Sprintf("%.2f", cam.X))
			printKeyValue("y", fmt.Sprintf("%.2f", cam.Y))
			printKeyValue("scale", fmt.Sprintf("%.4f", cam.Scale))
			if cached {
				printDetail(iconCached)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "section id")
	cmd.Flags().Float64Var(&width, "width", 1280, "viewport width in pixels")
	cmd.Flags().Float64Var(&height, "height", 800, "viewport height in pixels")
	cmd.Flags().BoolVar(&seed, "seed", false, "place unpositioned blocks from the column layout first")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.MarkFlagRequired("section")

	return cmd
}

func (c *CLI) runFit(ctx context.Context, cfg config.Config, input string, opts cache.FitKeyOpts, noCache bool) (board.Camera, bool, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return board.Camera{}, false, fmt.Errorf("read board %s: %w", input, err)
	}

	store, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return board.Camera{}, false, fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	key := newKeyer(cfg).FitKey(cache.Hash(data), opts)
	var cam board.Camera
	err = cache.GetJSON(ctx, store, "fit", key, &cam)
	if err == nil {
		return cam, true, nil
	}
	if !stderrors.Is(err, cache.ErrCacheMiss) {
		return board.Camera{}, false, fmt.Errorf("read cache: %w", err)
	}

	doc, err := boardio.Decode(bytes.NewReader(data))
	if err != nil {
		return board.Camera{}, false, fmt.Errorf("load board %s: %w", input, err)
	}
	b, err := doc.Board()
	if err != nil {
		return board.Camera{}, false, err
	}
	eng := engine.New(b, engine.WithParams(cfg.Layout), engine.WithBounds(cfg.Canvas))
	if opts.Seeded {
		eng.SeedCanvas(opts.SectionID)
	}
	cam, ok := eng.Canvas().Fit(opts.SectionID, opts.Width, opts.Height)
	if !ok {
		return board.Camera{}, false, errors.New(errors.ErrCodeNotFound, "section %q not found", opts.SectionID)
	}
	if err := cache.SetJSON(ctx, store, "fit", key, cam, cfg.Cache.TTL); err != nil {
		return board.Camera{}, false, fmt.Errorf("write cache: %w", err)
	}
	return cam, false, nil
}
