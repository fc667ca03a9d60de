package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/cache"
	"github.com/matzehuels/refboard/pkg/config"
	"github.com/matzehuels/refboard/pkg/engine"
	"github.com/matzehuels/refboard/pkg/layout"
)

// layoutFile is the content of a <board>.layout.json file.
type layoutFile struct {
	BoardID  string                `json:"board_id"`
	Params   layout.Params         `json:"params"`
	Sections []*engine.SectionView `json:"sections"`
}

// layoutCommand creates the layout command for computing column geometry.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		width   float64
		split   bool
	)

	cmd := &cobra.Command{
		Use:   "layout [board.json]",
		Short: "Compute column geometry and reading order of a board",
		Long: `Compute column geometry and reading order of a board.

The layout command reads a board file and computes, for every section, the
masonry column placement of its blocks and the reading order that walks
them top to bottom across columns. The result is written to a
<board>.layout.json file.

The layout is computed from the board file as it is on disk. Results are
cached per section, keyed by the file content and the layout parameters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("width") {
				cfg.Layout.ContainerWidth = width
			}
			if cmd.Flags().Changed("split") {
				cfg.Layout.Split = split
			}
			if output == "" {
				output = siblingPath(args[0], ".layout.json")
			}
			return c.runLayout(cmd.Context(), cfg, args[0], output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&width, "width", 0, "container width in pixels (overrides config)")
	cmd.Flags().BoolVar(&split, "split", false, "lay out for a split view")

	return cmd
}

// runLayout loads the board, computes or fetches each section layout, and
// writes output.
func (c *CLI) runLayout(ctx context.Context, cfg config.Config, input, output string, noCache bool) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read board %s: %w", input, err)
	}
	doc, err := boardio.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("load board %s: %w", input, err)
	}

	store, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	prog := newProgress(c.Logger)
	result, cached, err := computeLayout(ctx, store, newKeyer(cfg), cfg, doc, cache.Hash(data))
	if err != nil {
		return err
	}
	prog.done("layout computed")

	if err := writeJSONFile(output, result); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	blocks := 0
	for _, s := range result.Sections {
		blocks += len(s.Blocks)
	}
	printSuccess("Layout complete")
	printFile(output)
	printStats(len(result.Sections), blocks, cached)
	printNewline()
	printNextStep("Browse", "refboard browse "+input)
	return nil
}

// computeLayout returns the layout of every section of doc. Sections found
// in the cache are not recomputed; the engine is only built on a miss. It
// reports whether every section came from the cache.
func computeLayout(ctx context.Context, store cache.Cache, keyer cache.Keyer, cfg config.Config, doc *boardio.Document, hash string) (*layoutFile, bool, error) {
	result := &layoutFile{BoardID: doc.ID, Params: cfg.Layout}
	allCached := true
	var eng *engine.Engine

	for _, s := range doc.Sections {
		key := keyer.LayoutKey(hash, cache.LayoutKeyOpts{SectionID: s.ID, Params: cfg.Layout})
		var view engine.SectionView
		err := cache.GetJSON(ctx, store, "layout", key, &view)
		if err == nil {
			result.Sections = append(result.Sections, &view)
			continue
		}
		if !stderrors.Is(err, cache.ErrCacheMiss) {
			return nil, false, fmt.Errorf("read cache: %w", err)
		}

		allCached = false
		if eng == nil {
			b, err := doc.Board()
			if err != nil {
				return nil, false, err
			}
			eng = engine.New(b, engine.WithParams(cfg.Layout))
		}
		v, ok := eng.View(s.ID)
		if !ok {
			continue
		}
		if err := cache.SetJSON(ctx, store, "layout", key, v, cfg.Cache.TTL); err != nil {
			return nil, false, fmt.Errorf("write cache: %w", err)
		}
		result.Sections = append(result.Sections, v)
	}
	return result, allCached, nil
}
