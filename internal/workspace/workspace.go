// Package workspace opens a board file together with its persistence
// backend, sync scheduler and engine, the way the CLI commands and the HTTP
// server need them.
package workspace

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/config"
	"github.com/matzehuels/refboard/pkg/engine"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/persist"
	"github.com/matzehuels/refboard/pkg/persist/file"
	"github.com/matzehuels/refboard/pkg/persist/mongo"
	"github.com/matzehuels/refboard/pkg/persist/sqlite"
)

// Option configures Open.
type Option func(*options)

type options struct {
	logger  *log.Logger
	status  func(persist.Status)
	onWrite func([]byte)
}

// WithLogger sets the logger shared by the syncer and the engine.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStatus sets a callback invoked after every flush.
func WithStatus(fn func(persist.Status)) Option {
	return func(o *options) { o.status = fn }
}

// WithOnWrite sets a callback that receives every write to the board file.
// It only applies to the file backend.
func WithOnWrite(fn func([]byte)) Option {
	return func(o *options) { o.onWrite = fn }
}

// Workspace is an open board.
type Workspace struct {
	Path    string
	Backend string
	Engine  *engine.Engine
	Syncer  *persist.Syncer

	cfg   config.Config
	store persist.Store
	file  *file.Store
	opts  options
}

// Open loads the board file at path and connects the configured backend.
//
// With the file backend the board file itself is the storage. The sqlite
// backend loads the board from the database, importing the file the first
// time a board id is seen. The mongo backend mirrors changes of the file's
// board, and the memory backend keeps them in memory only.
func Open(ctx context.Context, cfg config.Config, path string, opts ...Option) (*Workspace, error) {
	if err := errors.ValidateBoardPath(path); err != nil {
		return nil, err
	}
	w := &Workspace{Path: path, Backend: cfg.Persist.Backend, cfg: cfg}
	for _, opt := range opts {
		opt(&w.opts)
	}
	if w.opts.logger == nil {
		w.opts.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	b, err := w.connect(ctx)
	if err != nil {
		return nil, err
	}

	syncOpts := []persist.SyncerOption{
		persist.WithDelay(cfg.Persist.Delay),
		persist.WithRetry(cfg.Persist.Retry),
		persist.WithLogger(w.opts.logger),
	}
	if w.opts.status != nil {
		syncOpts = append(syncOpts, persist.WithStatus(w.opts.status))
	}
	w.Syncer, err = persist.NewSyncer(w.store, syncOpts...)
	if err != nil {
		w.store.Close()
		return nil, err
	}
	w.Syncer.Start()
	w.Engine = w.newEngine(b)
	w.opts.logger.Debug("board opened", "path", path, "backend", w.Backend, "sections", len(b.Sections()))
	return w, nil
}

func (w *Workspace) connect(ctx context.Context) (*board.Board, error) {
	if w.Backend == config.BackendFile {
		fs, err := file.Open(w.Path, file.WithOnWrite(w.opts.onWrite))
		if err != nil {
			return nil, err
		}
		b, err := fs.Board()
		if err != nil {
			return nil, err
		}
		w.store, w.file = fs, fs
		return b, nil
	}

	doc, err := boardio.Load(w.Path)
	if err != nil {
		return nil, err
	}
	switch w.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(w.cfg.Persist.Path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistence, err, "open %s", w.cfg.Persist.Path)
		}
		b, err := db.LoadBoard(ctx, doc.ID)
		if errors.Is(err, errors.ErrCodeNotFound) {
			if b, err = doc.Board(); err == nil {
				err = db.SaveBoard(ctx, b)
			}
		}
		if err != nil {
			db.Close()
			return nil, err
		}
		w.store = db
		return b, nil
	case config.BackendMongo:
		b, err := doc.Board()
		if err != nil {
			return nil, err
		}
		st, err := mongo.Connect(ctx, w.cfg.Persist.MongoURI, w.cfg.Persist.MongoDatabase)
		if err != nil {
			return nil, err
		}
		w.store = st
		return b, nil
	case config.BackendMemory:
		b, err := doc.Board()
		if err != nil {
			return nil, err
		}
		w.store = persist.NewMemoryStore()
		return b, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown persist backend %q", w.Backend)
}

func (w *Workspace) newEngine(b *board.Board) *engine.Engine {
	return engine.New(b,
		engine.WithParams(w.cfg.Layout),
		engine.WithBounds(w.cfg.Canvas),
		engine.WithHistoryLimit(w.cfg.History.Limit),
		engine.WithTracker(w.Syncer),
		engine.WithLogger(w.opts.logger),
	)
}

// Board returns the open board.
func (w *Workspace) Board() *board.Board { return w.Engine.Board() }

// Dirty reports whether changes are waiting to be written.
func (w *Workspace) Dirty() bool { return w.Syncer.Dirty() }

// Save writes pending changes now.
func (w *Workspace) Save(ctx context.Context) error {
	if !w.Syncer.Flush(ctx) {
		return errors.New(errors.ErrCodePersistence, "sections still dirty: %v", w.Syncer.DirtySections())
	}
	return nil
}

// Reload replaces the board with doc, as after an external edit of the
// board file. It refuses while changes are pending, and with any backend
// other than file. The undo history starts over.
func (w *Workspace) Reload(doc *boardio.Document) (bool, error) {
	if w.file == nil || w.Dirty() {
		return false, nil
	}
	b, err := doc.Board()
	if err != nil {
		return false, err
	}
	w.file.Reset(doc)
	w.Engine = w.newEngine(b)
	return true, nil
}

// Export writes a full capture of the board to path.
func (w *Workspace) Export(path string) error {
	return boardio.ExportJSON(w.Board(), path)
}

// Document returns a full capture of the board.
func (w *Workspace) Document() *boardio.Document {
	return boardio.FromBoard(w.Board())
}

// Close flushes pending changes and releases the backend.
func (w *Workspace) Close(ctx context.Context) error {
	err := w.Syncer.Close(ctx)
	if cerr := w.store.Close(); err == nil && cerr != nil {
		err = errors.Wrap(errors.ErrCodePersistence, cerr, "close %s backend", w.Backend)
	}
	return err
}
