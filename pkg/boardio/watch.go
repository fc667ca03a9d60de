package boardio

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a board file must stay quiet before a change is
// reported.
const DefaultSettle = 200 * time.Millisecond

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithSettle sets the quiet period that coalesces save bursts.
func WithSettle(d time.Duration) WatchOption {
	return func(w *Watcher) { w.settle = d }
}

// WithWatchLogger sets the logger for watcher errors.
func WithWatchLogger(l *log.Logger) WatchOption {
	return func(w *Watcher) { w.logger = l }
}

// Watcher reports changes to one board file made by other processes.
//
// Editors and atomic writers replace files rather than writing them, so the
// parent directory is watched and events are matched on the absolute path.
// A change is only reported when the file content differs from the last
// content seen, which includes content recorded with [Watcher.Record].
type Watcher struct {
	path     string
	settle   time.Duration
	logger   *log.Logger
	onChange func(*Document)

	watcher *fsnotify.Watcher

	mu   sync.Mutex
	last [sha256.Size]byte
}

// Watch starts watching the board file at path. onChange is called with the
// freshly decoded document on the watcher's goroutine. Watching stops when
// ctx is cancelled or Close is called.
func Watch(ctx context.Context, path string, onChange func(*Document), opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		path:     abs,
		settle:   DefaultSettle,
		onChange: onChange,
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if data, err := os.ReadFile(abs); err == nil {
		w.last = sha256.Sum256(data)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go w.loop(ctx)
	return w, nil
}

// Record marks data as the file's current content, so that the write which
// produced it is not reported back.
func (w *Watcher) Record(data []byte) {
	w.mu.Lock()
	w.last = sha256.Sum256(data)
	w.mu.Unlock()
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	debounced := debounce.New(w.settle)
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			if abs != w.path {
				continue
			}
			debounced(w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("board watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// Mid-rename; the Create event that follows triggers another reload.
		w.logger.Debug("board file unreadable", "path", w.path, "error", err)
		return
	}
	sum := sha256.Sum256(data)
	w.mu.Lock()
	same := sum == w.last
	w.last = sum
	w.mu.Unlock()
	if same {
		return
	}

	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		w.logger.Warn("board file changed but does not parse", "path", w.path, "error", err)
		return
	}
	if w.onChange != nil {
		w.onChange(doc)
	}
}
