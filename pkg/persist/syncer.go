package persist

import (
	"context"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/observability"
)

// Defaults for [NewSyncer].
const (
	DefaultDelay = 500 * time.Millisecond
	DefaultRetry = "@every 30s"
)

// Status is reported after every flush.
type Status struct {
	Dirty    bool      // Something is still waiting to be written
	Err      error     // First error of the flush, if any
	LastSync time.Time // Time of the last fully successful flush
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithDelay sets the quiet period after the last change before a flush.
func WithDelay(d time.Duration) SyncerOption {
	return func(s *Syncer) { s.delay = d }
}

// WithRetry sets the cron schedule on which dirty state is retried. An empty
// schedule disables retries.
func WithRetry(schedule string) SyncerOption {
	return func(s *Syncer) { s.retry = schedule }
}

// WithLogger sets the logger for sync failures.
func WithLogger(l *log.Logger) SyncerOption {
	return func(s *Syncer) { s.logger = l }
}

// WithStatus sets a callback invoked after every flush. It runs on the
// flushing goroutine.
func WithStatus(fn func(Status)) SyncerOption {
	return func(s *Syncer) { s.onStatus = fn }
}

// Syncer coalesces dirty notifications and writes them to a Store.
//
// Mark calls are cheap and never block on the store. A flush runs after the
// configured quiet period, on the schedule given by [WithRetry], or when
// [Syncer.Flush] is called. Only the latest snapshot per section is kept.
type Syncer struct {
	store    Store
	delay    time.Duration
	retry    string
	logger   *log.Logger
	onStatus func(Status)

	debounced func(func())
	sched     *cron.Cron

	mu       sync.Mutex
	columns  map[string]SectionOrder
	freeform map[string]map[string]board.FreeformPosition
	deleted  map[string]bool
	lastSync time.Time

	flushMu sync.Mutex
}

// NewSyncer creates a Syncer writing to store. Call Start to enable the
// retry schedule.
func NewSyncer(store Store, opts ...SyncerOption) (*Syncer, error) {
	s := &Syncer{
		store:    store,
		delay:    DefaultDelay,
		retry:    DefaultRetry,
		columns:  make(map[string]SectionOrder),
		freeform: make(map[string]map[string]board.FreeformPosition),
		deleted:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s.debounced = debounce.New(s.delay)

	if s.retry != "" {
		s.sched = cron.New()
		if _, err := s.sched.AddFunc(s.retry, s.retryDirty); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid retry schedule %q", s.retry)
		}
	}
	return s, nil
}

// Start enables the retry schedule.
func (s *Syncer) Start() {
	if s.sched != nil {
		s.sched.Start()
	}
}

// Close stops the retry schedule and makes a final flush. It does not close
// the store.
func (s *Syncer) Close(ctx context.Context) error {
	if s.sched != nil {
		<-s.sched.Stop().Done()
	}
	if !s.Flush(ctx) {
		return errors.New(errors.ErrCodePersistence, "unsaved changes remain after final flush")
	}
	return nil
}

// MarkColumns queues a column-order snapshot.
func (s *Syncer) MarkColumns(order SectionOrder) {
	s.mu.Lock()
	s.columns[order.SectionID] = order
	s.mu.Unlock()
	s.schedule()
}

// MarkFreeform queues the freeform positions of a section.
func (s *Syncer) MarkFreeform(sectionID string, positions map[string]board.FreeformPosition) {
	s.mu.Lock()
	s.freeform[sectionID] = maps.Clone(positions)
	s.mu.Unlock()
	s.schedule()
}

// MarkDeleted queues soft-delete flag changes. A later mark for the same
// block replaces an earlier one.
func (s *Syncer) MarkDeleted(ids []string, deleted bool) {
	s.mu.Lock()
	for _, id := range ids {
		s.deleted[id] = deleted
	}
	s.mu.Unlock()
	s.schedule()
}

// Dirty reports whether anything is waiting to be written.
func (s *Syncer) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

// DirtySections returns the ids of sections with unwritten column or
// freeform state, sorted.
func (s *Syncer) DirtySections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool)
	for id := range s.columns {
		set[id] = true
	}
	for id := range s.freeform {
		set[id] = true
	}
	return slices.Sorted(maps.Keys(set))
}

func (s *Syncer) dirtyLocked() bool {
	return len(s.columns) > 0 || len(s.freeform) > 0 || len(s.deleted) > 0
}

func (s *Syncer) schedule() {
	s.debounced(func() { s.Flush(context.Background()) })
}

func (s *Syncer) retryDirty() {
	if s.Dirty() {
		s.logger.Debug("retrying unsaved changes")
		s.Flush(context.Background())
	}
}

// Flush writes everything pending. It returns false if any write failed;
// failed snapshots stay queued unless a newer one arrived meanwhile.
func (s *Syncer) Flush(ctx context.Context) bool {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	columns, freeform, deleted := s.columns, s.freeform, s.deleted
	s.columns = make(map[string]SectionOrder)
	s.freeform = make(map[string]map[string]board.FreeformPosition)
	s.deleted = make(map[string]bool)
	s.mu.Unlock()

	var firstErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, id := range slices.Sorted(maps.Keys(columns)) {
		order := columns[id]
		if err := s.write(ctx, "columns", id, func() error { return s.store.SyncColumnOrder(ctx, order) }); err != nil {
			fail(err)
			s.requeue(func() {
				if _, newer := s.columns[id]; !newer {
					s.columns[id] = order
				}
			})
		}
	}

	for _, id := range slices.Sorted(maps.Keys(freeform)) {
		positions := freeform[id]
		if err := s.write(ctx, "freeform", id, func() error { return s.store.SyncFreeformPositions(ctx, id, positions) }); err != nil {
			fail(err)
			s.requeue(func() {
				if _, newer := s.freeform[id]; !newer {
					s.freeform[id] = positions
				}
			})
		}
	}

	for _, flag := range []bool{true, false} {
		var ids []string
		for id, d := range deleted {
			if d == flag {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		slices.Sort(ids)
		if err := s.write(ctx, "deleted", "", func() error { return s.store.SetDeleted(ctx, ids, flag) }); err != nil {
			fail(err)
			s.requeue(func() {
				for _, id := range ids {
					if _, newer := s.deleted[id]; !newer {
						s.deleted[id] = flag
					}
				}
			})
		}
	}

	s.mu.Lock()
	if firstErr == nil {
		s.lastSync = time.Now()
	}
	status := Status{Dirty: s.dirtyLocked(), Err: firstErr, LastSync: s.lastSync}
	s.mu.Unlock()

	if s.onStatus != nil {
		s.onStatus(status)
	}
	return firstErr == nil
}

func (s *Syncer) requeue(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
}

func (s *Syncer) write(ctx context.Context, kind, sectionID string, fn func() error) error {
	hooks := observability.Sync()
	hooks.OnSyncStart(ctx, kind, sectionID)
	start := time.Now()
	err := fn()
	hooks.OnSyncComplete(ctx, kind, sectionID, time.Since(start), err)
	if err != nil {
		s.logger.Warn("sync failed", "kind", kind, "section", sectionID, "error", err)
		return errors.Wrap(errors.ErrCodePersistence, err, "sync %s %s", kind, sectionID)
	}
	return nil
}
