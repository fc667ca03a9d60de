package persist

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/refboard/pkg/board"
)

func newTestSyncer(t *testing.T, store Store, opts ...SyncerOption) *Syncer {
	t.Helper()
	opts = append([]SyncerOption{WithDelay(time.Hour), WithRetry("")}, opts...)
	s, err := NewSyncer(store, opts...)
	if err != nil {
		t.Fatalf("NewSyncer: %v", err)
	}
	return s
}

func order(sectionID string, ids ...string) SectionOrder {
	o := SectionOrder{SectionID: sectionID, Columns: 1}
	for i, id := range ids {
		o.Blocks = append(o.Blocks, BlockOrder{ID: id, Row: i, Order: i})
	}
	return o
}

func TestFlushClearsDirtyOnSuccess(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSyncer(t, store)

	s.MarkColumns(order("s1", "a", "b"))
	s.MarkFreeform("s1", map[string]board.FreeformPosition{"a": {X: 1, Scale: 1}})
	s.MarkDeleted([]string{"c"}, true)
	if !s.Dirty() {
		t.Fatal("expected dirty after marks")
	}
	if got := s.DirtySections(); !reflect.DeepEqual(got, []string{"s1"}) {
		t.Errorf("DirtySections = %v", got)
	}

	if !s.Flush(context.Background()) {
		t.Fatal("Flush failed")
	}
	if s.Dirty() {
		t.Error("still dirty after successful flush")
	}
	if o, ok := store.Order("s1"); !ok || len(o.Blocks) != 2 {
		t.Errorf("stored order = %+v, %v", o, ok)
	}
	if p := store.Positions("s1"); p["a"].X != 1 {
		t.Errorf("stored positions = %+v", p)
	}
	if d, ok := store.Deleted("c"); !ok || !d {
		t.Errorf("deleted flag = %v, %v", d, ok)
	}
}

func TestFlushKeepsDirtyOnFailure(t *testing.T) {
	store := NewMemoryStore()
	var last Status
	s := newTestSyncer(t, store, WithStatus(func(st Status) { last = st }))

	store.SetFailure(errors.New("offline"))
	s.MarkColumns(order("s1", "a"))
	s.MarkDeleted([]string{"x"}, true)

	if s.Flush(context.Background()) {
		t.Fatal("Flush should report failure")
	}
	if !s.Dirty() {
		t.Fatal("dirty flag dropped after failure")
	}
	if !last.Dirty || last.Err == nil {
		t.Errorf("status = %+v, want dirty with error", last)
	}

	store.SetFailure(nil)
	if !s.Flush(context.Background()) {
		t.Fatal("retry flush failed")
	}
	if s.Dirty() {
		t.Error("dirty after recovery")
	}
	if last.Dirty || last.Err != nil || last.LastSync.IsZero() {
		t.Errorf("status = %+v, want clean", last)
	}
	if d, _ := store.Deleted("x"); !d {
		t.Error("deleted flag not written on retry")
	}
}

func TestLatestSnapshotWins(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSyncer(t, store)

	s.MarkColumns(order("s1", "a", "b"))
	s.MarkColumns(order("s1", "b", "a"))
	s.MarkDeleted([]string{"a"}, true)
	s.MarkDeleted([]string{"a"}, false)
	s.Flush(context.Background())

	o, _ := store.Order("s1")
	if o.Blocks[0].ID != "b" {
		t.Errorf("stored order starts with %q, want b", o.Blocks[0].ID)
	}
	if d, ok := store.Deleted("a"); !ok || d {
		t.Errorf("deleted(a) = %v, %v; want false, true", d, ok)
	}
	if got := store.Writes(); got != 2 {
		t.Errorf("writes = %d, want 2", got)
	}
}

func TestFlushEmptyIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	s := newTestSyncer(t, store)
	if !s.Flush(context.Background()) {
		t.Error("empty flush should succeed")
	}
	if store.Writes() != 0 {
		t.Errorf("writes = %d, want 0", store.Writes())
	}
}

func TestDebouncedFlush(t *testing.T) {
	store := NewMemoryStore()
	done := make(chan Status, 1)
	s, err := NewSyncer(store, WithDelay(10*time.Millisecond), WithRetry(""), WithStatus(func(st Status) {
		select {
		case done <- st:
		default:
		}
	}))
	if err != nil {
		t.Fatal(err)
	}

	s.MarkColumns(order("s1", "a"))
	select {
	case st := <-done:
		if st.Dirty {
			t.Errorf("status = %+v, want clean", st)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("debounced flush did not run")
	}
	if _, ok := store.Order("s1"); !ok {
		t.Error("order not written")
	}
}

func TestInvalidRetrySchedule(t *testing.T) {
	if _, err := NewSyncer(NewMemoryStore(), WithRetry("not a schedule")); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestCloseFlushes(t *testing.T) {
	store := NewMemoryStore()
	s, err := NewSyncer(store, WithDelay(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.MarkFreeform("s1", map[string]board.FreeformPosition{"a": {Scale: 2}})
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if p := store.Positions("s1"); p["a"].Scale != 2 {
		t.Errorf("positions = %+v", p)
	}
}

func TestColumnSnapshot(t *testing.T) {
	b := board.New("b", "")
	layout := board.SectionColumns{
		{{ID: "a", OrderIndex: 0}, {ID: "b", OrderIndex: 2}},
		{{ID: "c", OrderIndex: 1}},
	}
	if err := b.AddSection(&board.Section{ID: "s", Columns: 2}, layout); err != nil {
		t.Fatal(err)
	}
	sec, _ := b.Section("s")

	got := ColumnSnapshot(sec)
	want := SectionOrder{SectionID: "s", Columns: 2, Blocks: []BlockOrder{
		{ID: "a", Col: 0, Row: 0, Order: 0},
		{ID: "b", Col: 0, Row: 1, Order: 2},
		{ID: "c", Col: 1, Row: 0, Order: 1},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ColumnSnapshot = %+v, want %+v", got, want)
	}
}
