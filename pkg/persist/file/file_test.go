package file

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/persist"
)

const sample = `{
  "version": 1,
  "id": "b1",
  "sections": [
    {"id": "s1", "columns": 2, "blocks": [
      {"id": "a", "width": 10, "height": 10, "col_index": 0, "row_index": 0},
      {"id": "b", "width": 10, "height": 10, "col_index": 1, "row_index": 0}
    ]},
    {"id": "s2", "columns": 1, "blocks": [
      {"id": "c", "width": 10, "height": 10}
    ]}
  ]
}`

func openSample(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func reload(t *testing.T, s *Store) *board.Board {
	t.Helper()
	b, err := boardio.ImportJSON(s.Path())
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	return b
}

func TestSyncColumnOrderMovesAcrossSections(t *testing.T) {
	s := openSample(t)
	ctx := context.Background()

	err := s.SyncColumnOrder(ctx, persist.SectionOrder{SectionID: "s2", Columns: 1, Blocks: []persist.BlockOrder{
		{ID: "c", Row: 0, Order: 0},
		{ID: "a", Row: 1, Order: 1},
	}})
	if err != nil {
		t.Fatalf("SyncColumnOrder: %v", err)
	}
	err = s.SyncColumnOrder(ctx, persist.SectionOrder{SectionID: "s1", Columns: 1, Blocks: []persist.BlockOrder{
		{ID: "b", Row: 0, Order: 0},
	}})
	if err != nil {
		t.Fatalf("SyncColumnOrder: %v", err)
	}

	b := reload(t, s)
	s1, _ := b.Section("s1")
	s2, _ := b.Section("s2")
	if got := s1.Layout().IDs(); !reflect.DeepEqual(got, [][]string{{"b"}}) {
		t.Errorf("s1 = %v", got)
	}
	if got := s2.Layout().IDs(); !reflect.DeepEqual(got, [][]string{{"c", "a"}}) {
		t.Errorf("s2 = %v", got)
	}
}

func TestSyncFreeformAndDeleted(t *testing.T) {
	var writes int
	s := openSample(t, WithOnWrite(func([]byte) { writes++ }))
	ctx := context.Background()

	if err := s.SyncFreeformPositions(ctx, "s1", map[string]board.FreeformPosition{"a": {X: 3, Z: 5, Scale: 2}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetDeleted(ctx, []string{"b"}, true); err != nil {
		t.Fatal(err)
	}
	if writes != 2 {
		t.Errorf("writes = %d, want 2", writes)
	}

	b := reload(t, s)
	if p := b.Position("s1", "a"); p.X != 3 || p.Scale != 2 {
		t.Errorf("position = %+v", p)
	}
	if b.ZCounter("s1") != 5 {
		t.Errorf("z counter = %d", b.ZCounter("s1"))
	}
	if b.Live("b") {
		t.Error("b should be deleted")
	}
}

func TestUnknownSection(t *testing.T) {
	s := openSample(t)
	err := s.SyncFreeformPositions(context.Background(), "nope", nil)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("got %v, want NOT_FOUND", err)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("got %v, want NOT_FOUND", err)
	}
}

func TestSaveBoard(t *testing.T) {
	s := openSample(t)
	b, err := s.Board()
	if err != nil {
		t.Fatal(err)
	}
	b.SetCamera("s2", board.Camera{X: 1, Scale: 3})
	if err := s.SaveBoard(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(s.Path())
	if !strings.Contains(string(data), `"scale": 3`) {
		t.Errorf("camera not written:\n%s", data)
	}
}
