package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/persist"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "refboard.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testBoard(t *testing.T) *board.Board {
	t.Helper()
	b := board.New("b1", "Board")
	layout := board.SectionColumns{
		{{ID: "a", Type: board.BlockImage, Width: 100, Height: 100}, {ID: "b", Type: board.BlockText, Width: 50, Height: 20, Caption: "note"}},
		{{ID: "c", Type: board.BlockImage, Width: 100, Height: 300}},
	}
	if err := b.AddSection(&board.Section{ID: "s1", Name: "One", Columns: 2}, layout); err != nil {
		t.Fatal(err)
	}
	if err := b.AddSection(&board.Section{ID: "s2", Name: "Two", Columns: 1}, nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(&board.Block{ID: "gone", Type: board.BlockImage, SectionID: "s1", Deleted: true}); err != nil {
		t.Fatal(err)
	}
	b.SetPosition("s1", "a", board.FreeformPosition{X: 10, Y: 20, Z: 3, Scale: 0.5})
	b.SetCamera("s1", board.Camera{X: 5, Y: 6, Scale: 2})
	return b
}

func TestSaveLoadBoard(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if err := db.SaveBoard(ctx, testBoard(t)); err != nil {
		t.Fatalf("SaveBoard: %v", err)
	}
	// Saving again replaces rather than duplicates.
	if err := db.SaveBoard(ctx, testBoard(t)); err != nil {
		t.Fatalf("SaveBoard again: %v", err)
	}

	b, err := db.LoadBoard(ctx, "b1")
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	sections := b.Sections()
	if len(sections) != 2 || sections[0].ID != "s1" || sections[1].ID != "s2" {
		t.Fatalf("sections = %v", sections)
	}
	if got := sections[0].Layout().IDs(); !reflect.DeepEqual(got, [][]string{{"a", "b"}, {"c"}}) {
		t.Errorf("layout = %v", got)
	}
	blk, _ := b.Block("b")
	if blk.Type != board.BlockText || blk.Caption != "note" {
		t.Errorf("block b = %+v", blk)
	}
	if gone, ok := b.Block("gone"); !ok || !gone.Deleted {
		t.Error("deleted block not restored")
	}
	if p := b.Position("s1", "a"); p != (board.FreeformPosition{X: 10, Y: 20, Z: 3, Scale: 0.5}) {
		t.Errorf("position = %+v", p)
	}
	if cam := b.Camera("s1"); cam != (board.Camera{X: 5, Y: 6, Scale: 2}) {
		t.Errorf("camera = %+v", cam)
	}
}

func TestLoadMissingBoard(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LoadBoard(context.Background(), "nope")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("got %v, want NOT_FOUND", err)
	}
}

func TestStoreSyncs(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	if err := db.SaveBoard(ctx, testBoard(t)); err != nil {
		t.Fatal(err)
	}

	// Move b to the second section and swap a and c.
	err := db.SyncColumnOrder(ctx, persist.SectionOrder{SectionID: "s1", Columns: 2, Blocks: []persist.BlockOrder{
		{ID: "c", Col: 0, Row: 0, Order: 0},
		{ID: "a", Col: 1, Row: 0, Order: 1},
	}})
	if err != nil {
		t.Fatalf("SyncColumnOrder s1: %v", err)
	}
	err = db.SyncColumnOrder(ctx, persist.SectionOrder{SectionID: "s2", Columns: 1, Blocks: []persist.BlockOrder{
		{ID: "b", Col: 0, Row: 0, Order: 0},
	}})
	if err != nil {
		t.Fatalf("SyncColumnOrder s2: %v", err)
	}
	if err := db.SyncFreeformPositions(ctx, "s1", map[string]board.FreeformPosition{"c": {X: 1, Y: 2, Z: 7, Scale: 1}}); err != nil {
		t.Fatalf("SyncFreeformPositions: %v", err)
	}
	if err := db.SetDeleted(ctx, []string{"gone"}, false); err != nil {
		t.Fatalf("SetDeleted: %v", err)
	}

	b, err := db.LoadBoard(ctx, "b1")
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	s1, _ := b.Section("s1")
	// "gone" is live again with its zero slot, ahead of c in column 0 by id.
	if got := s1.Layout().IDs(); !reflect.DeepEqual(got, [][]string{{"c", "gone"}, {"a"}}) {
		t.Errorf("s1 layout = %v", got)
	}
	s2, _ := b.Section("s2")
	if got := s2.Layout().IDs(); !reflect.DeepEqual(got, [][]string{{"b"}}) {
		t.Errorf("s2 layout = %v", got)
	}
	if b.HasPosition("s1", "a") {
		t.Error("position of a should be replaced")
	}
	if p := b.Position("s1", "c"); p.Z != 7 {
		t.Errorf("position of c = %+v", p)
	}
	if got := b.ZCounter("s1"); got != 7 {
		t.Errorf("z counter = %d, want 7", got)
	}
}
