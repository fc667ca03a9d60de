package board

import (
	"reflect"
	"testing"

	"github.com/matzehuels/refboard/pkg/errors"
)

func img(id string, w, h float64) *Block {
	return &Block{ID: id, Type: BlockImage, Width: w, Height: h}
}

// newTestBoard builds a board with section "s1" holding A=[1,2,3], B=[4,5].
func newTestBoard(t *testing.T) *Board {
	t.Helper()
	b := New("b", "test")
	layout := SectionColumns{
		{img("1", 100, 100), img("2", 100, 50), img("3", 100, 200)},
		{img("4", 100, 100), img("5", 100, 100)},
	}
	if err := b.AddSection(&Section{ID: "s1", Name: "One", Columns: 2}, layout); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	return b
}

func ids(b *Board, sectionID string) [][]string {
	s, _ := b.Section(sectionID)
	return s.Layout().IDs()
}

func TestAddSectionRejectsDuplicates(t *testing.T) {
	b := newTestBoard(t)

	err := b.AddSection(&Section{ID: "s1"}, nil)
	if !errors.Is(err, errors.ErrCodeInvalidBoard) {
		t.Errorf("duplicate section: got %v, want INVALID_BOARD", err)
	}

	err = b.AddSection(&Section{ID: "s2", Columns: 1}, SectionColumns{{img("1", 1, 1)}})
	if !errors.Is(err, errors.ErrCodeInvalidBoard) {
		t.Errorf("duplicate block: got %v, want INVALID_BOARD", err)
	}

	err = b.AddSection(&Section{ID: "s3", Columns: 3}, SectionColumns{{}, {}})
	if !errors.Is(err, errors.ErrCodeInvalidBoard) {
		t.Errorf("column mismatch: got %v, want INVALID_BOARD", err)
	}
}

func TestAddSectionDefaults(t *testing.T) {
	b := New("", "")
	if b.ID == "" {
		t.Fatal("New should mint an id")
	}
	s := &Section{Name: "empty"}
	if err := b.AddSection(s, nil); err != nil {
		t.Fatal(err)
	}
	if s.ID == "" || s.Columns != 1 || len(s.Layout()) != 1 {
		t.Errorf("section = %+v, want minted id and one column", s)
	}
}

func TestAddBlockGoesToShortestColumn(t *testing.T) {
	b := newTestBoard(t)
	if err := b.AddBlock("s1", img("6", 10, 10)); err != nil {
		t.Fatal(err)
	}
	if err := b.AddBlock("s1", img("7", 10, 10)); err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"1", "2", "3", "7"}, {"4", "5", "6"}}
	if got := ids(b, "s1"); !reflect.DeepEqual(got, want) {
		t.Errorf("layout = %v, want %v", got, want)
	}

	if err := b.AddBlock("missing", img("8", 1, 1)); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown section: got %v, want NOT_FOUND", err)
	}
}

func TestDetachInsertRoundTrip(t *testing.T) {
	b := newTestBoard(t)
	s, _ := b.Section("s1")
	before := s.Layout()

	slot, ok := b.Detach("2")
	if !ok {
		t.Fatal("Detach failed")
	}
	if slot != (Slot{SectionID: "s1", Col: 0, Row: 1}) {
		t.Errorf("slot = %+v", slot)
	}
	if got := ids(b, "s1"); !reflect.DeepEqual(got, [][]string{{"1", "3"}, {"4", "5"}}) {
		t.Errorf("after detach = %v", got)
	}
	if !reflect.DeepEqual(before.IDs(), [][]string{{"1", "2", "3"}, {"4", "5"}}) {
		t.Error("captured layout was modified by Detach")
	}

	if !b.Insert("2", slot) {
		t.Fatal("Insert failed")
	}
	if !s.Layout().Equal(before) {
		t.Errorf("after insert = %v, want %v", ids(b, "s1"), before.IDs())
	}
}

func TestInsertClampsAndRejects(t *testing.T) {
	b := newTestBoard(t)
	b.Detach("1")

	if b.Insert("1", Slot{SectionID: "s1", Col: 5}) {
		t.Error("Insert into missing column should fail")
	}
	if b.Insert("1", Slot{SectionID: "nope"}) {
		t.Error("Insert into missing section should fail")
	}
	if b.Insert("2", Slot{SectionID: "s1", Col: 1}) {
		t.Error("Insert of an attached block should fail")
	}
	if !b.Insert("1", Slot{SectionID: "s1", Col: 1, Row: 99}) {
		t.Fatal("Insert should clamp the row")
	}
	if got := ids(b, "s1"); !reflect.DeepEqual(got, [][]string{{"2", "3"}, {"4", "5", "1"}}) {
		t.Errorf("layout = %v", got)
	}
}

func TestStaleReferencesAreNoOps(t *testing.T) {
	b := newTestBoard(t)
	rev := b.Revision()

	if _, ok := b.Detach("ghost"); ok {
		t.Error("Detach of unknown block should fail")
	}
	if b.SetDeleted("ghost", true) {
		t.Error("SetDeleted of unknown block should fail")
	}
	if b.SetPosition("nope", "1", DefaultPosition) {
		t.Error("SetPosition on unknown section should fail")
	}
	if b.Revision() != rev {
		t.Errorf("revision moved from %d to %d", rev, b.Revision())
	}
}

func TestSetColumnCountDealsRoundRobin(t *testing.T) {
	b := newTestBoard(t)
	b.SetVisualColumns("s1", 3)

	if !b.SetColumnCount("s1", 3, []string{"1", "4", "2", "5", "3"}) {
		t.Fatal("SetColumnCount failed")
	}
	want := [][]string{{"1", "5"}, {"4", "3"}, {"2"}}
	if got := ids(b, "s1"); !reflect.DeepEqual(got, want) {
		t.Errorf("layout = %v, want %v", got, want)
	}
	s, _ := b.Section("s1")
	if s.Columns != 3 || s.VisualColumns != 0 {
		t.Errorf("columns = %d visual = %d", s.Columns, s.VisualColumns)
	}
}

func TestSetColumnCountKeepsUnlistedBlocks(t *testing.T) {
	b := newTestBoard(t)
	b.SetColumnCount("s1", 1, []string{"5", "ghost"})
	want := [][]string{{"5", "1", "2", "3", "4"}}
	if got := ids(b, "s1"); !reflect.DeepEqual(got, want) {
		t.Errorf("layout = %v, want %v", got, want)
	}
}

func TestColumnCount(t *testing.T) {
	s := &Section{Columns: 3}
	if s.ColumnCount() != 3 {
		t.Errorf("ColumnCount() = %d", s.ColumnCount())
	}
	s.VisualColumns = 5
	if s.ColumnCount() != 5 {
		t.Errorf("ColumnCount() with preview = %d", s.ColumnCount())
	}
}

func TestNormalize(t *testing.T) {
	b := newTestBoard(t)
	b.Normalize("s1")
	blk, _ := b.Block("5")
	if blk.ColIndex != 1 || blk.RowIndex != 1 {
		t.Errorf("block 5 at (%d,%d), want (1,1)", blk.ColIndex, blk.RowIndex)
	}
}

func TestObserversAndRevision(t *testing.T) {
	b := newTestBoard(t)
	var got []Change
	b.Observe(func(c Change) { got = append(got, c) })
	rev := b.Revision()

	b.Detach("1")
	b.SetDeleted("1", true)
	b.SetPosition("s1", "2", FreeformPosition{X: 1, Scale: 1})
	b.SetCamera("s1", Camera{Scale: 2})

	want := []Change{
		{ChangeColumns, "s1"},
		{ChangeBlocks, "s1"},
		{ChangeFreeform, "s1"},
		{ChangeCamera, "s1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("changes = %v, want %v", got, want)
	}
	if b.Revision() != rev+4 {
		t.Errorf("revision = %d, want %d", b.Revision(), rev+4)
	}
}

func TestCanvasDefaultsAndZ(t *testing.T) {
	b := newTestBoard(t)

	if p := b.Position("s1", "1"); p != DefaultPosition {
		t.Errorf("default position = %+v", p)
	}
	if c := b.Camera("s1"); c != DefaultCamera {
		t.Errorf("default camera = %+v", c)
	}

	b.SetPosition("s1", "1", FreeformPosition{Z: 7, Scale: 1})
	if z := b.NextZ("s1"); z != 8 {
		t.Errorf("NextZ() = %d, want 8", z)
	}

	cv, ok := b.Canvas("s1")
	if !ok {
		t.Fatal("Canvas failed")
	}
	cv.Positions["1"] = FreeformPosition{X: 99}
	if b.Position("s1", "1").X == 99 {
		t.Error("Canvas should return a copy")
	}
}

func TestRestoreCanvasDropsUnknownBlocks(t *testing.T) {
	b := newTestBoard(t)
	ok := b.RestoreCanvas("s1", Canvas{
		Positions: map[string]FreeformPosition{
			"1":     {X: 5, Z: 3},
			"ghost": {X: 1, Scale: 1},
		},
	})
	if !ok {
		t.Fatal("RestoreCanvas failed")
	}
	if b.HasPosition("s1", "ghost") {
		t.Error("unknown block position kept")
	}
	if p := b.Position("s1", "1"); p.Scale != 1 || p.X != 5 {
		t.Errorf("position = %+v, want scale defaulted to 1", p)
	}
	if b.Camera("s1") != DefaultCamera {
		t.Error("zero camera should reset to default")
	}
	if b.ZCounter("s1") != 3 {
		t.Errorf("ZCounter = %d, want 3", b.ZCounter("s1"))
	}
}

func TestRegisterAndBlocks(t *testing.T) {
	b := newTestBoard(t)
	gone := &Block{ID: "0", SectionID: "s1", Deleted: true}
	if err := b.Register(gone); err != nil {
		t.Fatal(err)
	}
	if b.Live("0") {
		t.Error("deleted block reported live")
	}
	all := b.Blocks()
	if len(all) != 6 || all[0].ID != "0" {
		t.Errorf("Blocks() = %d blocks, first %q", len(all), all[0].ID)
	}
	if len(b.SectionBlocks("s1")) != 5 {
		t.Errorf("SectionBlocks = %d, want 5", len(b.SectionBlocks("s1")))
	}
}

func TestSelection(t *testing.T) {
	s := NewSelection("a", "b", "a", "")
	if got := s.Selected(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Selected() = %v", got)
	}
	s.Toggle("a")
	s.Toggle("c")
	if got := s.Selected(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("after toggle = %v", got)
	}
	if !s.Contains("c") || s.Contains("a") {
		t.Error("Contains mismatch")
	}
	s.Clear()
	if len(s.Selected()) != 0 {
		t.Error("Clear left ids behind")
	}

	var zero OrderedSelection
	zero.Set("x")
	if !zero.Contains("x") {
		t.Error("zero value should be usable")
	}
}

func TestAspectRatio(t *testing.T) {
	if r := img("x", 200, 100).AspectRatio(); r != 0.5 {
		t.Errorf("AspectRatio() = %v", r)
	}
	if r := (&Block{}).AspectRatio(); r != 1 {
		t.Errorf("unknown size AspectRatio() = %v", r)
	}
}
