package canvas

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/gesture"
	"github.com/matzehuels/refboard/pkg/history"
)

const tol = 1e-9

type fixture struct {
	b     *board.Board
	stack *history.Stack
	sel   *board.OrderedSelection
	bus   *gesture.Bus
	e     *Engine
}

// newFixture builds section "s" with
//
//	a: image 300x300 (base 300x300)
//	w: image 600x300 (base 300x150)
//	t: text 100x50
func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := board.New("b", "")
	layout := board.SectionColumns{{
		{ID: "a", Type: board.BlockImage, Width: 300, Height: 300},
		{ID: "w", Type: board.BlockImage, Width: 600, Height: 300},
		{ID: "t", Type: board.BlockText, Width: 100, Height: 50},
	}}
	if err := b.AddSection(&board.Section{ID: "s", Columns: 1}, layout); err != nil {
		t.Fatal(err)
	}
	if err := b.AddSection(&board.Section{ID: "empty"}, nil); err != nil {
		t.Fatal(err)
	}
	f := &fixture{b: b, stack: history.New(0), sel: board.NewSelection(), bus: &gesture.Bus{}}
	f.e = New(b, f.stack, f.sel, WithBus(f.bus))
	return f
}

func (f *fixture) move(x, y float64) {
	f.bus.Dispatch(gesture.PointerEvent{Kind: gesture.PointerMove, Pos: gesture.Point{X: x, Y: y}})
}

func (f *fixture) up(x, y float64) {
	f.bus.Dispatch(gesture.PointerEvent{Kind: gesture.PointerUp, Pos: gesture.Point{X: x, Y: y}})
}

func samePosition(t *testing.T, what string, got, want board.FreeformPosition) {
	t.Helper()
	if !scalar.EqualWithinAbs(got.X, want.X, tol) ||
		!scalar.EqualWithinAbs(got.Y, want.Y, tol) ||
		!scalar.EqualWithinAbs(got.Scale, want.Scale, tol) ||
		got.Z != want.Z {
		t.Errorf("%s = %+v, want %+v", what, got, want)
	}
}

func sameCamera(t *testing.T, what string, got, want board.Camera) {
	t.Helper()
	if !scalar.EqualWithinAbs(got.X, want.X, tol) ||
		!scalar.EqualWithinAbs(got.Y, want.Y, tol) ||
		!scalar.EqualWithinAbs(got.Scale, want.Scale, tol) {
		t.Errorf("%s = %+v, want %+v", what, got, want)
	}
}
