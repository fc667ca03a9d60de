package canvas

import (
	"testing"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/gesture"
)

func TestResize(t *testing.T) {
	bd := DefaultBounds()
	p := board.FreeformPosition{X: 100, Y: 100, Z: 3, Scale: 1}

	tests := []struct {
		name   string
		handle Handle
		dx, dy float64
		want   board.FreeformPosition
	}{
		{"se grows from top-left", HandleSE, 30, 30, board.FreeformPosition{X: 100, Y: 100, Z: 3, Scale: 1.1}},
		{"se averages axes", HandleSE, 60, 0, board.FreeformPosition{X: 100, Y: 100, Z: 3, Scale: 1.1}},
		{"nw anchors bottom-right", HandleNW, -30, -30, board.FreeformPosition{X: 70, Y: 70, Z: 3, Scale: 1.1}},
		{"ne anchors bottom-left", HandleNE, 30, -30, board.FreeformPosition{X: 100, Y: 70, Z: 3, Scale: 1.1}},
		{"sw anchors top-right", HandleSW, -30, 30, board.FreeformPosition{X: 70, Y: 100, Z: 3, Scale: 1.1}},
		{"e recenters vertically", HandleE, 30, 99, board.FreeformPosition{X: 100, Y: 85, Z: 3, Scale: 1.1}},
		{"n recenters horizontally", HandleN, 99, -30, board.FreeformPosition{X: 85, Y: 70, Z: 3, Scale: 1.1}},
		{"w shrinks toward the right edge", HandleW, 30, 0, board.FreeformPosition{X: 130, Y: 115, Z: 3, Scale: 0.9}},
		{"s shrinks", HandleS, 0, -60, board.FreeformPosition{X: 130, Y: 100, Z: 3, Scale: 0.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resize(p, 300, 300, tt.handle, tt.dx, tt.dy, bd)
			if !ok {
				t.Fatal("Resize rejected a valid update")
			}
			samePosition(t, "position", got, tt.want)
		})
	}
}

func TestResizeRejectsOutOfBounds(t *testing.T) {
	bd := DefaultBounds()
	tests := []struct {
		name   string
		p      board.FreeformPosition
		bw, bh float64
		handle Handle
		dx, dy float64
	}{
		// 300x150 at 0.2 is 60x30; shrinking to scale 0.1 makes it 15px tall.
		{"below min pixel size", board.FreeformPosition{Scale: 0.2}, 300, 150, HandleE, -30, 0},
		{"below min scale", board.FreeformPosition{Scale: 1}, 1000, 1000, HandleSE, -950, -950},
		{"above max scale", board.FreeformPosition{Scale: 7.9}, 100, 100, HandleSE, 100, 100},
		{"inverted", board.FreeformPosition{Scale: 1}, 300, 300, HandleS, 0, -400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resize(tt.p, tt.bw, tt.bh, tt.handle, tt.dx, tt.dy, bd)
			if ok {
				t.Fatalf("Resize accepted %+v", got)
			}
			if got != tt.p {
				t.Errorf("rejected Resize returned %+v, want the input", got)
			}
		})
	}
}

func TestResizeGestureFreezesAtBound(t *testing.T) {
	f := newFixture(t)
	// w has base 300x150; at scale 0.2 it is 60x30 pixels.
	f.b.SetPosition("s", "w", board.FreeformPosition{X: 10, Y: 10, Scale: 0.2})
	before := f.b.Position("s", "w")

	if !f.e.BeginResize("s", "w", HandleE, gesture.Point{X: 70, Y: 25}) {
		t.Fatal("BeginResize failed")
	}
	f.move(40, 25) // would be 15px tall
	f.up(40, 25)

	if got := f.b.Position("s", "w"); got.Scale != before.Scale {
		t.Errorf("scale = %v, want unchanged %v", got.Scale, before.Scale)
	}
	if f.stack.CanUndo() {
		t.Error("rejected resize pushed an undo action")
	}
	if f.bus.Len() != 0 {
		t.Errorf("listeners leaked: %d", f.bus.Len())
	}
}

func TestResizeGestureRecoversAfterRejectedSample(t *testing.T) {
	f := newFixture(t)
	f.b.SetPosition("s", "a", board.FreeformPosition{Scale: 1})

	f.e.BeginResize("s", "a", HandleSE, gesture.Point{X: 300, Y: 300})
	f.move(330, 330)
	samePosition(t, "first sample", f.b.Position("s", "a"), board.FreeformPosition{Scale: 1.1})
	f.move(-100, -100) // inverted: frozen at 1.1
	samePosition(t, "frozen", f.b.Position("s", "a"), board.FreeformPosition{Scale: 1.1})
	f.up(360, 360)
	samePosition(t, "released", f.b.Position("s", "a"), board.FreeformPosition{Scale: 1.2})

	if got := f.stack.UndoLabel(); got != "Resize block" {
		t.Errorf("UndoLabel() = %q", got)
	}
	f.stack.Undo()
	samePosition(t, "after undo", f.b.Position("s", "a"), board.FreeformPosition{Scale: 1})
}

func TestResizeGestureUsesCameraScale(t *testing.T) {
	f := newFixture(t)
	f.b.SetCamera("s", board.Camera{Scale: 2})

	f.e.BeginResize("s", "a", HandleE, gesture.Point{})
	f.up(60, 0) // 30 world units

	samePosition(t, "position", f.b.Position("s", "a"), board.FreeformPosition{X: 0, Y: -15, Scale: 1.1})
}

func TestHandles(t *testing.T) {
	corners := 0
	for h := HandleN; h <= HandleNW; h++ {
		if h.IsCorner() {
			corners++
		}
		parsed, ok := ParseHandle(h.String())
		if !ok || parsed != h {
			t.Errorf("ParseHandle(%q) = %v, %v", h.String(), parsed, ok)
		}
	}
	if corners != 4 {
		t.Errorf("corners = %d, want 4", corners)
	}
	if _, ok := ParseHandle("middle"); ok {
		t.Error("ParseHandle accepted an unknown name")
	}
	if Handle(42).String() != "unknown" {
		t.Error("out of range handle should print unknown")
	}
}
