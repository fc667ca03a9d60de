package canvas

import (
	"testing"

	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/gesture"
)

func TestFitCamera(t *testing.T) {
	bd := DefaultBounds()
	tests := []struct {
		name   string
		box    gesture.Rect
		cw, ch float64
		want   board.Camera
	}{
		{
			name: "small content is not zoomed in",
			box:  gesture.Rect{W: 300, H: 300},
			cw:   1000, ch: 1000,
			want: board.Camera{X: 350, Y: 350, Scale: 1},
		},
		{
			name: "tall viewport limit",
			box:  gesture.Rect{W: 2400, H: 2400},
			cw:   1320, ch: 660,
			want: board.Camera{X: 360, Y: 30, Scale: 0.25},
		},
		{
			name: "offset content is centered",
			box:  gesture.Rect{X: 1000, Y: -500, W: 1100, H: 550},
			cw:   605, ch: 605,
			want: board.Camera{X: 302.5 - 1550*0.5, Y: 302.5 + 225*0.5, Scale: 0.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sameCamera(t, "camera", FitCamera(tt.box, tt.cw, tt.ch, bd), tt.want)
		})
	}
}

func TestFit(t *testing.T) {
	f := newFixture(t)
	f.b.SetPositions("s", map[string]board.FreeformPosition{
		"a": {X: 0, Y: 0, Scale: 1},
		"w": {X: 300, Y: 0, Scale: 1},   // 300x150
		"t": {X: 0, Y: 300, Scale: 2.5}, // 250x125
	})
	box, ok := f.e.Extent("s")
	if !ok || box != (gesture.Rect{W: 600, H: 425}) {
		t.Fatalf("Extent() = %+v, %v", box, ok)
	}

	cam, ok := f.e.Fit("s", 660, 1000)
	if !ok {
		t.Fatal("Fit failed")
	}
	sameCamera(t, "camera", cam, board.Camera{X: 330 - 300*1, Y: 500 - 212.5, Scale: 1})
	sameCamera(t, "stored camera", f.b.Camera("s"), cam)
}

func TestFitEmptySection(t *testing.T) {
	f := newFixture(t)
	f.b.SetCamera("empty", board.Camera{X: 4, Y: 4, Scale: 3})

	cam, ok := f.e.Fit("empty", 800, 600)
	if !ok || cam != board.DefaultCamera {
		t.Errorf("Fit() = %+v, %v, want the default camera", cam, ok)
	}
	if _, ok := f.e.Fit("nope", 800, 600); ok {
		t.Error("Fit on unknown section should fail")
	}
}
