package canvas

import (
	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/gesture"
)

// Extent returns the union rectangle of every live block of a section
// canvas, and false when the section has none.
func (e *Engine) Extent(sectionID string) (gesture.Rect, bool) {
	var box gesture.Rect
	found := false
	for _, blk := range e.board.SectionBlocks(sectionID) {
		r := e.rect(blk, e.board.Position(sectionID, blk.ID))
		if !found {
			box, found = r, true
			continue
		}
		box = box.Union(r)
	}
	return box, found
}

// FitCamera returns a camera showing box centered in a viewport of
// width cw and height ch, with a margin fraction around it. It never zooms
// in past 1.
func FitCamera(box gesture.Rect, cw, ch float64, bd Bounds) board.Camera {
	pw := box.W * (1 + bd.FitMargin)
	ph := box.H * (1 + bd.FitMargin)
	scale := 1.0
	if pw > 0 {
		scale = min(scale, cw/pw)
	}
	if ph > 0 {
		scale = min(scale, ch/ph)
	}
	c := box.Center()
	return board.Camera{
		X:     cw/2 - c.X*scale,
		Y:     ch/2 - c.Y*scale,
		Scale: scale,
	}
}

// Fit sets the camera of a section so all of its blocks fit a viewport of
// width cw and height ch. An empty section gets the default camera.
func (e *Engine) Fit(sectionID string, cw, ch float64) (board.Camera, bool) {
	if _, ok := e.board.Section(sectionID); !ok {
		return board.Camera{}, false
	}
	cam := board.DefaultCamera
	if box, ok := e.Extent(sectionID); ok {
		cam = FitCamera(box, cw, ch, e.bounds)
	}
	e.board.SetCamera(sectionID, cam)
	return cam, true
}
