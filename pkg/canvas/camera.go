package canvas

import (
	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/gesture"
)

// ScreenToWorld maps a screen point through cam.
func ScreenToWorld(cam board.Camera, p gesture.Point) gesture.Point {
	return gesture.Point{X: (p.X - cam.X) / cam.Scale, Y: (p.Y - cam.Y) / cam.Scale}
}

// WorldToScreen maps a world point through cam.
func WorldToScreen(cam board.Camera, p gesture.Point) gesture.Point {
	return gesture.Point{X: p.X*cam.Scale + cam.X, Y: p.Y*cam.Scale + cam.Y}
}

// Zoom returns cam scaled by factor around the screen point (sx, sy): the
// world point under it stays under it. The new scale is clamped to the
// zoom bounds.
func Zoom(cam board.Camera, sx, sy, factor float64, bd Bounds) board.Camera {
	world := ScreenToWorld(cam, gesture.Point{X: sx, Y: sy})
	scale := bd.clampZoom(cam.Scale * factor)
	return board.Camera{
		X:     sx - world.X*scale,
		Y:     sy - world.Y*scale,
		Scale: scale,
	}
}

// Pan moves the camera of a section by a screen delta.
func (e *Engine) Pan(sectionID string, dx, dy float64) bool {
	cam := e.board.Camera(sectionID)
	cam.X += dx
	cam.Y += dy
	return e.board.SetCamera(sectionID, cam)
}

// ZoomAt zooms a section's camera by factor around a screen point.
func (e *Engine) ZoomAt(sectionID string, sx, sy, factor float64) bool {
	if factor <= 0 {
		return false
	}
	return e.board.SetCamera(sectionID, Zoom(e.board.Camera(sectionID), sx, sy, factor, e.bounds))
}

// Wheel zooms by one step per wheel event: in for a negative delta (wheel
// up), out for a positive one.
func (e *Engine) Wheel(sectionID string, sx, sy, deltaY float64) bool {
	switch {
	case deltaY < 0:
		return e.ZoomAt(sectionID, sx, sy, e.bounds.ZoomStep)
	case deltaY > 0:
		return e.ZoomAt(sectionID, sx, sy, 1/e.bounds.ZoomStep)
	}
	return false
}

// BeginPan starts dragging the empty canvas.
func (e *Engine) BeginPan(sectionID string, origin gesture.Point) bool {
	if e.active != nil {
		return false
	}
	if _, ok := e.board.Section(sectionID); !ok {
		return false
	}
	cam0 := e.board.Camera(sectionID)
	e.begin(&active{
		kind:    "pan",
		section: sectionID,
		origin:  origin,
		update: func(d gesture.Point) bool {
			e.board.SetCamera(sectionID, board.Camera{X: cam0.X + d.X, Y: cam0.Y + d.Y, Scale: cam0.Scale})
			return true
		},
		cancel: func() { e.board.SetCamera(sectionID, cam0) },
	})
	return true
}
