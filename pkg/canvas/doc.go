// Package canvas implements the freeform mode of a section: a pan/zoom
// camera and per-block transforms with move and resize gestures.
//
// # Coordinates
//
// Block positions live in world coordinates. A section's [board.Camera]
// maps them to the screen:
//
//	screen = world*camera.Scale + (camera.X, camera.Y)
//
// A block's world size is its base size times its scale. Images have a
// base width of [Bounds.BaseWidth] and keep their aspect ratio; text blocks
// use their measured size.
//
// # Gestures
//
// [Engine.BeginMove], [Engine.BeginResize], [Engine.BeginGroupResize] and
// [Engine.BeginPan] start a gesture and install move/up listeners on the
// engine's [gesture.Bus]; the listeners are removed however the gesture
// ends. Each sample is computed from the state at gesture start plus the
// cumulative pointer delta, so an update rejected by [Bounds] simply leaves
// the last valid state in place while the pointer keeps being tracked.
//
// Committed moves and resizes are pushed to the shared
// [history.Stack]; camera changes are view state and are not.
//
// [board.Camera]: github.com/matzehuels/refboard/pkg/board.Camera
// [gesture.Bus]: github.com/matzehuels/refboard/pkg/gesture.Bus
// [history.Stack]: github.com/matzehuels/refboard/pkg/history.Stack
package canvas
