package canvas

import "github.com/matzehuels/refboard/pkg/board"

// Bounds are the limits and constants of the freeform engine.
type Bounds struct {
	MinScale     float64 `toml:"min_scale" json:"min_scale"`
	MaxScale     float64 `toml:"max_scale" json:"max_scale"`
	MinPixelSize float64 `toml:"min_pixel_size" json:"min_pixel_size"`
	MinZoom      float64 `toml:"min_zoom" json:"min_zoom"`
	MaxZoom      float64 `toml:"max_zoom" json:"max_zoom"`
	ZoomStep     float64 `toml:"zoom_step" json:"zoom_step"`
	FitMargin    float64 `toml:"fit_margin" json:"fit_margin"`
	BaseWidth    float64 `toml:"base_width" json:"base_width"`
}

// DefaultBounds returns the standard limits.
func DefaultBounds() Bounds {
	return Bounds{
		MinScale:     0.1,
		MaxScale:     8,
		MinPixelSize: 24,
		MinZoom:      0.1,
		MaxZoom:      5,
		ZoomStep:     1.1,
		FitMargin:    0.1,
		BaseWidth:    300,
	}
}

// BaseSize returns the world size of a block at scale 1.
func (bd Bounds) BaseSize(b *board.Block) (w, h float64) {
	if b.Type == board.BlockText && b.Width > 0 && b.Height > 0 {
		return b.Width, b.Height
	}
	return bd.BaseWidth, bd.BaseWidth * b.AspectRatio()
}

// Allows reports whether a block of base size (w, h) may take the given
// scale.
func (bd Bounds) Allows(w, h, scale float64) bool {
	if scale < bd.MinScale || scale > bd.MaxScale {
		return false
	}
	return w*scale >= bd.MinPixelSize && h*scale >= bd.MinPixelSize
}

func (bd Bounds) clampZoom(z float64) float64 {
	return min(max(z, bd.MinZoom), bd.MaxZoom)
}
