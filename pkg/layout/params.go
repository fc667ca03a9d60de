package layout

import "math"

// Params are the container metrics the column layout depends on.
type Params struct {
	ContainerWidth float64 `toml:"container_width" json:"container_width"`
	SidebarWidth   float64 `toml:"sidebar_width" json:"sidebar_width"`
	ScrollbarWidth float64 `toml:"scrollbar_width" json:"scrollbar_width"`
	Spacing        float64 `toml:"spacing" json:"spacing"`
	GalleryPadding float64 `toml:"gallery_padding" json:"gallery_padding"`
	CaptionHeight  float64 `toml:"caption_height" json:"caption_height"`

	// Split is set while a mirrored secondary view shares the container.
	Split bool `toml:"split" json:"split"`
}

// DefaultParams returns metrics for a 1440px wide window with the sidebar
// open.
func DefaultParams() Params {
	return Params{
		ContainerWidth: 1440,
		SidebarWidth:   240,
		ScrollbarWidth: 16,
		Spacing:        16,
		GalleryPadding: 48,
		CaptionHeight:  28,
	}
}

// Valid reports whether every metric is a finite number, the container
// width is positive and no other size is negative.
func (p Params) Valid() bool {
	if !(p.ContainerWidth > 0) {
		return false
	}
	for _, v := range []float64{p.ContainerWidth, p.SidebarWidth, p.ScrollbarWidth, p.Spacing, p.GalleryPadding, p.CaptionHeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// ColumnWidth returns the pixel width of one column when the container is
// divided into the given number of columns. The result is never negative.
func ColumnWidth(p Params, columns int) float64 {
	if columns < 1 {
		return 0
	}
	chrome := p.ScrollbarWidth + p.Spacing*float64(columns) + p.GalleryPadding
	views := 1.0
	if p.Split {
		chrome *= 2
		views = 2
	}
	available := p.ContainerWidth - p.SidebarWidth - chrome
	w := available / views / float64(columns)
	if w < 0 {
		return 0
	}
	return w
}
