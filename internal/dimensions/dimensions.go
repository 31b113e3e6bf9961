// Package dimensions describes the captured sub-region of a surface and its
// terminal-cell-scaled counterpart.
package dimensions

// Rect is a sub-region of a surface, in that surface's pixels.
type Rect struct {
	Top    int
	Left   int
	Width  int
	Height int
}

// Bottom returns the first row below the region.
func (r Rect) Bottom() int { return r.Top + r.Height }

// Right returns the first column right of the region.
func (r Rect) Right() int { return r.Left + r.Width }

// Size is a width/height pair.
type Size struct {
	Width  int
	Height int
}

// ScaleFactor maps surface pixels to cell-scaled pixels.
type ScaleFactor struct {
	Width  float64
	Height float64
}

// FrameMeta is the metadata attached to every serialized frame.
type FrameMeta struct {
	SubLeft     int `json:"sub_left"`
	SubTop      int `json:"sub_top"`
	SubWidth    int `json:"sub_width"`
	SubHeight   int `json:"sub_height"`
	TotalWidth  int `json:"total_width"`
	TotalHeight int `json:"total_height"`
	ID          int `json:"id"`
}

// Dimensions holds the full-resolution region being captured (DOM) and the
// matching region in cell-scaled space (Frame). Each terminal cell is two
// scaled pixels tall, so one cell's height maps to char.Height/2 surface rows.
type Dimensions struct {
	Char  Size
	Total Size
	DOM   Rect
	Frame Rect
	Scale ScaleFactor
}

// New creates Dimensions for a surface of the given total size, using char as
// the size in surface pixels of one terminal cell. The sub-region starts as the
// whole surface.
func New(total, char Size) *Dimensions {
	d := &Dimensions{Char: char, Total: total}
	d.Update(Rect{Width: total.Width, Height: total.Height})
	return d
}

// Update sets the captured sub-region and recomputes the scaled frame and the
// scale factor. The region is clamped to the surface.
func (d *Dimensions) Update(sub Rect) {
	d.DOM = d.clamp(sub)
	cellW, cellH := d.cellPixels()
	d.Frame = Rect{
		Left:   int(float64(d.DOM.Left) / cellW),
		Top:    int(float64(d.DOM.Top) / cellH),
		Width:  int(float64(d.DOM.Width) / cellW),
		Height: int(float64(d.DOM.Height) / cellH),
	}
	d.Scale = ScaleFactor{
		Width:  ratio(d.Frame.Width, d.DOM.Width),
		Height: ratio(d.Frame.Height, d.DOM.Height),
	}
}

// FrameMeta returns the frame metadata without an id.
func (d *Dimensions) FrameMeta() FrameMeta {
	cellW, cellH := d.cellPixels()
	return FrameMeta{
		SubLeft:     d.Frame.Left,
		SubTop:      d.Frame.Top,
		SubWidth:    d.Frame.Width,
		SubHeight:   d.Frame.Height,
		TotalWidth:  int(float64(d.Total.Width) / cellW),
		TotalHeight: int(float64(d.Total.Height) / cellH),
	}
}

func (d *Dimensions) cellPixels() (w, h float64) {
	w = float64(d.Char.Width)
	h = float64(d.Char.Height) / 2
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

func (d *Dimensions) clamp(r Rect) Rect {
	if r.Left < 0 {
		r.Width += r.Left
		r.Left = 0
	}
	if r.Top < 0 {
		r.Height += r.Top
		r.Top = 0
	}
	if d.Total.Width > 0 && r.Right() > d.Total.Width {
		r.Width = d.Total.Width - r.Left
	}
	if d.Total.Height > 0 && r.Bottom() > d.Total.Height {
		r.Height = d.Total.Height - r.Top
	}
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

func ratio(scaled, full int) float64 {
	if full <= 0 {
		return 0
	}
	return float64(scaled) / float64(full)
}
