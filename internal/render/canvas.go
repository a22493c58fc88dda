// Package render rasterises the board into a scene layer holding the
// committed strokes and an overlay layer holding the selection, and
// composites the two for display.
package render

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"InkBoard/internal/geom"
	"InkBoard/internal/logging"
	"InkBoard/internal/state"
)

const (
	minZoom = 0.1
	maxZoom = 10
)

var (
	Background     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	SelectionFrame = color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff}
)

// Canvas is the view the controller draws through. Coordinates passed to
// RedrawRect are view pixels; stroke geometry is model space and goes
// through ModelToView.
type Canvas struct {
	mu sync.Mutex

	width, height int
	wantW, wantH  int

	scene   *image.RGBA
	overlay *image.RGBA
	include func(*state.Stroke) bool

	pan  gg.Point
	zoom float64

	// OnChange is called after any layer was repainted.
	OnChange func()
}

// NewCanvas returns a canvas of the given pixel size with an identity view.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{zoom: 1, wantW: width, wantH: height}
	c.ResizeIfNeeded()
	return c
}

// SetSize records the size the layers should have. The layers are
// reallocated by the next ResizeIfNeeded.
func (c *Canvas) SetSize(width, height int) {
	c.mu.Lock()
	c.wantW, c.wantH = width, height
	c.mu.Unlock()
}

// Size returns the current layer size in pixels.
func (c *Canvas) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *Canvas) ResizeIfNeeded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, h := max(c.wantW, 1), max(c.wantH, 1)
	if w == c.width && h == c.height {
		return
	}
	c.width, c.height = w, h
	c.scene = image.NewRGBA(image.Rect(0, 0, w, h))
	c.overlay = image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(c.scene, c.scene.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	logging.Logger().Debug("canvas resized", "width", w, "height", h)
}

// Pan moves the view by d view pixels.
func (c *Canvas) Pan(d gg.Point) {
	c.mu.Lock()
	c.pan = c.pan.Add(d)
	c.mu.Unlock()
}

// Zoom scales the view by factor keeping the view point around fixed.
func (c *Canvas) Zoom(factor float64, around gg.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	z := math.Min(math.Max(c.zoom*factor, minZoom), maxZoom)
	// keep around at the same model point
	m := around.Sub(c.pan).Div(c.zoom)
	c.zoom = z
	c.pan = around.Sub(m.Mul(z))
}

// ModelToView maps model coordinates to view pixels.
func (c *Canvas) ModelToView() gg.Matrix {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modelToView()
}

func (c *Canvas) modelToView() gg.Matrix {
	return gg.Translate(c.pan.X, c.pan.Y).Multiply(gg.Scale(c.zoom, c.zoom))
}

// ViewToModel maps view pixels to model coordinates.
func (c *Canvas) ViewToModel() gg.Matrix {
	return c.ModelToView().Invert()
}

// RedrawAll repaints the scene with the strokes passing include. The
// filter is kept for later partial redraws.
func (c *Canvas) RedrawAll(strokes []*state.Stroke, include func(*state.Stroke) bool) {
	c.mu.Lock()
	c.include = include
	r := image.Rect(0, 0, c.width, c.height)
	c.paintScene(r, strokes, nil)
	c.mu.Unlock()
	c.changed()
}

// RedrawRect repaints the part of the scene under dirty, a view-space
// rectangle, and draws preview on top of it.
func (c *Canvas) RedrawRect(dirty gg.Rect, strokes []*state.Stroke, preview *state.Stroke) {
	if geom.IsEmpty(dirty) {
		return
	}
	c.mu.Lock()
	r := pixelRect(dirty).Intersect(image.Rect(0, 0, c.width, c.height))
	if r.Empty() {
		c.mu.Unlock()
		return
	}
	c.paintScene(r, strokes, preview)
	c.mu.Unlock()
	c.changed()
}

// RedrawOverlay paints the selected strokes displaced by offset, in model
// units, with a frame around the selection bounds.
func (c *Canvas) RedrawOverlay(strokes []*state.Stroke, sel *state.Selection, offset gg.Point) {
	c.mu.Lock()
	dc := gg.NewContext(c.width, c.height)
	if sel.Len() > 0 {
		m := c.modelToView().Multiply(gg.Translate(offset.X, offset.Y))
		for _, s := range strokes {
			if sel.Contains(s.ID) {
				paintStroke(dc, s, m, c.zoom)
			}
		}
		if b := sel.Bounds(); !geom.IsEmpty(b) {
			frame(dc, geom.Transform(m, b))
		}
	}
	draw.Draw(c.overlay, c.overlay.Bounds(), dc.Image(), image.Point{}, draw.Src)
	c.mu.Unlock()
	c.changed()
}

// Image returns the overlay composited over the scene.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := image.NewRGBA(c.scene.Bounds())
	draw.Draw(out, out.Bounds(), c.scene, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), c.overlay, image.Point{}, draw.Over)
	return out
}

// Scaled returns the composited image resampled to w by h pixels.
func (c *Canvas) Scaled(w, h int) *image.RGBA {
	src := c.Image()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func (c *Canvas) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

// paintScene rasterises r of the scene into a scratch context the size of
// r and copies it in place.
func (c *Canvas) paintScene(r image.Rectangle, strokes []*state.Stroke, preview *state.Stroke) {
	dc := gg.NewContext(r.Dx(), r.Dy())
	dc.ClearWithColor(gg.FromColor(Background))
	m := gg.Translate(float64(-r.Min.X), float64(-r.Min.Y)).Multiply(c.modelToView())
	view := gg.NewRect(gg.Pt(0, 0), gg.Pt(float64(r.Dx()), float64(r.Dy())))
	for _, s := range strokes {
		if c.include != nil && !c.include(s) {
			continue
		}
		if !geom.Intersects(view, geom.Transform(m, s.Bounds())) {
			continue
		}
		paintStroke(dc, s, m, c.zoom)
	}
	if preview != nil {
		paintStroke(dc, preview, m, c.zoom)
	}
	draw.Draw(c.scene, r, dc.Image(), image.Point{}, draw.Src)
}

func paintStroke(dc *gg.Context, s *state.Stroke, m gg.Matrix, zoom float64) {
	cache := s.Cached()
	if blend, ok := layerBlend(s.Blend); ok {
		dc.PushLayer(blend, 1)
		defer dc.PopLayer()
	}
	var err error
	if s.Kind == state.Raster {
		for _, p := range cache.Particles {
			dc.SetColor(withAlpha(s.Color, p.Alpha))
			v := m.TransformPoint(p.Pos)
			dc.Push()
			dc.Translate(v.X, v.Y)
			dc.Rotate(p.Rotation)
			dc.DrawEllipse(0, 0, p.Width*zoom/2, p.Height*zoom/2)
			err = dc.Fill()
			dc.Pop()
		}
	} else {
		err = paintPath(dc, s, cache.Samples, m, zoom)
	}
	if err != nil {
		logging.Logger().Warn("stroke not painted", "stroke_id", s.ID, "err", err)
	}
}

// paintPath draws each segment with round caps at the mean width of its
// ends, which hides the joins between segments of different widths.
func paintPath(dc *gg.Context, s *state.Stroke, samples []state.PathPoint, m gg.Matrix, zoom float64) error {
	if len(samples) == 0 {
		return nil
	}
	dc.SetLineCap(gg.LineCapRound)
	if len(samples) == 1 {
		p := samples[0]
		v := m.TransformPoint(p.Pos())
		dc.SetColor(withAlpha(s.Color, p.Alpha))
		dc.DrawCircle(v.X, v.Y, s.PointWidth(p)*zoom/2)
		return dc.Fill()
	}
	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		va, vb := m.TransformPoint(a.Pos()), m.TransformPoint(b.Pos())
		dc.SetColor(withAlpha(s.Color, (a.Alpha+b.Alpha)/2))
		dc.SetLineWidth((s.PointWidth(a) + s.PointWidth(b)) / 2 * zoom)
		dc.MoveTo(va.X, va.Y)
		dc.LineTo(vb.X, vb.Y)
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func frame(dc *gg.Context, r gg.Rect) {
	dc.SetColor(SelectionFrame)
	dc.SetLineWidth(1)
	dc.SetDash(4, 3)
	dc.DrawRectangle(r.Min.X, r.Min.Y, r.Width(), r.Height())
	_ = dc.Stroke()
	dc.SetDash()
}

func layerBlend(b state.BlendMode) (gg.BlendMode, bool) {
	switch b {
	case state.BlendMultiply:
		return gg.BlendMultiply, true
	case state.BlendAdd:
		return gg.BlendScreen, true
	}
	return gg.BlendNormal, false
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * math.Min(math.Max(a, 0), 1)))
	return c
}

func pixelRect(r gg.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X)), int(math.Ceil(r.Max.Y)),
	)
}
