package controller

import (
	"math"
	"math/rand/v2"

	"github.com/gogpu/gg"

	"InkBoard/internal/geom"
	"InkBoard/internal/input"
	"InkBoard/internal/logging"
	"InkBoard/internal/state"
	"InkBoard/internal/tools"
)

// aaMargin pads dirty rectangles for antialiased edges, in model units.
const aaMargin = 1

type drawState struct {
	tool    *tools.Tool
	calc    tools.Calculator
	samples []input.Sample // model space
	points  []state.PathPoint
	seed    uint64

	added     gg.Rect // model space, this frame
	predicted []state.PathPoint
	committed *state.Stroke
}

var drawHandler = handler{
	begin:  (*Controller).beginDraw,
	update: (*Controller).updateDraw,
	end:    (*Controller).endDraw,
	cancel: func(c *Controller) { c.draw = drawState{} },
	redraw: (*Controller).redrawDraw,
}

func (c *Controller) beginDraw(ev input.Event, p gg.Point) error {
	uri := c.opts.VectorTool
	if c.current == DrawRaster {
		uri = c.opts.RasterTool
	}
	tool, err := c.tools.Lookup(uri)
	if err != nil {
		return err
	}
	calc, err := tool.Calculator(ev.Device)
	if err != nil {
		return err
	}
	c.draw = drawState{tool: tool, calc: calc, added: geom.EmptyRect}
	if tool.Kind == state.Raster {
		c.draw.seed = rand.Uint64()
	}
	c.addSample(ev, p)
	return nil
}

func (c *Controller) updateDraw(ev input.Event, p gg.Point) error {
	c.draw.added = geom.EmptyRect
	c.addSample(ev, p)
	c.draw.predicted = c.predict(ev, p)
	return nil
}

func (c *Controller) endDraw(ev input.Event, p gg.Point) error {
	c.draw.added = geom.EmptyRect
	c.addSample(ev, p)
	c.draw.predicted = nil
	d := c.draw
	if len(d.points) == 0 {
		c.draw = drawState{}
		return nil
	}
	s := &state.Stroke{
		ID:         state.NewStrokeID(),
		Kind:       d.tool.Kind,
		Spline:     state.NewSpline(d.points),
		Brush:      d.tool.Brush,
		Color:      c.opts.Color,
		Transform:  state.IdentityTransform,
		Blend:      d.tool.Blend,
		RandomSeed: d.seed,
	}
	if err := c.model.StoreStroke(s, -1); err != nil {
		return err
	}
	logging.Logger().Debug("stroke committed", "stroke_id", s.ID, "kind", s.Kind, "points", len(d.points))
	c.draw = drawState{added: s.Bounds(), committed: s}
	return nil
}

// addSample records the event position unless it repeats the last one.
func (c *Controller) addSample(ev input.Event, p gg.Point) {
	d := &c.draw
	cur := ev.Sample
	cur.Pos = p
	var prev *input.Sample
	if n := len(d.samples); n > 0 {
		prev = &d.samples[n-1]
		if prev.Pos == p {
			return
		}
	}
	pp, ok := d.calc(prev, &cur, nil)
	if !ok {
		return
	}
	d.samples = append(d.samples, cur)
	d.points = append(d.points, pp)
	d.added = geom.Union(d.added, segmentBounds(d.points, d.tool.Brush))
}

// segmentBounds returns the model bounds of the last segment of pts
// painted with brush.
func segmentBounds(pts []state.PathPoint, brush state.Brush) gg.Rect {
	n := len(pts)
	last := pts[n-1]
	half := reach(last, brush)
	if n == 1 {
		return geom.Inflate(geom.PointRect(last.Pos()), half)
	}
	prev := pts[n-2]
	half = max(half, reach(prev, brush))
	return geom.SegmentBounds(prev.Pos(), last.Pos(), half)
}

// reach is how far paint at p can land from the path. Raster particles
// are scattered and offset off it.
func reach(p state.PathPoint, brush state.Brush) float64 {
	w := p.Size * max(p.ScaleX, p.ScaleY)
	r := w/2 + aaMargin
	if brush.Kind == state.Raster {
		r += brush.Scattering*w + math.Hypot(p.OffsetX, p.OffsetY)
	}
	return r
}

// predict returns path points for the samples expected after the current
// one: the platform's prediction if any, else a linear extrapolation of
// the last movement.
func (c *Controller) predict(ev input.Event, p gg.Point) []state.PathPoint {
	d := &c.draw
	var future []input.Sample
	if len(ev.Predicted) > 0 {
		m := c.view.ViewToModel()
		for _, s := range ev.Predicted {
			s.Pos = m.TransformPoint(s.Pos)
			future = append(future, s)
		}
	} else if c.opts.Predict && len(d.samples) >= 2 {
		a, b := d.samples[len(d.samples)-2], d.samples[len(d.samples)-1]
		next := b
		next.Pos = b.Pos.Add(b.Pos.Sub(a.Pos))
		next.Time = b.Time + (b.Time - a.Time)
		future = append(future, next)
	}
	if len(future) == 0 || len(d.samples) == 0 {
		return nil
	}
	var out []state.PathPoint
	prev := &d.samples[len(d.samples)-1]
	for i := range future {
		if pp, ok := d.calc(prev, &future[i], nil); ok {
			out = append(out, pp)
		}
		prev = &future[i]
	}
	return out
}

// preview is the stroke drawn while the gesture is in progress.
func (c *Controller) preview() *state.Stroke {
	d := &c.draw
	pts := make([]state.PathPoint, 0, len(d.points)+len(d.predicted))
	pts = append(pts, d.points...)
	pts = append(pts, d.predicted...)
	return &state.Stroke{
		Kind:       d.tool.Kind,
		Spline:     state.NewSpline(pts),
		Brush:      d.tool.Brush,
		Color:      c.opts.Color,
		Transform:  state.IdentityTransform,
		Blend:      d.tool.Blend,
		RandomSeed: d.seed,
	}
}

func (c *Controller) predictedBounds() gg.Rect {
	d := &c.draw
	if len(d.predicted) == 0 || len(d.points) == 0 {
		return geom.EmptyRect
	}
	r := geom.EmptyRect
	pts := append([]state.PathPoint{d.points[len(d.points)-1]}, d.predicted...)
	for i := 2; i <= len(pts); i++ {
		r = geom.Union(r, segmentBounds(pts[:i], d.tool.Brush))
	}
	return r
}

// redrawDraw repaints only the region touched this frame. The committed
// stroke on release is repainted together with any stale prediction.
func (c *Controller) redrawDraw() {
	d := &c.draw
	if d.committed != nil {
		r := c.tracker.ComputeUnion(c.toView(d.committed.Bounds()))
		c.view.RedrawRect(r, c.model.Strokes(), nil)
		c.draw = drawState{}
		return
	}
	if d.tool == nil {
		return
	}
	r := c.tracker.ComputeFrameUpdateRect(c.toView(d.added), c.toView(c.predictedBounds()))
	if geom.IsEmpty(r) {
		return
	}
	c.view.RedrawRect(r, c.model.Strokes(), c.preview())
}
