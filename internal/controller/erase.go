package controller

import (
	"image/color"

	"github.com/gogpu/gg"

	"InkBoard/internal/geom"
	"InkBoard/internal/input"
	"InkBoard/internal/logging"
	"InkBoard/internal/split"
	"InkBoard/internal/state"
	"InkBoard/internal/tools"
)

// eraseState collects the eraser path in model space. The tip is never
// smaller than Options.EraserSize, grows with the tool's size channel and
// does not shrink within a gesture. The collection is only changed on
// release.
type eraseState struct {
	calc   tools.Calculator
	color  color.NRGBA
	last   *input.Sample
	points []state.PathPoint
	size   float64
	added  gg.Rect
	done   bool
}

var eraseHandler = handler{
	begin:  (*Controller).beginErase,
	update: (*Controller).updateErase,
	end:    (*Controller).endErase,
	cancel: func(c *Controller) { c.eraser = eraseState{} },
	redraw: (*Controller).redrawErase,
}

func (c *Controller) beginErase(ev input.Event, p gg.Point) error {
	tool, err := c.tools.Lookup(tools.EraserURI)
	if err != nil {
		return err
	}
	calc, err := tool.Calculator(ev.Device)
	if err != nil {
		return err
	}
	c.eraser = eraseState{calc: calc, color: tool.Color, size: c.opts.EraserSize}
	c.extendEraser(ev, p)
	return nil
}

func (c *Controller) updateErase(ev input.Event, p gg.Point) error {
	c.extendEraser(ev, p)
	return nil
}

func (c *Controller) endErase(ev input.Event, p gg.Point) error {
	c.extendEraser(ev, p)
	e := &c.eraser
	e.done = true
	if len(e.points) == 0 {
		return nil
	}
	path := make([]gg.Point, len(e.points))
	for i, pp := range e.points {
		path[i] = pp.Pos()
	}
	swath := geom.Swath(path, e.size/2)

	var (
		n   int
		err error
	)
	if c.current == EraseWhole {
		n, err = c.eraseWhole(swath)
	} else {
		n, err = c.erasePart(swath)
	}
	if n > 0 {
		logging.Logger().Debug("strokes erased", "op", c.current, "strokes", n)
	}
	return err
}

// extendEraser appends the tip position unless it repeats the last one.
func (c *Controller) extendEraser(ev input.Event, p gg.Point) {
	e := &c.eraser
	e.added = geom.EmptyRect
	if n := len(e.points); n > 0 && e.points[n-1].Pos() == p {
		return
	}
	cur := ev.Sample
	cur.Pos = p
	size := e.size
	if pp, ok := e.calc(e.last, &cur, nil); ok {
		size = max(size, pp.Size)
	}
	e.last = &cur

	pt := state.NewPathPoint(p.X, p.Y)
	if size > e.size {
		// the whole trail is repainted at the new tip size
		e.size = size
		for i := range e.points {
			e.points[i].Size = size
		}
		for _, q := range e.points {
			e.added = geom.Union(e.added, geom.Inflate(geom.PointRect(q.Pos()), size/2+aaMargin))
		}
	}
	pt.Size = e.size
	e.points = append(e.points, pt)
	e.added = geom.Union(e.added, segmentBounds(e.points, tools.CircleBrush))
}

func (c *Controller) redrawErase() {
	e := &c.eraser
	if e.done {
		c.eraser = eraseState{}
		c.redrawAll()
		return
	}
	if len(e.points) == 0 {
		return
	}
	r := c.tracker.ComputeFrameUpdateRect(c.toView(e.added), geom.EmptyRect)
	if geom.IsEmpty(r) {
		return
	}
	c.view.RedrawRect(r, c.model.Strokes(), &state.Stroke{
		Kind:      state.Vector,
		Spline:    state.NewSpline(e.points),
		Brush:     tools.CircleBrush,
		Color:     e.color,
		Transform: state.IdentityTransform,
	})
}

// eraseWhole removes every stroke, vector or raster, touching the swath.
func (c *Controller) eraseWhole(swath geom.Contour) (int, error) {
	strokes := c.model.Strokes()
	n := 0
	for i := len(strokes) - 1; i >= 0; i-- {
		if !c.splitter.Touches(strokes[i], swath) {
			continue
		}
		if _, err := c.model.RemoveStroke(i); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// erasePart cuts the swath out of vector strokes, keeping the fragments
// lying wholly outside it. Raster strokes are not split.
func (c *Controller) erasePart(swath geom.Contour) (int, error) {
	strokes := c.model.Strokes()
	n := 0
	for i := len(strokes) - 1; i >= 0; i-- {
		frags := c.splitter.Split(strokes[i], swath)
		if len(frags) == 0 {
			continue
		}
		var keep []split.Fragment
		for _, f := range frags {
			if !f.Selected() {
				keep = append(keep, f)
			}
		}
		if _, err := c.replace(i, strokes[i], keep, func(split.Fragment) bool { return false }); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
