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

// lassoState records the selection path in model space.
type lassoState struct {
	calc   tools.Calculator
	color  color.NRGBA
	path   []gg.Point
	points []state.PathPoint
	added  gg.Rect
}

var selectHandler = handler{
	begin:  (*Controller).beginSelect,
	update: (*Controller).updateSelect,
	end:    (*Controller).endSelect,
	cancel: func(c *Controller) { c.lasso = lassoState{} },
	redraw: (*Controller).redrawSelect,
}

func (c *Controller) beginSelect(ev input.Event, p gg.Point) error {
	tool, err := c.tools.Lookup(tools.SelectorURI)
	if err != nil {
		return err
	}
	calc, err := tool.Calculator(ev.Device)
	if err != nil {
		return err
	}
	c.lasso = lassoState{calc: calc, color: tool.Color}
	c.extendLasso(ev, p)
	return nil
}

func (c *Controller) updateSelect(ev input.Event, p gg.Point) error {
	c.extendLasso(ev, p)
	return nil
}

func (c *Controller) extendLasso(ev input.Event, p gg.Point) {
	l := &c.lasso
	l.added = geom.EmptyRect
	if n := len(l.path); n > 0 && l.path[n-1] == p {
		return
	}
	cur := ev.Sample
	cur.Pos = p
	pp, ok := l.calc(nil, &cur, nil)
	if !ok {
		return
	}
	l.path = append(l.path, p)
	l.points = append(l.points, pp)
	l.added = segmentBounds(l.points, tools.CircleBrush)
}

func (c *Controller) endSelect(ev input.Event, p gg.Point) error {
	c.extendLasso(ev, p)
	contour := geom.Lasso(c.lasso.path)
	op := c.current
	c.lasso = lassoState{}

	c.model.ClearSelection()
	var err error
	if op == SelectPart {
		err = c.selectParts(contour)
	} else {
		c.selectWhole(contour)
	}
	c.model.MeasureSelection()
	c.settle()
	logging.Logger().Debug("selection done", "op", op, "selected", c.model.Selection().Len())
	return err
}

// selectWhole selects the vector strokes lying entirely inside contour.
// Raster strokes cannot be moved and are never selected.
func (c *Controller) selectWhole(contour geom.Contour) {
	for _, s := range c.model.Strokes() {
		if s.Selectable() && c.splitter.Enclosed(s, contour) {
			c.model.Select(s.ID)
		}
	}
}

// selectParts splits the vector strokes crossing contour and selects the
// fragments inside it. Strokes are visited from the top so the indices of
// strokes still to visit are not shifted by the splicing.
func (c *Controller) selectParts(contour geom.Contour) error {
	strokes := c.model.Strokes()
	for i := len(strokes) - 1; i >= 0; i-- {
		s := strokes[i]
		frags := c.splitter.Split(s, contour)
		switch {
		case len(frags) == 0:
			continue
		case len(frags) == 1 && frags[0].Inside && !frags[0].Overlapped:
			c.model.Select(s.ID)
			continue
		}
		if _, err := c.replace(i, s, frags, split.Fragment.Selected); err != nil {
			return err
		}
		logging.Logger().Debug("stroke split", "stroke_id", s.ID, "fragments", len(frags))
	}
	return nil
}

// replace swaps the stroke at index for one new stroke per fragment, at
// consecutive indices from index, and selects those passing sel.
func (c *Controller) replace(index int, parent *state.Stroke, frags []split.Fragment, sel func(split.Fragment) bool) ([]*state.Stroke, error) {
	if _, err := c.model.RemoveStroke(index); err != nil {
		return nil, err
	}
	out := make([]*state.Stroke, 0, len(frags))
	for j, f := range frags {
		fs := parent.Fragment(f.Begin, f.Count, f.Ts, f.Tf)
		if err := c.model.StoreStroke(fs, index+j); err != nil {
			return out, err
		}
		if sel(f) {
			c.model.Select(fs.ID)
		}
		out = append(out, fs)
	}
	return out, nil
}

func (c *Controller) redrawSelect() {
	l := &c.lasso
	if len(l.points) == 0 {
		return
	}
	r := c.tracker.ComputeFrameUpdateRect(c.toView(l.added), geom.EmptyRect)
	if geom.IsEmpty(r) {
		return
	}
	c.view.RedrawRect(r, c.model.Strokes(), &state.Stroke{
		Kind:      state.Vector,
		Spline:    state.NewSpline(l.points),
		Brush:     tools.CircleBrush,
		Color:     l.color,
		Transform: state.IdentityTransform,
	})
}
