// Package controller turns pointer events into ink operations: drawing,
// erasing, selecting and moving strokes. Exactly one operation is current
// at a time; it is chosen when a gesture starts and receives every event
// of that gesture.
package controller

import (
	"fmt"
	"image/color"
	"slices"

	"github.com/gogpu/gg"
	"github.com/google/uuid"

	"InkBoard/internal/dirty"
	"InkBoard/internal/geom"
	"InkBoard/internal/input"
	"InkBoard/internal/logging"
	"InkBoard/internal/split"
	"InkBoard/internal/state"
	"InkBoard/internal/tools"
)

// Options configures a Controller.
type Options struct {
	Mode       OperationMode
	VectorTool string
	RasterTool string
	Color      color.NRGBA
	Split      split.Options
	// EraserSize is the eraser tip diameter in model units.
	EraserSize float64
	// Predict extrapolates one sample ahead when the platform reports no
	// predicted samples.
	Predict bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Mode:       VectorDrawing,
		VectorTool: tools.BallPenURI,
		RasterTool: tools.PencilURI,
		Color:      color.NRGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff},
		Split:      split.Options{OverlapMargin: 0.5},
		EraserSize: 12,
		Predict:    true,
	}
}

// handler is the behaviour of one operation. A nil func is a no-op,
// except redraw, which defaults to a full redraw.
type handler struct {
	begin  func(c *Controller, ev input.Event, p gg.Point) error
	update func(c *Controller, ev input.Event, p gg.Point) error
	end    func(c *Controller, ev input.Event, p gg.Point) error
	cancel func(c *Controller)
	redraw func(c *Controller)
}

var handlers [numOperations]handler

func init() {
	handlers = [numOperations]handler{
		Idle:          {},
		DrawVector:    drawHandler,
		DrawRaster:    drawHandler,
		EraseWhole:    eraseHandler,
		ErasePart:     eraseHandler,
		SelectWhole:   selectHandler,
		SelectPart:    selectHandler,
		MoveSelection: moveHandler,
	}
}

// Controller is the operation state machine. It is not safe for concurrent
// use; all calls must come from the UI goroutine.
type Controller struct {
	model    Model
	view     View
	tools    *tools.Registry
	opts     Options
	splitter *split.Splitter
	tracker  *dirty.Tracker
	owner    input.Ownership
	current  Operation

	draw   drawState
	lasso  lassoState
	eraser eraseState
	move   moveState

	pending   []state.Op
	heldOrder []uuid.UUID // stroke order when the first op was held
}

// New returns a controller in the Idle operation.
func New(model Model, view View, reg *tools.Registry, opts Options) (*Controller, error) {
	for _, uri := range []string{opts.VectorTool, opts.RasterTool, tools.EraserURI, tools.SelectorURI} {
		if _, err := reg.Lookup(uri); err != nil {
			return nil, fmt.Errorf("controller: %w", err)
		}
	}
	return &Controller{
		model:    model,
		view:     view,
		tools:    reg,
		opts:     opts,
		splitter: split.NewSplitter(opts.Split),
		tracker:  dirty.NewTracker(),
	}, nil
}

// Current returns the current operation.
func (c *Controller) Current() Operation {
	return c.current
}

// Mode returns the configured operation mode.
func (c *Controller) Mode() OperationMode {
	return c.opts.Mode
}

// Options returns the controller options.
func (c *Controller) Options() Options {
	return c.opts
}

// Busy reports whether a gesture is in progress.
func (c *Controller) Busy() bool {
	_, owned := c.owner.Owner()
	return owned
}

// HandleEvent routes a pointer event to the current operation and updates
// the view. Events from pointers not owning the gesture are ignored. An
// error aborts the gesture.
func (c *Controller) HandleEvent(ev input.Event) error {
	if !c.owner.Accept(ev) {
		return nil
	}
	p := c.view.ViewToModel().TransformPoint(ev.Pos)

	var err error
	switch ev.Phase {
	case input.Press:
		c.current = c.resolve(ev, p)
		if f := handlers[c.current].begin; f != nil {
			err = f(c, ev, p)
		}
	case input.Move:
		if f := handlers[c.current].update; f != nil {
			err = f(c, ev, p)
		}
	case input.Release:
		if f := handlers[c.current].end; f != nil {
			err = f(c, ev, p)
		}
	}
	if err != nil {
		c.abort()
		return err
	}

	c.updateView()
	if ev.Phase == input.Release {
		c.tracker.Reset()
		c.flush()
	}
	return nil
}

// resolve picks the operation for a new gesture. A press on the current
// selection keeps moving it; a press elsewhere drops the selection first.
func (c *Controller) resolve(ev input.Event, p gg.Point) Operation {
	if c.current == MoveSelection {
		if c.model.Selection().HitTest(p) {
			return MoveSelection
		}
		c.model.ClearSelection()
	}
	op := c.resolveIdle(ev, p)
	if op != c.current {
		logging.Logger().Debug("operation changed", "op", op, "previous", c.current)
	}
	return op
}

func (c *Controller) resolveIdle(ev input.Event, p gg.Point) Operation {
	switch {
	case !ev.Primary:
		return Idle
	case c.model.Selection().HitTest(p):
		return MoveSelection
	case ev.Modifiers.Has(input.ModCtrl | input.ModShift):
		return SelectPart
	case ev.Modifiers.Has(input.ModCtrl):
		return SelectWhole
	}
	return c.opts.Mode.operation()
}

// Cancel abandons the gesture in progress without committing it.
func (c *Controller) Cancel() {
	if !c.Busy() {
		return
	}
	logging.Logger().Debug("gesture cancelled", "op", c.current)
	if f := handlers[c.current].cancel; f != nil {
		f(c)
	}
	c.owner.Release()
	c.tracker.Reset()
	c.settle()
	c.redrawAll()
	c.flush()
}

// abort ends a gesture whose setup or commit failed.
func (c *Controller) abort() {
	if f := handlers[c.current].cancel; f != nil {
		f(c)
	}
	c.owner.Release()
	c.tracker.Reset()
	c.settle()
	c.flush()
}

// settle returns to Idle unless a selection is waiting to be moved.
func (c *Controller) settle() {
	if c.model.Selection().Len() > 0 {
		// remote ops may have moved or removed selected strokes
		c.model.MeasureSelection()
		c.current = MoveSelection
		return
	}
	c.current = Idle
}

// SetOperationMode changes the behaviour of plain presses. Any selection
// is dropped and the view is redrawn.
func (c *Controller) SetOperationMode(m OperationMode) {
	c.Cancel()
	c.opts.Mode = m
	c.model.ClearSelection()
	c.current = Idle
	c.redrawAll()
}

// SetTool selects the vector or raster drawing tool.
func (c *Controller) SetTool(uri string) error {
	t, err := c.tools.Lookup(uri)
	if err != nil {
		return err
	}
	if t.Kind == state.Raster {
		c.opts.RasterTool = uri
	} else {
		c.opts.VectorTool = uri
	}
	return nil
}

// SetColor sets the colour of new strokes.
func (c *Controller) SetColor(col color.NRGBA) {
	c.opts.Color = col
}

// Clear removes every stroke and redraws.
func (c *Controller) Clear() {
	c.Cancel()
	c.model.Clear()
	c.current = Idle
	c.redrawAll()
}

// ApplyRemote applies an op from a peer. Ops arriving during a gesture are
// held until it ends. If the gesture changed the stroke order, held
// inserts are painted on top instead of at their index.
func (c *Controller) ApplyRemote(op state.Op) error {
	if c.Busy() {
		if len(c.pending) == 0 {
			c.heldOrder = strokeIDs(c.model.Strokes())
		}
		c.pending = append(c.pending, op)
		return nil
	}
	if err := c.model.Apply(op); err != nil {
		return fmt.Errorf("apply %s op: %w", op.Type, err)
	}
	c.settle()
	c.redrawAll()
	return nil
}

func (c *Controller) flush() {
	if len(c.pending) == 0 {
		return
	}
	ops := c.pending
	changed := !slices.Equal(c.heldOrder, strokeIDs(c.model.Strokes()))
	c.pending, c.heldOrder = nil, nil
	for _, op := range ops {
		if op.Type == state.OpInsert && changed {
			op.Index = -1
		}
		if err := c.model.Apply(op); err != nil {
			logging.Logger().Warn("remote op rejected", "op", op.Type, "site", op.Site, "err", err)
		}
	}
	c.settle()
	c.redrawAll()
}

func strokeIDs(strokes []*state.Stroke) []uuid.UUID {
	ids := make([]uuid.UUID, len(strokes))
	for i, s := range strokes {
		ids[i] = s.ID
	}
	return ids
}

// Redraw repaints everything, e.g. after the view was resized or panned.
func (c *Controller) Redraw() {
	c.redrawAll()
}

func (c *Controller) updateView() {
	if f := handlers[c.current].redraw; f != nil {
		f(c)
		return
	}
	c.redrawAll()
}

func (c *Controller) redrawAll() {
	c.view.ResizeIfNeeded()
	strokes := c.model.Strokes()
	sel := c.model.Selection()
	c.view.RedrawAll(strokes, sel.NotSelected())
	c.view.RedrawOverlay(strokes, sel, c.move.offset)
}

func (c *Controller) toView(r gg.Rect) gg.Rect {
	return geom.Transform(c.view.ModelToView(), r)
}
