package controller

import (
	"github.com/gogpu/gg"

	"InkBoard/internal/input"
)

type moveState struct {
	origin   gg.Point
	offset   gg.Point
	dragging bool
}

var moveHandler = handler{
	begin:  (*Controller).beginMove,
	update: (*Controller).updateMove,
	end:    (*Controller).endMove,
	cancel: func(c *Controller) { c.move = moveState{} },
	redraw: (*Controller).redrawMove,
}

func (c *Controller) beginMove(ev input.Event, p gg.Point) error {
	c.move = moveState{origin: p}
	return nil
}

func (c *Controller) updateMove(ev input.Event, p gg.Point) error {
	c.move.offset = p.Sub(c.move.origin)
	c.move.dragging = true
	return nil
}

func (c *Controller) endMove(ev input.Event, p gg.Point) error {
	delta := p.Sub(c.move.origin)
	c.move = moveState{}
	if delta != (gg.Point{}) {
		c.model.MoveSelected(delta)
	}
	return nil
}

// redrawMove repaints only the overlay while dragging; the scene below
// does not change until the move is committed.
func (c *Controller) redrawMove() {
	if !c.move.dragging {
		c.redrawAll()
		return
	}
	c.view.RedrawOverlay(c.model.Strokes(), c.model.Selection(), c.move.offset)
}
