// Package dirty computes the view rectangle that has to be repainted for
// each input frame while a stroke is being drawn.
package dirty

import (
	"github.com/gogpu/gg"

	"InkBoard/internal/geom"
)

// Tracker remembers the rectangle covered by the previous frame's predicted
// stroke extension, which must be repainted on the next frame even if no new
// input arrives. The zero value has no carried-over prediction.
type Tracker struct {
	prevPredicted gg.Rect
	hasPredicted  bool
}

// NewTracker returns a tracker with no carried-over prediction.
func NewTracker() *Tracker {
	return &Tracker{}
}

// ComputeUnion returns the union of r and the stored predicted rectangle
// without changing the stored state.
func (t *Tracker) ComputeUnion(r gg.Rect) gg.Rect {
	return geom.Union(r, t.Predicted())
}

// ComputeFrameUpdateRect returns the rectangle to repaint this frame: the
// newly added region, the previous frame's prediction and the current
// prediction. The current prediction is stored for the next frame, even
// when it is empty.
func (t *Tracker) ComputeFrameUpdateRect(added, predicted gg.Rect) gg.Rect {
	r := geom.Union(added, t.Predicted())
	r = geom.Union(r, predicted)
	t.prevPredicted, t.hasPredicted = predicted, !geom.IsEmpty(predicted)
	return r
}

// Predicted returns the stored prediction rectangle.
func (t *Tracker) Predicted() gg.Rect {
	if !t.hasPredicted {
		return geom.EmptyRect
	}
	return t.prevPredicted
}

// Reset clears the stored prediction. Call it when a gesture ends.
func (t *Tracker) Reset() {
	t.prevPredicted, t.hasPredicted = gg.Rect{}, false
}
