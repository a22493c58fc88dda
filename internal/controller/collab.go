package controller

import (
	"github.com/gogpu/gg"
	"github.com/google/uuid"

	"InkBoard/internal/state"
)

// Model owns the stroke collection and the selection. *state.Board
// implements it.
type Model interface {
	Strokes() []*state.Stroke
	StoreStroke(s *state.Stroke, at int) error
	RemoveStroke(index int) (*state.Stroke, error)
	FindStrokeIndex(id uuid.UUID) int
	Select(id uuid.UUID)
	ClearSelection()
	Selection() *state.Selection
	MeasureSelection() gg.Rect
	MoveSelected(delta gg.Point)
	Clear()
	Apply(op state.Op) error
}

// View paints the model. Rectangles passed to RedrawRect are in view
// space; strokes and offsets are in model space.
type View interface {
	ResizeIfNeeded()
	// RedrawAll repaints the scene with the strokes passing include.
	RedrawAll(strokes []*state.Stroke, include func(*state.Stroke) bool)
	// RedrawOverlay repaints the selected strokes translated by offset.
	RedrawOverlay(strokes []*state.Stroke, sel *state.Selection, offset gg.Point)
	// RedrawRect repaints strokes and the in-progress preview inside dirty.
	RedrawRect(dirty gg.Rect, strokes []*state.Stroke, preview *state.Stroke)
	ViewToModel() gg.Matrix
	ModelToView() gg.Matrix
}

var _ Model = (*state.Board)(nil)
