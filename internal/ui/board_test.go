package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InkBoard/internal/controller"
	"InkBoard/internal/input"
	"InkBoard/internal/render"
	"InkBoard/internal/state"
	"InkBoard/internal/tools"
)

func newBoard(t *testing.T) *BoardWidget {
	t.Helper()
	test.NewTempApp(t)
	model := state.NewBoard()
	view := render.NewCanvas(200, 200)
	ctl, err := controller.New(model, view, tools.DefaultRegistry(), controller.DefaultOptions())
	require.NoError(t, err)
	b := NewBoardWidget(model, ctl, view)
	b.Resize(fyne.NewSize(200, 200))
	return b
}

func mouse(x, y float32, mods fyne.KeyModifier) *desktop.MouseEvent {
	e := &desktop.MouseEvent{Button: desktop.MouseButtonPrimary, Modifier: mods}
	e.Position = fyne.NewPos(x, y)
	return e
}

func drag(x, y float32) *fyne.DragEvent {
	e := &fyne.DragEvent{}
	e.Position = fyne.NewPos(x, y)
	return e
}

func TestMouseDrawsStroke(t *testing.T) {
	b := newBoard(t)
	b.MouseDown(mouse(20, 20, 0))
	b.Dragged(drag(60, 40))
	b.Dragged(drag(100, 40))
	b.MouseUp(mouse(100, 40, 0))

	strokes := b.Model().Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, gg.Pt(20, 20), strokes[0].Spline.Points[0].Pos())
	assert.False(t, b.Controller().Busy())
}

func TestDragWithoutPressIsIgnored(t *testing.T) {
	b := newBoard(t)
	b.Dragged(drag(60, 40))
	b.MouseUp(mouse(60, 40, 0))
	assert.Zero(t, b.Model().Len())
}

func TestEscapeCancelsGesture(t *testing.T) {
	b := newBoard(t)
	b.MouseDown(mouse(20, 20, 0))
	b.Dragged(drag(60, 40))
	b.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	assert.False(t, b.Controller().Busy())

	b.Dragged(drag(80, 40))
	b.MouseUp(mouse(80, 40, 0))
	assert.Zero(t, b.Model().Len(), "cancelled stroke is not committed")
}

func TestCtrlDragSelects(t *testing.T) {
	b := newBoard(t)
	s := &state.Stroke{
		ID:        state.NewStrokeID(),
		Kind:      state.Vector,
		Spline:    state.NewSpline([]state.PathPoint{state.NewPathPoint(50, 50), state.NewPathPoint(60, 60)}),
		Transform: state.IdentityTransform,
	}
	require.NoError(t, b.Model().StoreStroke(s, -1))

	b.MouseDown(mouse(40, 40, fyne.KeyModifierControl))
	assert.Equal(t, controller.SelectWhole, b.Controller().Current())
	for _, p := range [][2]float32{{70, 40}, {70, 70}, {40, 70}} {
		b.Dragged(drag(p[0], p[1]))
	}
	b.MouseUp(mouse(40, 41, fyne.KeyModifierControl))
	assert.True(t, b.Model().Selection().Contains(s.ID))
	assert.Equal(t, controller.MoveSelection, b.Controller().Current())
}

func TestScrollPansView(t *testing.T) {
	b := newBoard(t)
	e := &fyne.ScrollEvent{Scrolled: fyne.NewDelta(10, -20)}
	b.Scrolled(e)
	assert.Equal(t, gg.Pt(10, -20), b.view.ModelToView().TransformPoint(gg.Pt(0, 0)))
	assert.Equal(t, controller.Idle, b.Controller().Current())
}

func TestModifiers(t *testing.T) {
	assert.Equal(t, input.ModCtrl|input.ModShift, modifiers(fyne.KeyModifierControl|fyne.KeyModifierShift))
	assert.Equal(t, input.ModCtrl, modifiers(fyne.KeyModifierSuper))
	assert.Equal(t, input.Modifiers(0), modifiers(0))
}

func TestToolbarBuilds(t *testing.T) {
	b := newBoard(t)
	tb := NewToolbar(b, tools.DefaultRegistry(), func() {})
	require.NotNil(t, tb)
	assert.Equal(t, controller.VectorDrawing, b.Controller().Mode(), "building the toolbar keeps the mode")
}
