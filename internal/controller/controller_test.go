package controller

import (
	"testing"
	"time"

	"github.com/gogpu/gg"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InkBoard/internal/geom"
	"InkBoard/internal/input"
	"InkBoard/internal/state"
	"InkBoard/internal/tools"
)

type rectCall struct {
	dirty   gg.Rect
	preview *state.Stroke
}

type overlayCall struct {
	selected int
	offset   gg.Point
}

// recordingView records redraw requests and uses an identity view
// transform unless pan is set.
type recordingView struct {
	pan      gg.Point
	all      int
	excluded int
	overlays []overlayCall
	rects    []rectCall
}

func (v *recordingView) ResizeIfNeeded() {}

func (v *recordingView) RedrawAll(strokes []*state.Stroke, include func(*state.Stroke) bool) {
	v.all++
	v.excluded = 0
	for _, s := range strokes {
		if !include(s) {
			v.excluded++
		}
	}
}

func (v *recordingView) RedrawOverlay(strokes []*state.Stroke, sel *state.Selection, offset gg.Point) {
	v.overlays = append(v.overlays, overlayCall{selected: sel.Len(), offset: offset})
}

func (v *recordingView) RedrawRect(dirty gg.Rect, strokes []*state.Stroke, preview *state.Stroke) {
	v.rects = append(v.rects, rectCall{dirty: dirty, preview: preview})
}

func (v *recordingView) ViewToModel() gg.Matrix { return gg.Translate(-v.pan.X, -v.pan.Y) }
func (v *recordingView) ModelToView() gg.Matrix { return gg.Translate(v.pan.X, v.pan.Y) }

func (v *recordingView) reset() {
	v.all, v.excluded, v.overlays, v.rects = 0, 0, nil, nil
}

type fixture struct {
	board *state.Board
	view  *recordingView
	ctl   *Controller
	clock time.Duration
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	opts := DefaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	f := &fixture{board: state.NewBoard(), view: &recordingView{}}
	ctl, err := New(f.board, f.view, tools.DefaultRegistry(), opts)
	require.NoError(t, err)
	f.ctl = ctl
	return f
}

func (f *fixture) event(phase input.Phase, x, y float64, opts ...func(*input.Event)) input.Event {
	f.clock += 16 * time.Millisecond
	ev := input.Event{
		Phase:   phase,
		Device:  input.DeviceMouse,
		Primary: phase != input.Release,
		Sample:  input.Sample{Pos: gg.Pt(x, y), Time: f.clock},
	}
	for _, o := range opts {
		o(&ev)
	}
	return ev
}

func (f *fixture) send(t *testing.T, phase input.Phase, x, y float64, opts ...func(*input.Event)) {
	t.Helper()
	require.NoError(t, f.ctl.HandleEvent(f.event(phase, x, y, opts...)))
}

// gesture sends a press at the first point, moves through the middle ones
// and a release at the last.
func (f *fixture) gesture(t *testing.T, pts []gg.Point, opts ...func(*input.Event)) {
	t.Helper()
	f.send(t, input.Press, pts[0].X, pts[0].Y, opts...)
	for _, p := range pts[1 : len(pts)-1] {
		f.send(t, input.Move, p.X, p.Y, opts...)
	}
	last := pts[len(pts)-1]
	f.send(t, input.Release, last.X, last.Y, opts...)
}

func withMods(m input.Modifiers) func(*input.Event) {
	return func(ev *input.Event) { ev.Modifiers = m }
}

func withDevice(d input.DeviceType) func(*input.Event) {
	return func(ev *input.Event) { ev.Device = d }
}

func withPointer(id input.PointerID) func(*input.Event) {
	return func(ev *input.Event) { ev.Pointer = id }
}

func rectPath(x0, y0, x1, y1 float64) []gg.Point {
	return []gg.Point{gg.Pt(x0, y0), gg.Pt(x1, y0), gg.Pt(x1, y1), gg.Pt(x0, y1), gg.Pt(x0, y0+1)}
}

func addLine(t *testing.T, b *state.Board, kind state.Kind, pts ...gg.Point) *state.Stroke {
	t.Helper()
	pp := make([]state.PathPoint, len(pts))
	for i, p := range pts {
		pp[i] = state.NewPathPoint(p.X, p.Y)
	}
	s := &state.Stroke{
		ID:        state.NewStrokeID(),
		Kind:      kind,
		Spline:    state.NewSpline(pp),
		Transform: state.IdentityTransform,
	}
	if kind == state.Raster {
		s.Brush = tools.PencilBrush
	}
	require.NoError(t, b.StoreStroke(s, -1))
	return s
}

func TestDrawVectorStroke(t *testing.T) {
	f := newFixture(t)
	before := f.board.Selection().Len()

	f.send(t, input.Press, 10, 10)
	assert.Equal(t, DrawVector, f.ctl.Current())
	f.send(t, input.Move, 20, 10)
	f.send(t, input.Release, 20, 10)

	strokes := f.board.Strokes()
	require.Len(t, strokes, 1)
	s := strokes[0]
	assert.Equal(t, state.Vector, s.Kind)
	assert.Equal(t, tools.CircleBrush.URI, s.Brush.URI)
	assert.Zero(t, s.RandomSeed)
	require.GreaterOrEqual(t, len(s.Spline.Points), 2)
	require.LessOrEqual(t, len(s.Spline.Points), 3)
	assert.Equal(t, gg.Pt(10, 10), s.Spline.Points[0].Pos())
	assert.Equal(t, gg.Pt(20, 10), s.Spline.Points[len(s.Spline.Points)-1].Pos())
	assert.Equal(t, before, f.board.Selection().Len())
	assert.False(t, f.ctl.Busy())
}

func TestDrawRasterStrokeGetsSeed(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Mode = RasterDrawing })
	f.gesture(t, []gg.Point{gg.Pt(0, 0), gg.Pt(30, 0), gg.Pt(30, 30)})

	strokes := f.board.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, state.Raster, strokes[0].Kind)
	assert.Equal(t, tools.PencilBrush.URI, strokes[0].Brush.URI)
	assert.NotEmpty(t, strokes[0].Cached().Particles)
}

func TestDrawDirtyRects(t *testing.T) {
	f := newFixture(t)
	f.send(t, input.Press, 10, 10)
	f.send(t, input.Move, 20, 10)
	require.Len(t, f.view.rects, 2)
	first := f.view.rects[1]
	require.NotNil(t, first.preview)
	require.Len(t, first.preview.Spline.Points, 3, "two samples and one predicted")
	assert.True(t, first.dirty.Contains(gg.Pt(30, 10)), "predicted extension is painted")

	// The next frame has no prediction; the stale one must still be repainted.
	f.ctl.opts.Predict = false
	f.send(t, input.Move, 22, 10)
	last := f.view.rects[len(f.view.rects)-1]
	assert.True(t, last.dirty.Contains(gg.Pt(30, 10)))
	assert.Len(t, last.preview.Spline.Points, 3)
	assert.Zero(t, f.view.all, "drawing never requests a full redraw")

	f.send(t, input.Release, 22, 10)
	assert.True(t, geom.IsEmpty(f.ctl.tracker.Predicted()), "tracker reset after the gesture")
}

func TestRasterDirtyRectCoversScatter(t *testing.T) {
	a, b := state.NewPathPoint(0, 0), state.NewPathPoint(10, 0)
	a.Size, b.Size = 20, 20
	pts := []state.PathPoint{a, b}

	vector := segmentBounds(pts, tools.CircleBrush)
	assert.Equal(t, gg.Pt(-11, -11), vector.Min)

	raster := segmentBounds(pts, state.Brush{Kind: state.Raster, Scattering: 0.25})
	assert.Equal(t, gg.Pt(-16, -16), raster.Min)
	assert.Equal(t, gg.Pt(26, 16), raster.Max)

	b.OffsetY = 3
	raster = segmentBounds([]state.PathPoint{a, b}, state.Brush{Kind: state.Raster})
	assert.Equal(t, gg.Pt(24, 14), raster.Max, "particle offset widens the rect")
}

func TestPressOnSelectionMoves(t *testing.T) {
	f := newFixture(t)
	s := addLine(t, f.board, state.Vector, gg.Pt(0, 0), gg.Pt(40, 40))
	f.board.Select(s.ID)
	f.board.MeasureSelection()

	f.send(t, input.Press, 20, 20)
	assert.Equal(t, MoveSelection, f.ctl.Current())
	f.send(t, input.Move, 25, 30)
	require.NotEmpty(t, f.view.overlays)
	assert.Equal(t, overlayCall{selected: 1, offset: gg.Pt(5, 10)}, f.view.overlays[len(f.view.overlays)-1])

	f.view.reset()
	f.send(t, input.Move, 30, 30)
	assert.Zero(t, f.view.all, "dragging repaints the overlay only")
	assert.Len(t, f.view.overlays, 1)

	f.send(t, input.Release, 30, 30)
	moved, ok := f.board.Stroke(s.ID)
	require.True(t, ok)
	assert.Equal(t, gg.Pt(10, 10), moved.Transform.Offset())
	assert.Equal(t, gg.Point{}, f.view.overlays[len(f.view.overlays)-1].offset, "offset reset after commit")
	assert.Equal(t, 1, f.view.excluded, "selected strokes stay out of the scene")
	assert.Equal(t, MoveSelection, f.ctl.Current())
	assert.True(t, f.board.Selection().HitTest(gg.Pt(45, 45)))
}

func TestPressElsewhereDropsSelection(t *testing.T) {
	f := newFixture(t)
	s := addLine(t, f.board, state.Vector, gg.Pt(0, 0), gg.Pt(10, 10))
	f.gesture(t, rectPath(-5, -5, 15, 15), withMods(input.ModCtrl))
	require.Equal(t, MoveSelection, f.ctl.Current())
	require.True(t, f.board.Selection().Contains(s.ID))

	f.send(t, input.Press, 100, 100)
	assert.Equal(t, DrawVector, f.ctl.Current())
	assert.Zero(t, f.board.Selection().Len())
	f.send(t, input.Release, 100, 100)
}

func TestSelectWholeSkipsRaster(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Mode = SelectWholeStroke })
	v := addLine(t, f.board, state.Vector, gg.Pt(10, 10), gg.Pt(20, 20))
	r := addLine(t, f.board, state.Raster, gg.Pt(30, 10), gg.Pt(40, 20))
	outside := addLine(t, f.board, state.Vector, gg.Pt(200, 200), gg.Pt(210, 210))

	f.gesture(t, rectPath(0, 0, 60, 60))

	sel := f.board.Selection()
	assert.True(t, sel.Contains(v.ID))
	assert.False(t, sel.Contains(r.ID), "raster strokes are never selected")
	assert.False(t, sel.Contains(outside.ID))
	assert.Equal(t, 1, sel.Len())
	assert.Equal(t, MoveSelection, f.ctl.Current())
	assert.False(t, geom.IsEmpty(sel.Bounds()))
}

func TestEmptySelectionReturnsToIdle(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Mode = SelectWholeStroke })
	addLine(t, f.board, state.Vector, gg.Pt(10, 10), gg.Pt(20, 20))

	f.gesture(t, []gg.Point{gg.Pt(100, 100), gg.Pt(110, 100), gg.Pt(120, 100)})
	assert.Zero(t, f.board.Selection().Len(), "degenerate lasso selects nothing")
	assert.Equal(t, Idle, f.ctl.Current())
}

func TestModifierPrecedence(t *testing.T) {
	tests := []struct {
		name string
		mods input.Modifiers
		want Operation
	}{
		{"none", 0, DrawVector},
		{"ctrl", input.ModCtrl, SelectWhole},
		{"ctrl shift", input.ModCtrl | input.ModShift, SelectPart},
		{"shift", input.ModShift, DrawVector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.send(t, input.Press, 5, 5, withMods(tt.mods))
			assert.Equal(t, tt.want, f.ctl.Current())
		})
	}

	f := newFixture(t)
	f.send(t, input.Press, 5, 5, func(ev *input.Event) { ev.Primary = false })
	assert.Equal(t, Idle, f.ctl.Current())
}

func TestSelectPartSplicesFragments(t *testing.T) {
	f := newFixture(t)
	below := addLine(t, f.board, state.Vector, gg.Pt(0, 50), gg.Pt(10, 50))
	s := addLine(t, f.board, state.Vector, gg.Pt(0, 0), gg.Pt(20, 0), gg.Pt(40, 0), gg.Pt(60, 0), gg.Pt(80, 0), gg.Pt(100, 0))
	above := addLine(t, f.board, state.Vector, gg.Pt(0, 80), gg.Pt(10, 80))
	raster := addLine(t, f.board, state.Raster, gg.Pt(30, 5), gg.Pt(50, 5))

	f.gesture(t, rectPath(30, -20, 70, 20), withMods(input.ModCtrl|input.ModShift))

	strokes := f.board.Strokes()
	assert.Equal(t, -1, f.board.FindStrokeIndex(s.ID), "parent removed")
	assert.Equal(t, below.ID, strokes[0].ID)
	assert.Equal(t, raster.ID, strokes[len(strokes)-1].ID, "raster stroke untouched")
	assert.Equal(t, above.ID, strokes[len(strokes)-2].ID)

	frags := strokes[1 : len(strokes)-2]
	require.Len(t, frags, 5, "outside, overlapped, inside, overlapped, outside")
	sel := f.board.Selection()
	var selected []uuid.UUID
	for _, fs := range frags {
		assert.Equal(t, s.Color, fs.Color)
		if sel.Contains(fs.ID) {
			selected = append(selected, fs.ID)
		}
	}
	assert.Equal(t, []uuid.UUID{frags[1].ID, frags[2].ID, frags[3].ID}, selected)
	assert.False(t, sel.Contains(raster.ID))
	assert.Equal(t, MoveSelection, f.ctl.Current())
}

func TestCancelDiscardsGesture(t *testing.T) {
	f := newFixture(t)
	f.send(t, input.Press, 0, 0)
	f.send(t, input.Move, 10, 0)
	f.ctl.Cancel()
	assert.Zero(t, f.board.Len(), "cancelled stroke is not committed")
	assert.False(t, f.ctl.Busy())

	s := addLine(t, f.board, state.Vector, gg.Pt(0, 0), gg.Pt(10, 10))
	f.board.Select(s.ID)
	f.board.MeasureSelection()
	f.send(t, input.Press, 50, 50, withMods(input.ModCtrl), withPointer(3))
	require.Equal(t, SelectWhole, f.ctl.Current())
	f.send(t, input.Move, 60, 50, withPointer(3))
	f.send(t, input.Move, 60, 60, withPointer(3))
	f.ctl.Cancel()
	assert.Equal(t, 1, f.board.Selection().Len(), "cancelled lasso leaves the selection alone")
	assert.True(t, f.board.Selection().Contains(s.ID))
	assert.Equal(t, MoveSelection, f.ctl.Current())

	// Ownership was released, so any pointer may start the next gesture.
	f.send(t, input.Press, 1, 1, withPointer(9))
	assert.True(t, f.ctl.Busy())
}

func TestSecondPointerIgnored(t *testing.T) {
	f := newFixture(t)
	f.send(t, input.Press, 0, 0, withPointer(1))
	f.send(t, input.Press, 50, 50, withPointer(2), withDevice(input.DeviceTouch))
	f.send(t, input.Move, 60, 50, withPointer(2))
	f.send(t, input.Move, 10, 0, withPointer(1))
	f.send(t, input.Release, 60, 50, withPointer(2))
	assert.True(t, f.ctl.Busy())
	f.send(t, input.Release, 10, 0, withPointer(1))

	strokes := f.board.Strokes()
	require.Len(t, strokes, 1)
	assert.Len(t, strokes[0].Spline.Points, 2)
}

func TestUnknownDeviceAbortsGesture(t *testing.T) {
	f := newFixture(t)
	err := f.ctl.HandleEvent(f.event(input.Press, 0, 0, withDevice(input.DeviceUnknown)))
	require.ErrorIs(t, err, tools.ErrUnknownDevice)
	assert.False(t, f.ctl.Busy())
	assert.Equal(t, Idle, f.ctl.Current())

	f.send(t, input.Move, 10, 0)
	f.send(t, input.Release, 10, 0)
	assert.Zero(t, f.board.Len())
}

func TestEraseWhole(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Mode = EraseWholeStroke })
	v := addLine(t, f.board, state.Vector, gg.Pt(0, 0), gg.Pt(100, 0))
	r := addLine(t, f.board, state.Raster, gg.Pt(50, -20), gg.Pt(50, 20))
	kept := addLine(t, f.board, state.Vector, gg.Pt(0, 100), gg.Pt(100, 100))

	f.gesture(t, []gg.Point{gg.Pt(40, -40), gg.Pt(45, 0), gg.Pt(50, 40)})

	strokes := f.board.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, kept.ID, strokes[0].ID)
	assert.Equal(t, -1, f.board.FindStrokeIndex(v.ID))
	assert.Equal(t, -1, f.board.FindStrokeIndex(r.ID))
	assert.Positive(t, f.view.all)
}

func TestErasePart(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Mode = EraseStrokePart })
	v := addLine(t, f.board, state.Vector, gg.Pt(0, 0), gg.Pt(50, 0), gg.Pt(100, 0))
	r := addLine(t, f.board, state.Raster, gg.Pt(50, -20), gg.Pt(50, 20))

	f.gesture(t, []gg.Point{gg.Pt(50, -40), gg.Pt(50, 40), gg.Pt(50, 40)})

	strokes := f.board.Strokes()
	require.Len(t, strokes, 3)
	assert.Equal(t, -1, f.board.FindStrokeIndex(v.ID))
	assert.Equal(t, r.ID, strokes[2].ID, "raster strokes are not split")
	left, right := strokes[0].Bounds(), strokes[1].Bounds()
	assert.Less(t, left.Max.X, 50.0)
	assert.Greater(t, right.Min.X, 50.0)
}

func TestEraseAppliesOnRelease(t *testing.T) {
	for _, mode := range []OperationMode{EraseWholeStroke, EraseStrokePart} {
		t.Run(mode.String(), func(t *testing.T) {
			f := newFixture(t, func(o *Options) { o.Mode = mode })
			s := addLine(t, f.board, state.Vector, gg.Pt(0, 5), gg.Pt(100, 5))
			var ops []state.Op
			f.board.OnLocalOp = func(op state.Op) { ops = append(ops, op) }

			f.send(t, input.Press, 50, -40)
			f.send(t, input.Move, 50, 40)
			assert.Equal(t, 1, f.board.Len(), "nothing is erased mid-gesture")
			assert.Empty(t, ops)
			require.NotEmpty(t, f.view.rects)
			trail := f.view.rects[len(f.view.rects)-1].preview
			require.NotNil(t, trail, "eraser trail is previewed")
			assert.NotZero(t, trail.Color.A)

			f.ctl.Cancel()
			require.Equal(t, 1, f.board.Len())
			assert.Equal(t, s.ID, f.board.Strokes()[0].ID, "cancel leaves strokes intact")
			assert.Empty(t, ops)
			assert.False(t, f.ctl.Busy())

			f.gesture(t, []gg.Point{gg.Pt(50, -40), gg.Pt(50, 40), gg.Pt(50, 40)})
			assert.Equal(t, -1, f.board.FindStrokeIndex(s.ID))
			if mode == EraseStrokePart {
				assert.Equal(t, 2, f.board.Len(), "a straight line through the eraser leaves two pieces")
			} else {
				assert.Zero(t, f.board.Len())
			}
		})
	}
}

func TestRemoteOpsWaitForGesture(t *testing.T) {
	f := newFixture(t)
	peer := state.NewBoard()
	var ops []state.Op
	peer.OnLocalOp = func(op state.Op) { ops = append(ops, op) }
	remote := addLine(t, peer, state.Vector, gg.Pt(0, 0), gg.Pt(5, 5))
	require.Len(t, ops, 1)

	f.send(t, input.Press, 10, 10)
	require.NoError(t, f.ctl.ApplyRemote(ops[0]))
	assert.Zero(t, f.board.Len(), "held while drawing")
	f.send(t, input.Move, 20, 10)
	f.send(t, input.Release, 20, 10)

	strokes := f.board.Strokes()
	require.Len(t, strokes, 2)
	assert.Equal(t, remote.ID, strokes[1].ID, "the local stroke moved the order on, so the insert goes on top")

	f.view.reset()
	require.NoError(t, f.ctl.ApplyRemote(state.Op{Type: state.OpClear, Site: "peer", Lamport: 9}))
	assert.Zero(t, f.board.Len())
	assert.Equal(t, 1, f.view.all)
}

func TestHeldInsertKeepsIndexWhenOrderUnchanged(t *testing.T) {
	f := newFixture(t)
	local := addLine(t, f.board, state.Vector, gg.Pt(0, 0), gg.Pt(5, 5))
	peer := state.NewBoard()
	var ops []state.Op
	peer.OnLocalOp = func(op state.Op) { ops = append(ops, op) }
	remote := addLine(t, peer, state.Vector, gg.Pt(20, 20), gg.Pt(25, 25))
	require.Len(t, ops, 1)
	require.Zero(t, ops[0].Index)

	f.send(t, input.Press, 60, 60)
	require.NoError(t, f.ctl.ApplyRemote(ops[0]))
	f.send(t, input.Move, 70, 60)
	f.ctl.Cancel()

	strokes := f.board.Strokes()
	require.Len(t, strokes, 2)
	assert.Equal(t, remote.ID, strokes[0].ID)
	assert.Equal(t, local.ID, strokes[1].ID)
}

func TestSetOperationModeRedraws(t *testing.T) {
	f := newFixture(t)
	s := addLine(t, f.board, state.Vector, gg.Pt(0, 0), gg.Pt(10, 10))
	f.board.Select(s.ID)

	f.ctl.SetOperationMode(EraseWholeStroke)
	assert.Equal(t, EraseWholeStroke, f.ctl.Mode())
	assert.Zero(t, f.board.Selection().Len())
	assert.Equal(t, 1, f.view.all)

	f.ctl.Clear()
	assert.Zero(t, f.board.Len())
	assert.Equal(t, 2, f.view.all)
}

func TestPannedViewMapsToModel(t *testing.T) {
	f := newFixture(t)
	f.view.pan = gg.Pt(100, 50)
	f.gesture(t, []gg.Point{gg.Pt(110, 60), gg.Pt(120, 60), gg.Pt(130, 60)})

	strokes := f.board.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, gg.Pt(10, 10), strokes[0].Spline.Points[0].Pos())
}

func TestParseMode(t *testing.T) {
	for _, name := range ModeNames() {
		m, ok := ParseMode(name)
		require.True(t, ok, name)
		assert.Equal(t, name, m.String())
	}
	_, ok := ParseMode("sketch")
	assert.False(t, ok)
}
